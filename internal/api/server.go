package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khrees2412/prospector/internal/config"
	"github.com/khrees2412/prospector/internal/promotion"
	"github.com/khrees2412/prospector/internal/ranking"
	"github.com/khrees2412/prospector/internal/resume"
	"github.com/khrees2412/prospector/internal/scraper"
	"github.com/khrees2412/prospector/internal/tracker"
)

// Services are the domain services the handlers call into
type Services struct {
	Tracker   *tracker.Tracker
	Resumes   *resume.Registry
	Ranker    *ranking.Ranker
	Promotion *promotion.Workflow
	// Fetcher is optional; without it leads must be posted with their text
	Fetcher *scraper.Fetcher
	// RankOnCreate is the default for the ?rank= query of POST /leads
	RankOnCreate bool
}

// Server serves the JSON API
type Server struct {
	cfg    config.ServerConfig
	svc    Services
	logger *slog.Logger
	engine *gin.Engine
}

func NewServer(cfg config.ServerConfig, svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{cfg: cfg, svc: svc, logger: logger, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestID(), requestLogger(logger))
	s.engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	c.ExposeHeaders = []string{requestIDHeader}
	return c
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)

		resumes := api.Group("/resumes")
		resumes.POST("", s.createResume)
		resumes.GET("", s.listResumes)
		resumes.GET("/active", s.activeResume)
		resumes.GET("/:id", s.getResume)
		resumes.PUT("/:id", s.updateResume)
		resumes.PUT("/:id/activate", s.activateResume)
		resumes.DELETE("/:id", s.deleteResume)

		leads := api.Group("/leads")
		leads.POST("", s.createLead)
		leads.GET("", s.listLeads)
		leads.POST("/rank-batch", s.rankBatch)
		leads.GET("/:id", s.getLead)
		leads.PUT("/:id", s.updateLead)
		leads.DELETE("/:id", s.deleteLead)
		leads.POST("/:id/analyze", s.analyzeLead)
		leads.POST("/:id/promote", s.promoteLead)

		apps := api.Group("/applications")
		apps.POST("", s.createApplication)
		apps.GET("", s.listApplications)
		apps.GET("/:id", s.getApplication)
		apps.PUT("/:id", s.updateApplication)
		apps.DELETE("/:id", s.deleteApplication)
		apps.GET("/:id/history", s.applicationHistory)

		api.GET("/stats", s.stats)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
