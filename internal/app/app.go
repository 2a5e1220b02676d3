package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/khrees2412/prospector/internal/config"
	"github.com/khrees2412/prospector/internal/database"
)

// App is the dependency container for the CLI and the HTTP server
type App struct {
	Store      *database.Store
	Config     *config.Config
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewApp loads configuration from configPath (empty means the default location),
// opens the database and returns a new App instance
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	store, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger := NewLogger(cfg.LogLevel)
	logger.DebugContext(ctx, "app initialized",
		slog.String("config", cfg.Path()),
		slog.String("database", cfg.Database.Path),
		slog.String("model", cfg.LLM.Model))

	return &App{
		Store:  store,
		Config: cfg,
		// Model calls carry their own context deadline; this is the outer bound.
		HTTPClient: &http.Client{Timeout: cfg.LLM.Timeout},
		Logger:     logger,
	}, nil
}

// Close closes all resources
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// NewLogger builds a text logger on stderr at the given level (debug, info, warn, error)
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
