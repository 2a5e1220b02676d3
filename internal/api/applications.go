package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/pkg/models"
)

type createApplicationRequest struct {
	CompanyName     string         `json:"company_name" binding:"required"`
	RoleName        string         `json:"role_name" binding:"required"`
	Stage           *models.Stage  `json:"stage"`
	JobAd           *string        `json:"job_ad"`
	CoverLetter     *string        `json:"cover_letter"`
	Notes           *string        `json:"notes"`
	MatchPercentage *float64       `json:"match_percentage" binding:"omitempty,min=0,max=100"`
	MatchReasoning  *string        `json:"match_reasoning"`
	AdditionalInfo  map[string]any `json:"additional_info"`
}

type listApplicationsQuery struct {
	Stage  string `form:"stage"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

func (s *Server) createApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	a := &models.JobApplication{
		CompanyName:     req.CompanyName,
		RoleName:        req.RoleName,
		Stage:           models.StageNotStarted,
		JobAd:           req.JobAd,
		CoverLetter:     req.CoverLetter,
		Notes:           req.Notes,
		MatchPercentage: req.MatchPercentage,
		MatchReasoning:  req.MatchReasoning,
		AdditionalInfo:  req.AdditionalInfo,
	}
	if req.Stage != nil {
		a.Stage = *req.Stage
	}
	if err := s.svc.Tracker.Create(c.Request.Context(), a); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) listApplications(c *gin.Context) {
	var q listApplicationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	opts := database.ApplicationListOptions{Limit: q.Limit, Offset: q.Offset}
	if q.Stage != "" {
		st, err := models.ParseStage(q.Stage)
		if err != nil {
			badRequest(c, err)
			return
		}
		opts.Stage = &st
	}

	apps, err := s.svc.Tracker.List(c.Request.Context(), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *Server) getApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := s.svc.Tracker.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) updateApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var upd models.ApplicationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	a, err := s.svc.Tracker.Update(c.Request.Context(), id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Tracker.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) applicationHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	history, err := s.svc.Tracker.History(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type statsResponse struct {
	Leads  *database.LeadStats `json:"leads"`
	Stages map[string]int      `json:"stages"`
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()
	leads, err := s.svc.Ranker.LeadStats(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	counts, err := s.svc.Tracker.StageCounts(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}

	stages := make(map[string]int, len(models.Stages))
	for _, st := range models.Stages {
		stages[st.String()] = counts[st]
	}
	c.JSON(http.StatusOK, statsResponse{Leads: leads, Stages: stages})
}
