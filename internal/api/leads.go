package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/internal/ranking"
	"github.com/khrees2412/prospector/pkg/models"
)

type createLeadRequest struct {
	JobPosting  string  `json:"job_posting"`
	CompanyName *string `json:"company_name"`
	RoleName    *string `json:"role_name"`
	URL         *string `json:"url" binding:"omitempty,url"`
}

type createLeadResponse struct {
	Lead       *models.JobLead    `json:"lead"`
	RankStatus ranking.RankStatus `json:"rank_status"`
	RankError  string             `json:"rank_error,omitempty"`
}

type updateLeadRequest struct {
	CompanyName *string `json:"company_name"`
	RoleName    *string `json:"role_name"`
	JobPosting  *string `json:"job_posting"`
	URL         *string `json:"url" binding:"omitempty,url"`
}

type listLeadsQuery struct {
	Sort     string `form:"sort" binding:"omitempty,oneof=match newest"`
	Promoted *bool  `form:"promoted"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

type rankBatchRequest struct {
	LeadIDs []int64 `json:"lead_ids" binding:"required,min=1,max=200"`
}

func (s *Server) createLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rank := s.svc.RankOnCreate
	if v := c.Query("rank"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, errors.New("rank must be true or false"))
			return
		}
		rank = b
	}

	lead := &models.JobLead{
		JobPosting:  req.JobPosting,
		CompanyName: req.CompanyName,
		RoleName:    req.RoleName,
		URL:         req.URL,
	}
	if strings.TrimSpace(lead.JobPosting) == "" && req.URL != nil && s.svc.Fetcher != nil {
		posting, err := s.svc.Fetcher.Fetch(c.Request.Context(), *req.URL)
		if err != nil {
			s.respondError(c, err)
			return
		}
		lead.JobPosting = posting.Content
		if lead.CompanyName == nil {
			lead.CompanyName = models.StringPtr(posting.CompanyName)
		}
		if lead.RoleName == nil {
			lead.RoleName = models.StringPtr(posting.RoleName)
		}
	}

	out, err := s.svc.Ranker.CreateLead(c.Request.Context(), lead, rank)
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := createLeadResponse{Lead: out.Lead, RankStatus: out.RankStatus}
	if out.RankErr != nil {
		// detail is in the server log
		resp.RankError = "ranking failed, retry with POST /api/leads/" + strconv.FormatInt(out.Lead.ID, 10) + "/analyze"
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) listLeads(c *gin.Context) {
	var q listLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	leads, err := s.svc.Ranker.Leads(c.Request.Context(), database.LeadListOptions{
		SortByMatch: q.Sort == "match",
		Promoted:    q.Promoted,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

func (s *Server) getLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lead, err := s.svc.Ranker.Lead(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (s *Server) updateLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lead, err := s.svc.Ranker.UpdateLead(c.Request.Context(), id, models.LeadUpdate{
		CompanyName: req.CompanyName,
		RoleName:    req.RoleName,
		JobPosting:  req.JobPosting,
		URL:         req.URL,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (s *Server) deleteLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Ranker.DeleteLead(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) analyzeLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var resumeID *int64
	if v := c.Query("resume_id"); v != "" {
		rid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || rid <= 0 {
			badRequest(c, errors.New("resume_id must be a positive integer"))
			return
		}
		resumeID = &rid
	}

	lead, err := s.svc.Ranker.Rank(c.Request.Context(), id, resumeID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (s *Server) promoteLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := s.svc.Promotion.Promote(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) rankBatch(c *gin.Context) {
	var req rankBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	results, err := s.svc.Ranker.RankBatch(c.Request.Context(), req.LeadIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
