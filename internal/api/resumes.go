package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khrees2412/prospector/pkg/models"
)

type createResumeRequest struct {
	Content  string  `json:"content" binding:"required"`
	Filename *string `json:"filename"`
	// Activate defaults to true
	Activate *bool `json:"activate"`
}

func (s *Server) createResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r := &models.Resume{Content: req.Content, Filename: req.Filename}
	var err error
	if req.Activate == nil || *req.Activate {
		err = s.svc.Resumes.CreateAsActive(c.Request.Context(), r)
	} else {
		err = s.svc.Resumes.Create(c.Request.Context(), r)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) listResumes(c *gin.Context) {
	resumes, err := s.svc.Resumes.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumes)
}

func (s *Server) activeResume(c *gin.Context) {
	r, err := s.svc.Resumes.GetActive(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) getResume(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := s.svc.Resumes.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) activateResume(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := s.svc.Resumes.SetActive(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) deleteResume(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Resumes.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateResume(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var upd models.ResumeUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	r, err := s.svc.Resumes.Update(c.Request.Context(), id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
