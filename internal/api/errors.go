package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khrees2412/prospector/internal/ai"
	"github.com/khrees2412/prospector/internal/app"
)

// respondError maps domain errors to HTTP statuses. Model and internal failures
// get a generic message; the detail only goes to the log.
func (s *Server) respondError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"

	switch {
	case errors.Is(err, app.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, app.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, app.ErrAlreadyPromoted):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ai.ErrTransport),
		errors.Is(err, ai.ErrAnalysisParse),
		errors.Is(err, ai.ErrExtractionParse):
		status, msg = http.StatusBadGateway, "language model request failed"
	}

	if status >= 500 {
		attrs := []any{
			slog.String(requestIDKey, c.GetString(requestIDKey)),
			slog.Any("error", err),
		}
		var pe *ai.ParseError
		if errors.As(err, &pe) {
			attrs = append(attrs, slog.String("raw", pe.Raw))
		}
		s.logger.ErrorContext(c.Request.Context(), "request failed", attrs...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

// pathID parses the :id parameter, writing a 400 when it is not a positive integer
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Errorf("id %q is not a valid id", c.Param("id")))
		return 0, false
	}
	return id, true
}
