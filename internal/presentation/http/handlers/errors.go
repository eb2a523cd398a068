// Package handlers provides the HTTP handlers of the story reader API
package handlers

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// errorResponse maps the application error taxonomy onto a status and body.
func errorResponse(err error) (int, gin.H) {
	if v, ok := apperr.AsValidation(err); ok {
		return http.StatusBadRequest, gin.H{"error": v.Error(), "field": v.Field}
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.Is(err, apperr.ErrNotAuthorized):
		return http.StatusUnauthorized, gin.H{"error": "admin authentication required"}
	case errors.Is(err, apperr.ErrConstraint):
		return http.StatusConflict, gin.H{"error": "conflicting update, please retry"}
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, please try again"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal server error"}
	}
}

// respondError writes the mapped error. Server-side failures are logged with the cause.
func respondError(c *gin.Context, logger *logging.ChanneledLogger, channel logging.Channel, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.LogError(channel, c.Request.Method+" "+c.FullPath(), err, map[string]any{
			"path":   c.Request.URL.Path,
			"status": status,
		})
	} else {
		logger.GetChannel(channel).Debug("Request rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "error", err.Error())
	}
	c.JSON(status, body)
}
