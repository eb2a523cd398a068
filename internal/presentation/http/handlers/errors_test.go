package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("wrapped: %w", apperr.Invalid("userName", "must not be empty")), http.StatusBadRequest},
		{"not found", apperr.NotFound("page", "p1"), http.StatusNotFound},
		{"not authorized", apperr.ErrNotAuthorized, http.StatusUnauthorized},
		{"constraint", fmt.Errorf("insert: %w", errors.Join(apperr.ErrConstraint, errors.New("UNIQUE"))), http.StatusConflict},
		{"unavailable", apperr.Unavailable("list pages", errors.New("database is locked")), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["error"])
		})
	}

	_, body := errorResponse(apperr.Invalid("seq", "must not be negative"))
	assert.Equal(t, "seq", body["field"])

	_, body = errorResponse(errors.New("secret internals"))
	assert.Equal(t, "internal server error", body["error"])
}

func TestRespondErrorLogsServerFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Writer = &buf
	cfg.DefaultLevel = slog.LevelInfo
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/pages/:id", func(c *gin.Context) {
		respondError(c, logger, logging.ChannelContent, errors.New("disk full"))
	})
	r.GET("/missing/:id", func(c *gin.Context) {
		respondError(c, logger, logging.ChannelContent, apperr.NotFound("page", c.Param("id")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pages/p1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"operation":"GET /pages/:id"`)
	assert.Contains(t, buf.String(), "disk full")
	assert.NotContains(t, w.Body.String(), "disk full")

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing/p2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, buf.String(), "client errors are logged at debug only")
}
