package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandlers reports liveness of the server and its database
type HealthHandlers struct {
	db          Pinger
	cache       interfaces.ContentCache
	metrics     *metrics.Metrics
	perfTracker *performance.Tracker
	logger      *logging.ChanneledLogger
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(db Pinger, cache interfaces.ContentCache, m *metrics.Metrics, perfTracker *performance.Tracker, logger *logging.ChanneledLogger) *HealthHandlers {
	return &HealthHandlers{db: db, cache: cache, metrics: m, perfTracker: perfTracker, logger: logger}
}

// GetHealth handles GET /api/v1/health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dbStatus := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.System().Error("Health check database ping failed", "error", err.Error())
		status = http.StatusServiceUnavailable
		dbStatus = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":      http.StatusText(status),
		"database":    dbStatus,
		"performance": h.perfTracker.Health(),
		"operations":  h.perfTracker.GetOverallStats(),
		"alerts":      h.perfTracker.GetAlerts(),
		"cache":       h.cache.Stats(),
		"uptime":      time.Since(h.metrics.ServerStartTime).Round(time.Second).String(),
	})
}
