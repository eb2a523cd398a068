package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SessionHandlers issues reader sessions and serves reader settings
type SessionHandlers struct {
	settings *services.SettingsService
	logger   *logging.ChanneledLogger
}

// NewSessionHandlers creates session handlers with injected dependencies
func NewSessionHandlers(settings *services.SettingsService, logger *logging.ChanneledLogger) *SessionHandlers {
	return &SessionHandlers{settings: settings, logger: logger}
}

// PostSession handles POST /api/v1/session. A client that already holds a
// session id gets it back unchanged.
func (h *SessionHandlers) PostSession(c *gin.Context) {
	if existing := middleware.GetSession(c); existing != "" {
		c.JSON(http.StatusOK, gin.H{"sessionId": existing, "created": false})
		return
	}

	sessionID := security.NewSessionID()
	h.logger.Engagement().Debug("Reader session issued", "session", logging.MaskSession(sessionID))
	c.JSON(http.StatusCreated, gin.H{"sessionId": sessionID, "created": true})
}

// GetSettings handles GET /api/v1/settings
func (h *SessionHandlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Settings())
}
