package handlers

import (
	"net/http"
	"slices"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// LiveHandlers upgrades readers into a story's realtime room
type LiveHandlers struct {
	hierarchy *services.HierarchyService
	hub       *messaging.LiveHub
	upgrader  websocket.Upgrader
	logger    *logging.ChanneledLogger
}

// NewLiveHandlers creates live handlers. Websocket origins follow the CORS allow list.
func NewLiveHandlers(hierarchy *services.HierarchyService, hub *messaging.LiveHub, allowedOrigins []string, logger *logging.ChanneledLogger) *LiveHandlers {
	return &LiveHandlers{
		hierarchy: hierarchy,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// Connect handles GET /api/v1/stories/:id/live
func (h *LiveHandlers) Connect(c *gin.Context) {
	storyID := c.Param("id")
	if _, err := h.hierarchy.GetStory(c.Request.Context(), storyID); err != nil {
		respondError(c, h.logger, logging.ChannelRealtime, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Realtime().Warn("Websocket upgrade failed", "storyId", storyID, "error", err.Error())
		return
	}

	h.hub.Serve(conn, storyID, middleware.GetSession(c))
}
