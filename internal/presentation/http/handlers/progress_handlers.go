package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProgressRequest is the body of a reading position update
type ProgressRequest struct {
	PageID string `json:"pageId" binding:"required"`
	Seq    *int64 `json:"seq" binding:"required"`
}

// ProgressHandlers stores and returns per-session reading positions
type ProgressHandlers struct {
	progress *services.ProgressService
	logger   *logging.ChanneledLogger
}

// NewProgressHandlers creates progress handlers with injected dependencies
func NewProgressHandlers(progress *services.ProgressService, logger *logging.ChanneledLogger) *ProgressHandlers {
	return &ProgressHandlers{progress: progress, logger: logger}
}

// GetProgress handles GET /api/v1/stories/:id/progress
func (h *ProgressHandlers) GetProgress(c *gin.Context) {
	progress, err := h.progress.Get(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, logging.ChannelEngagement, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// PutProgress handles PUT /api/v1/stories/:id/progress. A response with
// applied:false means a newer position was already stored.
func (h *ProgressHandlers) PutProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	storyID := c.Param("id")
	applied, err := h.progress.Save(c.Request.Context(), middleware.GetSession(c), storyID, req.PageID, *req.Seq)
	if err != nil {
		respondError(c, h.logger, logging.ChannelEngagement, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"storyId": storyID,
		"pageId":  req.PageID,
		"seq":     *req.Seq,
		"applied": applied,
	})
}
