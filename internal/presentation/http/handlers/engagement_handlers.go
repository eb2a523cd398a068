package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// EngagementHandlers serves likes and comments. The same handlers are mounted for
// every target type; the target is fixed when the route is registered.
type EngagementHandlers struct {
	engagement  *services.EngagementService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEngagementHandlers creates engagement handlers with injected dependencies
func NewEngagementHandlers(engagementService *services.EngagementService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EngagementHandlers {
	return &EngagementHandlers{
		engagement:  engagementService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetLikes handles GET /api/v1/{stories,pages,comments}/:id/like
func (h *EngagementHandlers) GetLikes(target engagement.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := h.engagement.LikeState(c.Request.Context(), target, c.Param("id"), middleware.GetSession(c))
		if err != nil {
			respondError(c, h.logger, logging.ChannelEngagement, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// ToggleLike handles POST /api/v1/{stories,pages,comments}/:id/like
func (h *EngagementHandlers) ToggleLike(target engagement.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID := c.Param("id")
		start := time.Now()
		marker := h.perfTracker.StartOperation("toggle_like_request", targetID)
		defer marker.Complete()
		marker.AddMetadata("targetType", string(target))
		h.logger.Engagement().Debug("Received toggle like request", "method", c.Request.Method, "path", c.Request.URL.Path, "targetType", target, "targetId", targetID)

		state, err := h.engagement.ToggleLike(c.Request.Context(), target, targetID, middleware.GetSession(c))
		if err != nil {
			marker.SetError(err)
			respondError(c, h.logger, logging.ChannelEngagement, err)
			return
		}

		marker.SetSuccess(true)
		h.logger.Perf().Info("Performance for ToggleLike request", "duration", time.Since(start), "targetType", target, "targetId", targetID, "success", true)

		c.JSON(http.StatusOK, state)
	}
}

// ListComments handles GET /api/v1/{stories,pages}/:id/comments
func (h *EngagementHandlers) ListComments(target engagement.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID := c.Param("id")
		tree, err := h.engagement.CommentTree(c.Request.Context(), target, targetID)
		if err != nil {
			respondError(c, h.logger, logging.ChannelEngagement, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"targetType": target,
			"targetId":   targetID,
			"comments":   tree,
			"count":      len(tree),
		})
	}
}

// PostComment handles POST /api/v1/{stories,pages}/:id/comments
func (h *EngagementHandlers) PostComment(target engagement.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID := c.Param("id")
		start := time.Now()
		marker := h.perfTracker.StartOperation("post_comment_request", targetID)
		defer marker.Complete()
		h.logger.Engagement().Debug("Received post comment request", "method", c.Request.Method, "path", c.Request.URL.Path, "targetType", target, "targetId", targetID)

		var input engagement.CommentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			marker.SetSuccess(false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		comment, err := h.engagement.PostComment(c.Request.Context(), target, targetID, input)
		if err != nil {
			marker.SetError(err)
			respondError(c, h.logger, logging.ChannelEngagement, err)
			return
		}

		marker.SetSuccess(true)
		h.logger.Perf().Info("Performance for PostComment request", "duration", time.Since(start), "targetType", target, "targetId", targetID, "success", true)

		c.JSON(http.StatusCreated, gin.H{"comment": comment})
	}
}

// GetReplies handles GET /api/v1/comments/:id/replies
func (h *EngagementHandlers) GetReplies(c *gin.Context) {
	commentID := c.Param("id")
	replies, err := h.engagement.Replies(c.Request.Context(), commentID)
	if err != nil {
		respondError(c, h.logger, logging.ChannelEngagement, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"commentId": commentID,
		"replies":   replies,
		"count":     len(replies),
	})
}
