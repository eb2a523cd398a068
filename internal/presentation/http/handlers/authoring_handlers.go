package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ChapterRequest is the body of a chapter creation request
type ChapterRequest struct {
	Title string `json:"title"`
}

// CoverRequest carries a base64 image, optionally as a data URL
type CoverRequest struct {
	Image string `json:"image" binding:"required"`
}

// AuthoringHandlers contains the admin-only content management handlers
type AuthoringHandlers struct {
	authoring   *services.AuthoringService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthoringHandlers creates authoring handlers with injected dependencies
func NewAuthoringHandlers(authoringService *services.AuthoringService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthoringHandlers {
	return &AuthoringHandlers{
		authoring:   authoringService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// CreateStory handles POST /api/v1/stories
func (h *AuthoringHandlers) CreateStory(c *gin.Context) {
	var input services.StoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	story, err := h.authoring.CreateStory(c.Request.Context(), middleware.GetCapability(c), input)
	if err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"story": story})
}

// DeleteStory handles DELETE /api/v1/stories/:id
func (h *AuthoringHandlers) DeleteStory(c *gin.Context) {
	storyID := c.Param("id")
	if err := h.authoring.DeleteStory(c.Request.Context(), middleware.GetCapability(c), storyID); err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": storyID})
}

// SetCover handles PUT /api/v1/stories/:id/cover
func (h *AuthoringHandlers) SetCover(c *gin.Context) {
	storyID := c.Param("id")
	start := time.Now()
	marker := h.perfTracker.StartOperation("set_cover_request", storyID)
	defer marker.Complete()

	var req CoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	url, err := h.authoring.SetCover(c.Request.Context(), middleware.GetCapability(c), storyID, req.Image)
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for SetCover request", "duration", time.Since(start), "storyId", storyID, "success", true)

	c.JSON(http.StatusOK, gin.H{"storyId": storyID, "coverImageUrl": url})
}

// ImportStory handles POST /api/v1/stories/import
func (h *AuthoringHandlers) ImportStory(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("import_story_request", "stories")
	defer marker.Complete()
	h.logger.Authoring().Debug("Received import story request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var input services.ImportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.authoring.ImportStory(c.Request.Context(), middleware.GetCapability(c), input)
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for ImportStory request", "duration", time.Since(start), "format", input.Format, "pages", result.Pages, "success", true)

	c.JSON(http.StatusCreated, result)
}

// GenerateStory handles POST /api/v1/stories/generate
func (h *AuthoringHandlers) GenerateStory(c *gin.Context) {
	result, err := h.authoring.GenerateStory(c.Request.Context(), middleware.GetCapability(c))
	if err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CreateChapter handles POST /api/v1/stories/:id/chapters
func (h *AuthoringHandlers) CreateChapter(c *gin.Context) {
	var req ChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	chapter, err := h.authoring.CreateChapter(c.Request.Context(), middleware.GetCapability(c), c.Param("id"), req.Title)
	if err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chapter": chapter})
}

// DeleteChapter handles DELETE /api/v1/chapters/:id
func (h *AuthoringHandlers) DeleteChapter(c *gin.Context) {
	chapterID := c.Param("id")
	if err := h.authoring.DeleteChapter(c.Request.Context(), middleware.GetCapability(c), chapterID); err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": chapterID})
}

// CreatePage handles POST /api/v1/chapters/:id/pages
func (h *AuthoringHandlers) CreatePage(c *gin.Context) {
	var input services.PageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	page, err := h.authoring.CreatePage(c.Request.Context(), middleware.GetCapability(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": page})
}

// DeletePage handles DELETE /api/v1/pages/:id
func (h *AuthoringHandlers) DeletePage(c *gin.Context) {
	pageID := c.Param("id")
	if err := h.authoring.DeletePage(c.Request.Context(), middleware.GetCapability(c), pageID); err != nil {
		respondError(c, h.logger, logging.ChannelAuthoring, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": pageID})
}
