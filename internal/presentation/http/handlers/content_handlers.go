package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ContentHandlers serves the story hierarchy and page navigation
type ContentHandlers struct {
	hierarchy   *services.HierarchyService
	reader      *services.ReaderService
	navigation  *services.NavigationService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewContentHandlers creates content handlers with injected dependencies
func NewContentHandlers(hierarchy *services.HierarchyService, reader *services.ReaderService, navigation *services.NavigationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ContentHandlers {
	return &ContentHandlers{
		hierarchy:   hierarchy,
		reader:      reader,
		navigation:  navigation,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// ListStories handles GET /api/v1/stories?q=
func (h *ContentHandlers) ListStories(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("list_stories_request", "stories")
	defer marker.Complete()
	query := c.Query("q")
	h.logger.Content().Debug("Received list stories request", "method", c.Request.Method, "path", c.Request.URL.Path, "query", query)

	stories, err := h.hierarchy.ListStories(c.Request.Context(), query)
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for ListStories request", "duration", time.Since(start), "count", len(stories), "success", true)

	c.JSON(http.StatusOK, gin.H{
		"stories": stories,
		"count":   len(stories),
	})
}

// SuggestTitles handles GET /api/v1/stories/suggestions?q=&limit=
func (h *ContentHandlers) SuggestTitles(c *gin.Context) {
	limit := services.DefaultSuggestionLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer", "field": "limit"})
			return
		}
		limit = parsed
	}

	titles, err := h.hierarchy.SuggestTitles(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": titles})
}

// GetStory handles GET /api/v1/stories/:id
func (h *ContentHandlers) GetStory(c *gin.Context) {
	storyID := c.Param("id")
	story, err := h.hierarchy.GetStory(c.Request.Context(), storyID)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": story})
}

// ListChapters handles GET /api/v1/stories/:id/chapters
func (h *ContentHandlers) ListChapters(c *gin.Context) {
	storyID := c.Param("id")
	chapters, err := h.hierarchy.ListChapters(c.Request.Context(), storyID)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"storyId":  storyID,
		"chapters": chapters,
		"count":    len(chapters),
	})
}

// ListPages handles GET /api/v1/chapters/:id/pages
func (h *ContentHandlers) ListPages(c *gin.Context) {
	chapterID := c.Param("id")
	pages, err := h.hierarchy.ListPages(c.Request.Context(), chapterID)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chapterId": chapterID,
		"pages":     pages,
		"count":     len(pages),
	})
}

// GetLatestPage handles GET /api/v1/pages/latest
func (h *ContentHandlers) GetLatestPage(c *gin.Context) {
	page, err := h.hierarchy.LatestPage(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// GetPage handles GET /api/v1/pages/:id. The response bundles the page with its
// like state for the caller's session and its comment tree, and counts a read.
func (h *ContentHandlers) GetPage(c *gin.Context) {
	pageID := c.Param("id")
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_page_request", pageID)
	defer marker.Complete()
	h.logger.Content().Debug("Received get page request", "method", c.Request.Method, "path", c.Request.URL.Path, "pageId", pageID)

	view, err := h.reader.ViewPage(c.Request.Context(), pageID, middleware.GetSession(c))
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}

	h.logger.Content().Info("Get page request completed", "pageId", pageID, "storyId", view.StoryID, "duration", time.Since(start))
	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetPage request", "duration", time.Since(start), "pageId", pageID, "success", true)

	c.JSON(http.StatusOK, view)
}

// NextPage handles GET /api/v1/pages/:id/next
func (h *ContentHandlers) NextPage(c *gin.Context) {
	h.navigate(c, services.Forward)
}

// PreviousPage handles GET /api/v1/pages/:id/prev
func (h *ContentHandlers) PreviousPage(c *gin.Context) {
	h.navigate(c, services.Back)
}

func (h *ContentHandlers) navigate(c *gin.Context, dir services.Direction) {
	pageID := c.Param("id")
	start := time.Now()
	marker := h.perfTracker.StartOperation("navigate_"+dir.String()+"_request", pageID)
	defer marker.Complete()

	var (
		result *services.NavigationResult
		err    error
	)
	if dir == services.Forward {
		result, err = h.navigation.Next(c.Request.Context(), pageID)
	} else {
		result, err = h.navigation.Previous(c.Request.Context(), pageID)
	}
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelContent, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for navigation request", "direction", dir.String(), "duration", time.Since(start), "pageId", pageID, "endOfStory", result.EndOfStory)

	c.JSON(http.StatusOK, result)
}
