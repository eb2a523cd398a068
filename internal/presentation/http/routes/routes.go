// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/storyreader-go/internal/application/container"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware(container.Metrics))
	r.Use(middleware.CORSMiddleware(config.CORSAllowedOrigins))
	r.Use(middleware.SessionMiddleware())

	r.Static("/media", config.MediaPath)

	// Initialize handlers
	contentHandlers := handlers.NewContentHandlers(container.HierarchyService, container.ReaderService, container.NavigationService, container.Logger, container.PerfTracker)
	engagementHandlers := handlers.NewEngagementHandlers(container.EngagementService, container.Logger, container.PerfTracker)
	progressHandlers := handlers.NewProgressHandlers(container.ProgressService, container.Logger)
	authoringHandlers := handlers.NewAuthoringHandlers(container.AuthoringService, container.Logger, container.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	sessionHandlers := handlers.NewSessionHandlers(container.SettingsService, container.Logger)
	contactHandlers := handlers.NewContactHandlers(container.ContactService, container.Logger)
	liveHandlers := handlers.NewLiveHandlers(container.HierarchyService, container.LiveHub, config.CORSAllowedOrigins, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container.DB, container.ContentCache, container.Metrics, container.PerfTracker, container.Logger)

	metricsHandler := gin.WrapH(promhttp.HandlerFor(container.Metrics.Registry, promhttp.HandlerOpts{}))
	r.GET("/metrics", metricsHandler)

	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandlers.GetHealth)
		api.GET("/metrics", metricsHandler)
		api.POST("/session", sessionHandlers.PostSession)
		api.GET("/settings", sessionHandlers.GetSettings)
		api.POST("/contact", contactHandlers.PostContact)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Story routes
		api.GET("/stories", contentHandlers.ListStories)
		api.GET("/stories/suggestions", contentHandlers.SuggestTitles)
		api.GET("/stories/:id", contentHandlers.GetStory)
		api.GET("/stories/:id/chapters", contentHandlers.ListChapters)
		api.GET("/stories/:id/like", engagementHandlers.GetLikes(engagement.TargetStory))
		api.POST("/stories/:id/like", engagementHandlers.ToggleLike(engagement.TargetStory))
		api.GET("/stories/:id/comments", engagementHandlers.ListComments(engagement.TargetStory))
		api.POST("/stories/:id/comments", engagementHandlers.PostComment(engagement.TargetStory))
		api.GET("/stories/:id/progress", progressHandlers.GetProgress)
		api.PUT("/stories/:id/progress", progressHandlers.PutProgress)
		api.GET("/stories/:id/live", liveHandlers.Connect)

		// Chapter routes
		api.GET("/chapters/:id/pages", contentHandlers.ListPages)

		// Page routes
		api.GET("/pages/latest", contentHandlers.GetLatestPage)
		api.GET("/pages/:id", contentHandlers.GetPage)
		api.GET("/pages/:id/next", contentHandlers.NextPage)
		api.GET("/pages/:id/prev", contentHandlers.PreviousPage)
		api.GET("/pages/:id/like", engagementHandlers.GetLikes(engagement.TargetPage))
		api.POST("/pages/:id/like", engagementHandlers.ToggleLike(engagement.TargetPage))
		api.GET("/pages/:id/comments", engagementHandlers.ListComments(engagement.TargetPage))
		api.POST("/pages/:id/comments", engagementHandlers.PostComment(engagement.TargetPage))

		// Comment routes
		api.GET("/comments/:id/like", engagementHandlers.GetLikes(engagement.TargetComment))
		api.POST("/comments/:id/like", engagementHandlers.ToggleLike(engagement.TargetComment))
		api.GET("/comments/:id/replies", engagementHandlers.GetReplies)

		// Authoring, admin capability required
		admin := api.Group("")
		admin.Use(middleware.AdminMiddleware(container.AuthService, container.Logger))
		{
			admin.POST("/stories", authoringHandlers.CreateStory)
			admin.POST("/stories/import", authoringHandlers.ImportStory)
			admin.POST("/stories/generate", authoringHandlers.GenerateStory)
			admin.DELETE("/stories/:id", authoringHandlers.DeleteStory)
			admin.PUT("/stories/:id/cover", authoringHandlers.SetCover)
			admin.POST("/stories/:id/chapters", authoringHandlers.CreateChapter)
			admin.DELETE("/chapters/:id", authoringHandlers.DeleteChapter)
			admin.POST("/chapters/:id/pages", authoringHandlers.CreatePage)
			admin.DELETE("/pages/:id", authoringHandlers.DeletePage)
		}
	}

	return r
}
