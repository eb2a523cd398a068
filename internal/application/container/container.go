// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	contentpersistence "github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
	engagementpersistence "github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/transcription"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Reader services
	HierarchyService  *services.HierarchyService
	NavigationService *services.NavigationService
	EngagementService *services.EngagementService
	ReaderService     *services.ReaderService
	ProgressService   *services.ProgressService
	SettingsService   *services.SettingsService
	ContactService    *services.ContactService

	// Admin services
	AuthService      *services.AuthService
	AuthoringService *services.AuthoringService

	// Infrastructure
	DB           *database.DB
	ContentCache *stores.ContentStore
	CacheCleanup *cleanup.Worker
	LiveHub      *messaging.LiveHub
	Logger       *logging.ChanneledLogger
	PerfTracker  *performance.Tracker
	Metrics      *metrics.Metrics
}

// Integrations carries the optional external services. A nil field disables the
// feature that depends on it.
type Integrations struct {
	Covers      services.CoverProcessor
	Transcriber services.Transcriber
	Mailer      services.Mailer
}

// IntegrationsFromConfig builds the external service clients that are configured.
func IntegrationsFromConfig(logger *logging.ChanneledLogger) Integrations {
	var in Integrations

	in.Covers = media.NewCoverProcessor(config.MediaPath, logger)

	if transcriber, err := transcription.NewAssemblyAITranscriber(config.AssemblyAIAPIKey, config.TranscribeTimeout, logger); err == nil {
		in.Transcriber = transcriber
	} else {
		logger.Startup().Info("Audio import disabled", "reason", err.Error())
	}

	if mailer, err := email.NewResendClient(config.ResendAPIKey, config.ContactEmailTo, config.ContactEmailFrom, config.ContactFromName); err == nil {
		in.Mailer = mailer
	} else {
		logger.Startup().Info("Contact form disabled", "reason", err.Error())
	}

	return in
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker, m *metrics.Metrics, in Integrations) (*Container, error) {
	catalogue, err := authoring.LoadCatalogue()
	if err != nil {
		return nil, fmt.Errorf("failed to load story templates: %w", err)
	}

	jwtSecret := config.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = security.GenerateSecureKey(64)
		if err != nil {
			return nil, err
		}
		logger.Startup().Warn("JWT_SECRET not set, admin tokens will not survive a restart")
	}

	contentCache := stores.NewContentStore(config.ContentCacheTTL)
	storyRepo := contentpersistence.NewStoryRepository(db, contentCache, logger)
	chapterRepo := contentpersistence.NewChapterRepository(db, contentCache, logger)
	pageRepo := contentpersistence.NewPageRepository(db, contentCache, logger)
	likeRepo := engagementpersistence.NewSQLLikeRepository(db, logger)
	commentRepo := engagementpersistence.NewSQLCommentRepository(db, logger)
	progressRepo := engagementpersistence.NewSQLProgressRepository(db, logger)

	hub := messaging.NewLiveHub(config.LiveWriteTimeout, config.LivePingInterval, m, logger)

	hierarchy := services.NewHierarchyService(storyRepo, chapterRepo, pageRepo, logger)
	engagementService := services.NewEngagementService(likeRepo, commentRepo, storyRepo, hierarchy, hub, m, logger, services.EngagementOptionsFromConfig())
	contactService := services.NewContactService(in.Mailer, logger)

	return &Container{
		HierarchyService:  hierarchy,
		NavigationService: services.NewNavigationService(hierarchy, m, logger),
		EngagementService: engagementService,
		ReaderService:     services.NewReaderService(hierarchy, engagementService, logger),
		ProgressService:   services.NewProgressService(progressRepo, hierarchy, m, logger),
		SettingsService:   services.NewSettingsService(contactService.Enabled(), in.Transcriber != nil),
		ContactService:    contactService,

		AuthService: services.NewAuthService(config.AdminPassword, jwtSecret, config.AdminTokenTTL, logger, perfTracker),
		AuthoringService: services.NewAuthoringService(
			storyRepo, chapterRepo, pageRepo, hierarchy,
			in.Covers, in.Transcriber, catalogue, config.SplitWordsPerPage, m, logger,
		),

		DB:           db,
		ContentCache: contentCache,
		CacheCleanup: cleanup.NewWorker(contentCache, cleanup.NewConfig(), logger),
		LiveHub:      hub,
		Logger:       logger,
		PerfTracker:  perfTracker,
		Metrics:      m,
	}, nil
}
