// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/application/container"
	schema "github.com/AtRiskMedia/storyreader-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Options controls the serve command.
type Options struct {
	Port string
	// Seed inserts the Demo story when the database has no stories.
	Seed bool
}

// NewLogger builds the channeled logger from configuration.
func NewLogger() (*logging.ChanneledLogger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.DefaultLevel = logging.ParseLevel(config.LogLevel)
	cfg.JSONFormat = config.LogJSON
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDirectory
	return logging.NewChanneledLogger(cfg)
}

// OpenDatabase connects to the configured store and applies the schema.
func OpenDatabase(ctx context.Context, logger *logging.ChanneledLogger, seed bool) (*database.DB, error) {
	start := time.Now()

	db, err := database.NewConnectionWithLogger(database.OptionsFromConfig(), logger)
	if err != nil {
		return nil, err
	}

	tableCreator := schema.NewTableCreator()
	if err := tableCreator.CreateSchema(ctx, db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	logger.LogStartupPhase("schema", time.Since(start), true, map[string]any{"turso": db.UseTurso})

	if seed {
		seeded, err := tableCreator.SeedDemoContent(ctx, db.DB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to seed demo content: %w", err)
		}
		logger.Startup().Info("Demo content check complete", "seeded", seeded)
	}

	return db, nil
}

// Bootstrap opens the database and wires the container. The returned cleanup
// closes the database and flushes the logger.
func Bootstrap(ctx context.Context, seed bool) (*container.Container, func(), error) {
	logger, err := NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := OpenDatabase(ctx, logger, seed)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}

	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	appContainer, err := container.NewContainer(db, logger, perfTracker, metrics.NewMetrics(), container.IntegrationsFromConfig(logger))
	if err != nil {
		db.Close()
		logger.Close()
		return nil, nil, fmt.Errorf("failed to build container: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Shutdown().Error("Error closing database", "error", err.Error())
		}
		logger.Close()
	}
	return appContainer, cleanup, nil
}

// Initialize performs the complete startup sequence and blocks until the
// process receives SIGINT or SIGTERM.
func Initialize(opts Options) error {
	setupLogging()
	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("Initializing story reader...")
	appContainer, cleanup, err := Bootstrap(ctx, opts.Seed)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	go appContainer.LiveHub.Run(ctx)
	logger.Startup().Info("Live hub started")
	go appContainer.CacheCleanup.Start(ctx)

	port := opts.Port
	if port == "" {
		port = config.Port
	}
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			return err
		}
	}

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Closing the hub first sends close frames to websocket readers.
	cancelBackgroundTasks()
	<-appContainer.LiveHub.Done()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
