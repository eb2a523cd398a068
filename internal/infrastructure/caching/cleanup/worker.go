// Package cleanup provides background worker
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache  interfaces.ContentCache
	config *Config
	logger *logging.ChanneledLogger
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.ContentCache, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Start runs the cleanup loop on the configured interval until ctx is cancelled.
// A non-positive interval disables the worker.
func (w *Worker) Start(ctx context.Context) {
	if w.config.CleanupInterval <= 0 {
		w.logger.Cache().Info("Cache cleanup worker disabled")
		return
	}

	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case now := <-ticker.C:
			w.performCleanup(now)
		}
	}
}

func (w *Worker) performCleanup(now time.Time) int {
	start := time.Now()
	cleaned := w.cache.PurgeExpired(now)
	duration := time.Since(start)

	if cleaned > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "cleaned", cleaned, "duration", duration)
	}
	if w.config.VerboseReporting {
		stats := w.cache.Stats()
		w.logger.Cache().Info("Cache report",
			"chapterLists", stats.ChapterLists, "pageLists", stats.PageLists,
			"hits", stats.Hits, "misses", stats.Misses)
	}
	return cleaned
}
