package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/repositories"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
)

// ProgressService remembers where each session is in each story. Updates carry
// a client sequence number so a late response cannot rewind a newer position.
type ProgressService struct {
	progressRepo repositories.ProgressRepository
	hierarchy    *HierarchyService
	metrics      *metrics.Metrics
	logger       *logging.ChanneledLogger
}

// NewProgressService creates a new progress service
func NewProgressService(progressRepo repositories.ProgressRepository, hierarchy *HierarchyService, m *metrics.Metrics, logger *logging.ChanneledLogger) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		hierarchy:    hierarchy,
		metrics:      m,
		logger:       logger,
	}
}

// Save records pageID as the session's position in storyID. It reports false when
// a position with an equal or higher seq is already stored.
func (s *ProgressService) Save(ctx context.Context, session, storyID, pageID string, seq int64) (bool, error) {
	if err := validateSession(session); err != nil {
		return false, err
	}
	if pageID == "" {
		return false, apperr.Invalid("pageId", "must not be empty")
	}
	if seq < 0 {
		return false, apperr.Invalid("seq", "must not be negative")
	}

	owner, err := s.hierarchy.StoryIDForPage(ctx, pageID)
	if err != nil {
		return false, err
	}
	if owner != storyID {
		return false, apperr.Invalid("pageId", "page does not belong to this story")
	}

	applied, err := s.progressRepo.Save(ctx, &engagement.ReadingProgress{
		UserSession: session,
		StoryID:     storyID,
		PageID:      pageID,
		Seq:         seq,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to save reading progress: %w", err)
	}
	if !applied {
		s.metrics.StaleProgressTotal.Inc()
		s.logger.Engagement().Debug("Stale reading progress ignored", "storyId", storyID, "seq", seq, "session", logging.MaskSession(session))
	}
	return applied, nil
}

// Get returns the stored position or ErrNotFound.
func (s *ProgressService) Get(ctx context.Context, session, storyID string) (*engagement.ReadingProgress, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.Find(ctx, session, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading progress: %w", err)
	}
	if progress == nil {
		return nil, apperr.NotFound("progress", storyID)
	}
	return progress, nil
}
