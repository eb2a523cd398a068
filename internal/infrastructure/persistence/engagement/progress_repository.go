package engagement

import (
	"context"
	"database/sql"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
)

// SQLProgressRepository is the SQL-based implementation of the ProgressRepository.
type SQLProgressRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLProgressRepository creates a new instance of the repository.
func NewSQLProgressRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLProgressRepository {
	return &SQLProgressRepository{
		db:     db,
		logger: logger,
	}
}

// Find returns the stored position of a session in a story.
func (r *SQLProgressRepository) Find(ctx context.Context, session, storyID string) (*engagement.ReadingProgress, error) {
	const query = `SELECT user_session, story_id, page_id, seq, updated_at FROM reading_progress
		WHERE user_session = ? AND story_id = ?`

	var (
		progress  engagement.ReadingProgress
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, session, storyID).
		Scan(&progress.UserSession, &progress.StoryID, &progress.PageID, &progress.Seq, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to load reading progress", "error", err.Error(), "storyId", storyID)
		return nil, database.Classify("load reading progress", err)
	}
	if progress.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Save upserts the progress row, leaving it untouched when the stored seq is not
// lower than the incoming one.
func (r *SQLProgressRepository) Save(ctx context.Context, progress *engagement.ReadingProgress) (bool, error) {
	const query = `INSERT INTO reading_progress (user_session, story_id, page_id, seq, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_session, story_id) DO UPDATE SET
			page_id = excluded.page_id,
			seq = excluded.seq,
			updated_at = excluded.updated_at
		WHERE excluded.seq > reading_progress.seq`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, progress.UserSession, progress.StoryID, progress.PageID,
		progress.Seq, database.FormatTime(progress.UpdatedAt))
	if err != nil {
		r.logger.Database().Error("Failed to save reading progress", "error", err.Error(), "storyId", progress.StoryID)
		return false, database.Classify("save reading progress", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, database.Classify("save reading progress", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Reading progress saved", "storyId", progress.StoryID, "seq", progress.Seq, "applied", affected > 0, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, progress.StoryID)
	return affected > 0, nil
}
