// Package engagement provides the concrete SQL-based implementations of
// the engagement repositories (Like, Comment, Progress).
package engagement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
)

// SQLLikeRepository is the SQL-based implementation of the LikeRepository.
type SQLLikeRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLLikeRepository creates a new instance of the repository.
func NewSQLLikeRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLLikeRepository {
	return &SQLLikeRepository{
		db:     db,
		logger: logger,
	}
}

// Toggle deletes the session's like if one exists, otherwise inserts it. A unique
// violation from a concurrent insert means the like is already there, so it is
// reported as liked rather than as an error.
func (r *SQLLikeRepository) Toggle(ctx context.Context, like *engagement.Like) (bool, error) {
	start := time.Now()
	session := logging.MaskSession(like.UserSession)
	r.logger.Database().Debug("Toggling like", "targetType", like.TargetType, "targetId", like.TargetID, "session", session)

	var liked bool
	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM likes WHERE target_type = ? AND target_id = ? AND user_session = ?`,
			string(like.TargetType), like.TargetID, like.UserSession).Scan(&existingID)

		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE id = ?`, existingID); err != nil {
				return fmt.Errorf("failed to delete like: %w", err)
			}
			liked = false
			return nil
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("failed to check like: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (id, target_type, target_id, user_session, created_at) VALUES (?, ?, ?, ?, ?)`,
			like.ID, string(like.TargetType), like.TargetID, like.UserSession, database.FormatTime(like.CreatedAt))
		if err != nil && !database.IsUniqueViolation(err) {
			return fmt.Errorf("failed to insert like: %w", err)
		}
		if err != nil {
			r.logger.Database().Warn("Concurrent like resolved as liked", "targetId", like.TargetID, "session", session)
		}
		liked = true
		return nil
	})
	if err != nil {
		r.logger.Database().Error("Like toggle failed", "error", err.Error(), "targetId", like.TargetID)
		return false, database.Classify("toggle like", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Like toggled", "targetType", like.TargetType, "targetId", like.TargetID, "liked", liked, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "LIKE_TOGGLE", duration, like.TargetID)
	return liked, nil
}

// Count returns the number of likes on a target.
func (r *SQLLikeRepository) Count(ctx context.Context, targetType engagement.TargetType, targetID string) (int, error) {
	const query = `SELECT COUNT(*) FROM likes WHERE target_type = ? AND target_id = ?`

	start := time.Now()
	var count int
	if err := r.db.QueryRowContext(ctx, query, string(targetType), targetID).Scan(&count); err != nil {
		r.logger.Database().Error("Like count failed", "error", err.Error(), "targetId", targetID)
		return 0, database.Classify("count likes", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), targetID)
	return count, nil
}

// Exists reports whether the session has liked the target.
func (r *SQLLikeRepository) Exists(ctx context.Context, targetType engagement.TargetType, targetID, session string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM likes WHERE target_type = ? AND target_id = ? AND user_session = ?)`

	var exists int
	if err := r.db.QueryRowContext(ctx, query, string(targetType), targetID, session).Scan(&exists); err != nil {
		r.logger.Database().Error("Like lookup failed", "error", err.Error(), "targetId", targetID)
		return false, database.Classify("check like", err)
	}
	return exists == 1, nil
}
