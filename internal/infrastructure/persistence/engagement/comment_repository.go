package engagement

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
)

// SQLCommentRepository is the SQL-based implementation of the CommentRepository.
type SQLCommentRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLCommentRepository creates a new instance of the repository.
func NewSQLCommentRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLCommentRepository {
	return &SQLCommentRepository{
		db:     db,
		logger: logger,
	}
}

const commentColumns = `id, target_type, target_id, parent_comment_id, user_name, content, created_at`

// FindByID retrieves a comment by its identifier.
func (r *SQLCommentRepository) FindByID(ctx context.Context, id string) (*engagement.Comment, error) {
	const query = `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading comment by ID", "id", id)

	comment, err := r.scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Database().Debug("Comment not found by ID", "id", id)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load comment by ID", "error", err.Error(), "id", id)
		return nil, database.Classify("load comment", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), id)
	return comment, nil
}

// FindTopLevel returns a target's root comments, newest first.
func (r *SQLCommentRepository) FindTopLevel(ctx context.Context, targetType engagement.TargetType, targetID string) ([]*engagement.Comment, error) {
	const query = `SELECT ` + commentColumns + ` FROM comments
		WHERE target_type = ? AND target_id = ? AND parent_comment_id IS NULL
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, string(targetType), targetID)
}

// FindReplies returns the direct replies to any of parentIDs, oldest first.
func (r *SQLCommentRepository) FindReplies(ctx context.Context, parentIDs []string) ([]*engagement.Comment, error) {
	if len(parentIDs) == 0 {
		return []*engagement.Comment{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(parentIDs)), ",")
	query := `SELECT ` + commentColumns + ` FROM comments
		WHERE parent_comment_id IN (` + placeholders + `)
		ORDER BY created_at ASC, id ASC`

	args := make([]any, len(parentIDs))
	for i, id := range parentIDs {
		args[i] = id
	}
	return r.list(ctx, query, args...)
}

func (r *SQLCommentRepository) list(ctx context.Context, query string, args ...any) ([]*engagement.Comment, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to query comments", "error", err.Error())
		return nil, database.Classify("list comments", err)
	}
	defer rows.Close()

	comments := []*engagement.Comment{}
	for rows.Next() {
		comment, err := r.scanComment(rows)
		if err != nil {
			return nil, database.Classify("scan comment", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list comments", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Comments loaded", "count", len(comments), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "comments")
	return comments, nil
}

// Store inserts a new comment.
func (r *SQLCommentRepository) Store(ctx context.Context, comment *engagement.Comment) error {
	const query = `INSERT INTO comments (` + commentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Storing comment", "id", comment.ID, "targetType", comment.TargetType, "targetId", comment.TargetID)

	_, err := r.db.ExecContext(ctx, query, comment.ID, string(comment.TargetType), comment.TargetID,
		comment.ParentCommentID, comment.UserName, comment.Content, database.FormatTime(comment.CreatedAt))
	if err != nil {
		r.logger.Database().Error("Failed to store comment", "error", err.Error(), "id", comment.ID)
		return database.Classify("store comment", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Comment stored", "id", comment.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, comment.TargetID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLCommentRepository) scanComment(row rowScanner) (*engagement.Comment, error) {
	var (
		comment    engagement.Comment
		targetType string
		parentID   sql.NullString
		createdAt  string
	)
	if err := row.Scan(&comment.ID, &targetType, &comment.TargetID, &parentID,
		&comment.UserName, &comment.Content, &createdAt); err != nil {
		return nil, err
	}
	comment.TargetType = engagement.TargetType(targetType)
	if parentID.Valid {
		comment.ParentCommentID = &parentID.String
	}

	var err error
	if comment.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &comment, nil
}
