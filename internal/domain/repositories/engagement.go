package repositories

import (
	"context"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
)

type LikeRepository interface {
	// Toggle removes the session's like on the target if present, otherwise inserts
	// it. It returns whether the target is liked afterwards.
	Toggle(ctx context.Context, like *engagement.Like) (bool, error)
	Count(ctx context.Context, targetType engagement.TargetType, targetID string) (int, error)
	Exists(ctx context.Context, targetType engagement.TargetType, targetID, session string) (bool, error)
}

type CommentRepository interface {
	FindByID(ctx context.Context, id string) (*engagement.Comment, error)
	// FindTopLevel returns comments without a parent, newest first.
	FindTopLevel(ctx context.Context, targetType engagement.TargetType, targetID string) ([]*engagement.Comment, error)
	// FindReplies returns the direct children of the given parents, oldest first.
	FindReplies(ctx context.Context, parentIDs []string) ([]*engagement.Comment, error)
	Store(ctx context.Context, comment *engagement.Comment) error
}

type ProgressRepository interface {
	Find(ctx context.Context, session, storyID string) (*engagement.ReadingProgress, error)
	// Save stores progress only when its Seq is greater than the stored Seq and
	// reports whether it was applied.
	Save(ctx context.Context, progress *engagement.ReadingProgress) (bool, error)
}
