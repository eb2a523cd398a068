package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/repositories"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
)

// EventPublisher fans engagement events out to readers of a story.
type EventPublisher interface {
	Publish(event engagement.LiveEvent)
}

// EngagementOptions tunes validation limits and counter behavior.
type EngagementOptions struct {
	CounterBumps      bool
	MaxCommentLength  int
	MaxUserNameLength int
	// TreeMaxDepth limits reply levels loaded by CommentTree; 0 means unlimited.
	TreeMaxDepth int
}

// EngagementOptionsFromConfig reads the options from package configuration.
func EngagementOptionsFromConfig() EngagementOptions {
	return EngagementOptions{
		CounterBumps:      config.StoryCounterBumps,
		MaxCommentLength:  config.MaxCommentLength,
		MaxUserNameLength: config.MaxUserNameLength,
		TreeMaxDepth:      config.CommentTreeMaxDepth,
	}
}

// EngagementService handles likes, comments and the decorative story counters.
type EngagementService struct {
	likeRepo    repositories.LikeRepository
	commentRepo repositories.CommentRepository
	storyRepo   repositories.StoryRepository
	hierarchy   *HierarchyService
	publisher   EventPublisher
	metrics     *metrics.Metrics
	logger      *logging.ChanneledLogger
	opts        EngagementOptions
}

// NewEngagementService creates a new engagement service
func NewEngagementService(
	likeRepo repositories.LikeRepository,
	commentRepo repositories.CommentRepository,
	storyRepo repositories.StoryRepository,
	hierarchy *HierarchyService,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *logging.ChanneledLogger,
	opts EngagementOptions,
) *EngagementService {
	return &EngagementService{
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		storyRepo:   storyRepo,
		hierarchy:   hierarchy,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		opts:        opts,
	}
}

// ToggleLike flips the session's like on a story, page or comment and returns the new state.
func (s *EngagementService) ToggleLike(ctx context.Context, targetType engagement.TargetType, targetID, session string) (*engagement.LikeState, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}
	if !targetType.Valid() {
		return nil, apperr.Invalid("targetType", fmt.Sprintf("unsupported target %q", targetType))
	}

	storyID, err := s.resolveStory(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.Toggle(ctx, &engagement.Like{
		ID:          security.GenerateULID(),
		TargetType:  targetType,
		TargetID:    targetID,
		UserSession: session,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like on %s %s: %w", targetType, targetID, err)
	}

	count, err := s.likeRepo.Count(ctx, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes on %s %s: %w", targetType, targetID, err)
	}

	state := &engagement.LikeState{TargetType: targetType, TargetID: targetID, Liked: liked, Count: count}
	s.metrics.RecordLike(string(targetType), liked)
	s.logger.Engagement().Info("Like toggled", "targetType", targetType, "targetId", targetID,
		"liked", liked, "count", count, "session", logging.MaskSession(session))

	if liked && targetType != engagement.TargetComment {
		s.bump(ctx, storyID, content.CounterLikes)
	}
	s.publish(engagement.LiveEvent{
		Type: engagement.EventLikeToggled, StoryID: storyID,
		TargetType: targetType, TargetID: targetID, Likes: state,
	})
	return state, nil
}

// LikeState returns the like count of a target and whether session has liked it.
// An empty session reads as not liked. A missing target is ErrNotFound.
func (s *EngagementService) LikeState(ctx context.Context, targetType engagement.TargetType, targetID, session string) (*engagement.LikeState, error) {
	if !targetType.Valid() {
		return nil, apperr.Invalid("targetType", fmt.Sprintf("unsupported target %q", targetType))
	}
	if _, err := s.resolveStory(ctx, targetType, targetID); err != nil {
		return nil, err
	}

	count, err := s.likeRepo.Count(ctx, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes on %s %s: %w", targetType, targetID, err)
	}

	liked := false
	if strings.TrimSpace(session) != "" {
		if liked, err = s.likeRepo.Exists(ctx, targetType, targetID, session); err != nil {
			return nil, fmt.Errorf("failed to check like on %s %s: %w", targetType, targetID, err)
		}
	}
	return &engagement.LikeState{TargetType: targetType, TargetID: targetID, Liked: liked, Count: count}, nil
}

// PostComment validates and stores a comment or reply on a story or page.
func (s *EngagementService) PostComment(ctx context.Context, targetType engagement.TargetType, targetID string, input engagement.CommentInput) (*engagement.Comment, error) {
	if !targetType.Commentable() {
		return nil, apperr.Invalid("targetType", fmt.Sprintf("comments are not allowed on %q", targetType))
	}
	userName := strings.TrimSpace(input.UserName)
	body := strings.TrimSpace(input.Content)
	if userName == "" {
		return nil, apperr.Invalid("userName", "must not be empty")
	}
	if body == "" {
		return nil, apperr.Invalid("content", "must not be empty")
	}
	if s.opts.MaxUserNameLength > 0 && utf8.RuneCountInString(userName) > s.opts.MaxUserNameLength {
		return nil, apperr.Invalid("userName", fmt.Sprintf("must be at most %d characters", s.opts.MaxUserNameLength))
	}
	if s.opts.MaxCommentLength > 0 && utf8.RuneCountInString(body) > s.opts.MaxCommentLength {
		return nil, apperr.Invalid("content", fmt.Sprintf("must be at most %d characters", s.opts.MaxCommentLength))
	}

	storyID, err := s.resolveStory(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if input.ParentCommentID != nil && strings.TrimSpace(*input.ParentCommentID) != "" {
		parent, err := s.commentRepo.FindByID(ctx, *input.ParentCommentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
		if parent == nil {
			return nil, apperr.NotFound("comment", *input.ParentCommentID)
		}
		if parent.TargetType != targetType || parent.TargetID != targetID {
			return nil, apperr.Invalid("parentCommentId", "parent belongs to a different target")
		}
		parentID = &parent.ID
	}

	comment := &engagement.Comment{
		ID:              security.GenerateULID(),
		TargetType:      targetType,
		TargetID:        targetID,
		ParentCommentID: parentID,
		UserName:        userName,
		Content:         body,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.commentRepo.Store(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to post comment: %w", err)
	}

	s.metrics.RecordComment(string(targetType))
	s.logger.Engagement().Info("Comment posted", "id", comment.ID, "targetType", targetType, "targetId", targetID, "reply", parentID != nil)

	s.bump(ctx, storyID, content.CounterComments)
	s.publish(engagement.LiveEvent{
		Type: engagement.EventCommentPosted, StoryID: storyID,
		TargetType: targetType, TargetID: targetID, Comment: comment,
	})
	return comment, nil
}

// CommentTree loads root comments newest first and attaches replies oldest first,
// one query per depth level.
func (s *EngagementService) CommentTree(ctx context.Context, targetType engagement.TargetType, targetID string) ([]*engagement.CommentNode, error) {
	if !targetType.Commentable() {
		return nil, apperr.Invalid("targetType", fmt.Sprintf("comments are not allowed on %q", targetType))
	}

	roots, err := s.commentRepo.FindTopLevel(ctx, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments on %s %s: %w", targetType, targetID, err)
	}

	tree := make([]*engagement.CommentNode, 0, len(roots))
	level := make(map[string]*engagement.CommentNode, len(roots))
	for _, c := range roots {
		node := &engagement.CommentNode{Comment: *c, Replies: []*engagement.CommentNode{}}
		tree = append(tree, node)
		level[c.ID] = node
	}

	for depth := 1; len(level) > 0; depth++ {
		if s.opts.TreeMaxDepth > 0 && depth > s.opts.TreeMaxDepth {
			break
		}

		parentIDs := make([]string, 0, len(level))
		for id := range level {
			parentIDs = append(parentIDs, id)
		}
		replies, err := s.commentRepo.FindReplies(ctx, parentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load replies at depth %d: %w", depth, err)
		}

		next := make(map[string]*engagement.CommentNode, len(replies))
		for _, r := range replies {
			parent, ok := level[*r.ParentCommentID]
			if !ok {
				continue
			}
			node := &engagement.CommentNode{Comment: *r, Depth: depth, Replies: []*engagement.CommentNode{}}
			parent.Replies = append(parent.Replies, node)
			next[r.ID] = node
		}
		level = next
	}
	return tree, nil
}

// Replies returns the direct replies to a comment, oldest first.
func (s *EngagementService) Replies(ctx context.Context, commentID string) ([]*engagement.Comment, error) {
	parent, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment %s: %w", commentID, err)
	}
	if parent == nil {
		return nil, apperr.NotFound("comment", commentID)
	}

	replies, err := s.commentRepo.FindReplies(ctx, []string{commentID})
	if err != nil {
		return nil, fmt.Errorf("failed to load replies to %s: %w", commentID, err)
	}
	return replies, nil
}

// RecordRead bumps the story's read counter for a page view.
func (s *EngagementService) RecordRead(ctx context.Context, storyID string) {
	s.bump(ctx, storyID, content.CounterReads)
}

// resolveStory checks the target exists and returns the story it belongs to.
func (s *EngagementService) resolveStory(ctx context.Context, targetType engagement.TargetType, targetID string) (string, error) {
	switch targetType {
	case engagement.TargetStory:
		story, err := s.hierarchy.GetStory(ctx, targetID)
		if err != nil {
			return "", err
		}
		return story.ID, nil
	case engagement.TargetPage:
		return s.hierarchy.StoryIDForPage(ctx, targetID)
	case engagement.TargetComment:
		comment, err := s.commentRepo.FindByID(ctx, targetID)
		if err != nil {
			return "", fmt.Errorf("failed to load comment %s: %w", targetID, err)
		}
		if comment == nil {
			return "", apperr.NotFound("comment", targetID)
		}
		return s.resolveStory(ctx, comment.TargetType, comment.TargetID)
	}
	return "", apperr.Invalid("targetType", fmt.Sprintf("unsupported target %q", targetType))
}

// bump is best-effort: failures are logged and never reach the caller.
func (s *EngagementService) bump(ctx context.Context, storyID string, field content.CounterField) {
	if !s.opts.CounterBumps || storyID == "" {
		return
	}
	if err := s.storyRepo.IncrementCounter(ctx, storyID, field); err != nil {
		level := s.logger.Engagement().Warn
		if errors.Is(err, apperr.ErrNotFound) {
			level = s.logger.Engagement().Debug
		}
		level("Story counter bump failed", "storyId", storyID, "field", field, "error", err.Error())
	}
}

func (s *EngagementService) publish(event engagement.LiveEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	s.publisher.Publish(event)
}

func validateSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return apperr.Invalid("session", "a reader session id is required")
	}
	return nil
}
