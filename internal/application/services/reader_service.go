package services

import (
	"context"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"golang.org/x/sync/errgroup"
)

// PageView is everything the reader needs to render a page.
type PageView struct {
	Page         *content.Page             `json:"page"`
	StoryID      string                    `json:"storyId"`
	InlineImages []string                  `json:"inlineImages"`
	Likes        *engagement.LikeState     `json:"likes"`
	Comments     []*engagement.CommentNode `json:"comments"`
}

// ReaderService assembles page views from the hierarchy and engagement services.
type ReaderService struct {
	hierarchy  *HierarchyService
	engagement *EngagementService
	logger     *logging.ChanneledLogger
}

// NewReaderService creates a new reader service
func NewReaderService(hierarchy *HierarchyService, engagementService *EngagementService, logger *logging.ChanneledLogger) *ReaderService {
	return &ReaderService{
		hierarchy:  hierarchy,
		engagement: engagementService,
		logger:     logger,
	}
}

// ViewPage loads the page, its like state and its comment tree concurrently and
// counts the read against the owning story. Any failed load fails the view.
func (s *ReaderService) ViewPage(ctx context.Context, pageID, session string) (*PageView, error) {
	view := &PageView{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.hierarchy.GetPage(gctx, pageID)
		if err != nil {
			return err
		}
		storyID, err := s.hierarchy.StoryIDForPage(gctx, pageID)
		if err != nil {
			return err
		}
		view.Page = page
		view.StoryID = storyID
		view.InlineImages = authoring.ExtractImageURLs(page.Content)
		return nil
	})
	g.Go(func() error {
		likes, err := s.engagement.LikeState(gctx, engagement.TargetPage, pageID, session)
		view.Likes = likes
		return err
	})
	g.Go(func() error {
		comments, err := s.engagement.CommentTree(gctx, engagement.TargetPage, pageID)
		view.Comments = comments
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.engagement.RecordRead(ctx, view.StoryID)
	s.logger.Content().Debug("Page view assembled", "pageId", pageID, "comments", len(view.Comments), "images", len(view.InlineImages))
	return view, nil
}
