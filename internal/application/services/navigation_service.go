package services

import (
	"context"
	"fmt"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
)

// Direction is the way a reader moves through a story.
type Direction int

const (
	Forward Direction = 1
	Back    Direction = -1
)

func (d Direction) String() string {
	if d == Back {
		return "prev"
	}
	return "next"
}

// NavigationResult is the page a move lands on. EndOfStory is set, with a nil
// Page, when there is nothing further in that direction.
type NavigationResult struct {
	Page       *content.Page    `json:"page"`
	Chapter    *content.Chapter `json:"chapter,omitempty"`
	EndOfStory bool             `json:"endOfStory"`
}

// NavigationService moves between pages, crossing chapter boundaries and
// skipping chapters that have no pages.
type NavigationService struct {
	hierarchy *HierarchyService
	metrics   *metrics.Metrics
	logger    *logging.ChanneledLogger
}

// NewNavigationService creates a new navigation service
func NewNavigationService(hierarchy *HierarchyService, m *metrics.Metrics, logger *logging.ChanneledLogger) *NavigationService {
	return &NavigationService{
		hierarchy: hierarchy,
		metrics:   m,
		logger:    logger,
	}
}

// Next returns the page after pageID.
func (s *NavigationService) Next(ctx context.Context, pageID string) (*NavigationResult, error) {
	return s.move(ctx, pageID, Forward)
}

// Previous returns the page before pageID.
func (s *NavigationService) Previous(ctx context.Context, pageID string) (*NavigationResult, error) {
	return s.move(ctx, pageID, Back)
}

func (s *NavigationService) move(ctx context.Context, pageID string, dir Direction) (*NavigationResult, error) {
	page, err := s.hierarchy.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	chapter, err := s.hierarchy.GetChapter(ctx, page.ChapterID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.hierarchy.ListPages(ctx, chapter.ID)
	if err != nil {
		return nil, err
	}
	pageIdx := indexOfPage(siblings, page.ID)
	if pageIdx < 0 {
		s.logger.Content().Debug("Page missing from cached list, reloading", "pageId", page.ID, "chapterId", chapter.ID)
		if siblings, err = s.hierarchy.RefreshPages(ctx, chapter.ID); err != nil {
			return nil, err
		}
		if pageIdx = indexOfPage(siblings, page.ID); pageIdx < 0 {
			return nil, fmt.Errorf("failed to locate page %s in chapter %s", page.ID, chapter.ID)
		}
	}
	if target := pageIdx + int(dir); target >= 0 && target < len(siblings) {
		return s.found(dir, siblings[target], chapter), nil
	}

	chapters, err := s.hierarchy.ListChapters(ctx, chapter.StoryID)
	if err != nil {
		return nil, err
	}
	idx := indexOfChapter(chapters, chapter.ID)
	if idx < 0 {
		s.logger.Content().Debug("Chapter missing from cached list, reloading", "chapterId", chapter.ID, "storyId", chapter.StoryID)
		if chapters, err = s.hierarchy.RefreshChapters(ctx, chapter.StoryID); err != nil {
			return nil, err
		}
		if idx = indexOfChapter(chapters, chapter.ID); idx < 0 {
			return nil, fmt.Errorf("failed to locate chapter %s in story %s", chapter.ID, chapter.StoryID)
		}
	}

	for i := idx + int(dir); i >= 0 && i < len(chapters); i += int(dir) {
		pages, err := s.hierarchy.ListPages(ctx, chapters[i].ID)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			s.logger.Content().Debug("Skipping empty chapter", "chapterId", chapters[i].ID, "direction", dir.String())
			continue
		}
		if dir == Forward {
			return s.found(dir, pages[0], chapters[i]), nil
		}
		return s.found(dir, pages[len(pages)-1], chapters[i]), nil
	}

	s.metrics.RecordNavigation(dir.String(), true)
	s.logger.Content().Debug("Reached end of story", "pageId", pageID, "direction", dir.String())
	return &NavigationResult{EndOfStory: true}, nil
}

func (s *NavigationService) found(dir Direction, page *content.Page, chapter *content.Chapter) *NavigationResult {
	s.metrics.RecordNavigation(dir.String(), false)
	return &NavigationResult{Page: page, Chapter: chapter}
}

func indexOfPage(pages []*content.Page, id string) int {
	for i, p := range pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func indexOfChapter(chapters []*content.Chapter, id string) int {
	for i, c := range chapters {
		if c.ID == id {
			return i
		}
	}
	return -1
}
