// Package services provides application-level services that orchestrate
// business logic and coordinate between repositories and domain entities.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/repositories"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
)

// DefaultSuggestionLimit caps title suggestions when the caller gives no limit.
const DefaultSuggestionLimit = 5

// HierarchyService reads the story, chapter and page tree.
type HierarchyService struct {
	storyRepo   repositories.StoryRepository
	chapterRepo repositories.ChapterRepository
	pageRepo    repositories.PageRepository
	logger      *logging.ChanneledLogger
}

// NewHierarchyService creates a new hierarchy application service
func NewHierarchyService(storyRepo repositories.StoryRepository, chapterRepo repositories.ChapterRepository, pageRepo repositories.PageRepository, logger *logging.ChanneledLogger) *HierarchyService {
	return &HierarchyService{
		storyRepo:   storyRepo,
		chapterRepo: chapterRepo,
		pageRepo:    pageRepo,
		logger:      logger,
	}
}

// ListStories returns all stories newest first, or with a query, the stories whose
// title or description contains it, sorted by title.
func (s *HierarchyService) ListStories(ctx context.Context, query string) ([]*content.Story, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		stories, err := s.storyRepo.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list stories: %w", err)
		}
		return stories, nil
	}

	stories, err := s.storyRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search stories: %w", err)
	}
	s.logger.Content().Debug("Story search completed", "query", query, "matches", len(stories))
	return stories, nil
}

// SuggestTitles returns up to limit matching story titles for type-ahead.
func (s *HierarchyService) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	stories, err := s.ListStories(ctx, query)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, min(limit, len(stories)))
	for _, story := range stories {
		if len(titles) == limit {
			break
		}
		titles = append(titles, story.Title)
	}
	return titles, nil
}

// GetStory returns the story or ErrNotFound.
func (s *HierarchyService) GetStory(ctx context.Context, id string) (*content.Story, error) {
	story, err := s.storyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	if story == nil {
		return nil, apperr.NotFound("story", id)
	}
	return story, nil
}

// ListChapters returns the chapters of an existing story in reading order.
func (s *HierarchyService) ListChapters(ctx context.Context, storyID string) ([]*content.Chapter, error) {
	if _, err := s.GetStory(ctx, storyID); err != nil {
		return nil, err
	}

	chapters, err := s.chapterRepo.FindByStoryID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters for story %s: %w", storyID, err)
	}
	return chapters, nil
}

// GetChapter returns the chapter or ErrNotFound.
func (s *HierarchyService) GetChapter(ctx context.Context, id string) (*content.Chapter, error) {
	chapter, err := s.chapterRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter %s: %w", id, err)
	}
	if chapter == nil {
		return nil, apperr.NotFound("chapter", id)
	}
	return chapter, nil
}

// ListPages returns the pages of an existing chapter in reading order.
func (s *HierarchyService) ListPages(ctx context.Context, chapterID string) ([]*content.Page, error) {
	if _, err := s.GetChapter(ctx, chapterID); err != nil {
		return nil, err
	}

	pages, err := s.pageRepo.FindByChapterID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages for chapter %s: %w", chapterID, err)
	}
	return pages, nil
}

// RefreshPages reloads a chapter's pages, bypassing the content cache.
func (s *HierarchyService) RefreshPages(ctx context.Context, chapterID string) ([]*content.Page, error) {
	pages, err := s.pageRepo.RefreshByChapterID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload pages for chapter %s: %w", chapterID, err)
	}
	return pages, nil
}

// RefreshChapters reloads a story's chapters, bypassing the content cache.
func (s *HierarchyService) RefreshChapters(ctx context.Context, storyID string) ([]*content.Chapter, error) {
	chapters, err := s.chapterRepo.RefreshByStoryID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload chapters for story %s: %w", storyID, err)
	}
	return chapters, nil
}

// GetPage returns the page or ErrNotFound.
func (s *HierarchyService) GetPage(ctx context.Context, id string) (*content.Page, error) {
	page, err := s.pageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}
	if page == nil {
		return nil, apperr.NotFound("page", id)
	}
	return page, nil
}

// LatestPage returns the newest page across all stories, or ErrNotFound when there is none.
func (s *HierarchyService) LatestPage(ctx context.Context) (*content.Page, error) {
	page, err := s.pageRepo.FindLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest page: %w", err)
	}
	if page == nil {
		return nil, apperr.NotFound("page", "latest")
	}
	return page, nil
}

// StoryIDForPage resolves the story a page belongs to, or ErrNotFound.
func (s *HierarchyService) StoryIDForPage(ctx context.Context, pageID string) (string, error) {
	storyID, err := s.pageRepo.FindStoryID(ctx, pageID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve story for page %s: %w", pageID, err)
	}
	if storyID == "" {
		return "", apperr.NotFound("page", pageID)
	}
	return storyID, nil
}
