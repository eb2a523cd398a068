// Package repositories defines the repository interfaces for story content and
// reader engagement. These repositories abstract the data persistence details,
// keeping the application services decoupled from the database.
package repositories

import (
	"context"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
)

// Find methods return (nil, nil) when no row matches.

type StoryRepository interface {
	FindByID(ctx context.Context, id string) (*content.Story, error)
	FindAll(ctx context.Context) ([]*content.Story, error)
	Search(ctx context.Context, query string) ([]*content.Story, error)
	Store(ctx context.Context, story *content.Story) error
	UpdateCover(ctx context.Context, id, coverImageURL string) error
	// StoreWithContent inserts a story with its chapters and pages in one transaction.
	StoreWithContent(ctx context.Context, story *content.Story, chapters []content.ChapterDraft) error
	// IncrementCounter is a best-effort read-modify-write of a decorative counter.
	IncrementCounter(ctx context.Context, id string, field content.CounterField) error
	// Delete removes the story, its chapters and pages, and every like and comment under them.
	Delete(ctx context.Context, id string) error
}

type ChapterRepository interface {
	FindByID(ctx context.Context, id string) (*content.Chapter, error)
	FindByStoryID(ctx context.Context, storyID string) ([]*content.Chapter, error)
	// RefreshByStoryID is FindByStoryID without any cached copy.
	RefreshByStoryID(ctx context.Context, storyID string) ([]*content.Chapter, error)
	// StoreNext assigns ChapterNumber = current chapter count + 1 and inserts, atomically.
	StoreNext(ctx context.Context, chapter *content.Chapter) error
	Delete(ctx context.Context, id string) error
}

type PageRepository interface {
	FindByID(ctx context.Context, id string) (*content.Page, error)
	FindByChapterID(ctx context.Context, chapterID string) ([]*content.Page, error)
	// RefreshByChapterID is FindByChapterID without any cached copy.
	RefreshByChapterID(ctx context.Context, chapterID string) ([]*content.Page, error)
	FindLatest(ctx context.Context) (*content.Page, error)
	// FindStoryID resolves the story a page belongs to.
	FindStoryID(ctx context.Context, pageID string) (string, error)
	// StoreNext assigns PageNumber = current page count + 1 and inserts, atomically.
	StoreNext(ctx context.Context, page *content.Page) error
	Delete(ctx context.Context, id string) error
}
