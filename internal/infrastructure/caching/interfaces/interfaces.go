// Package interfaces defines cache operation contracts for story content lists.
package interfaces

import (
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
)

// ContentCache holds the ordered chapter list of each story and the ordered page
// list of each chapter. Entries expire after the store's TTL.
//
// Every key carries a generation that each Invalidate call advances. A loader reads
// the generation before querying and passes it to Set, which drops the list when
// an invalidation happened in between.
type ContentCache interface {
	GetChapters(storyID string) ([]*content.Chapter, bool)
	ChaptersGeneration(storyID string) uint64
	SetChapters(storyID string, generation uint64, chapters []*content.Chapter) bool
	GetPages(chapterID string) ([]*content.Page, bool)
	PagesGeneration(chapterID string) uint64
	SetPages(chapterID string, generation uint64, pages []*content.Page) bool

	InvalidateChapters(storyID string)
	InvalidatePages(chapterID string)
	InvalidateAll()

	PurgeExpired(now time.Time) int
	Stats() CacheStats
}

// CacheStats reports store size and lookup outcomes since start.
type CacheStats struct {
	ChapterLists int   `json:"chapterLists"`
	PageLists    int   `json:"pageLists"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
}
