// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/interfaces"
)

type entry[T any] struct {
	items    []T
	storedAt time.Time
}

// ContentStore implements content list caching with a fixed TTL
type ContentStore struct {
	chapters    map[string]entry[*content.Chapter]
	pages       map[string]entry[*content.Page]
	chapterGens map[string]uint64
	pageGens    map[string]uint64
	// clock advances on every invalidation; floor is the generation of keys
	// without an entry in the gens maps.
	clock  uint64
	floor  uint64
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
	mu     sync.RWMutex
}

var _ interfaces.ContentCache = (*ContentStore)(nil)

// NewContentStore creates a new content cache store. A ttl of zero or less
// keeps entries until they are invalidated.
func NewContentStore(ttl time.Duration) *ContentStore {
	return &ContentStore{
		chapters:    make(map[string]entry[*content.Chapter]),
		pages:       make(map[string]entry[*content.Page]),
		chapterGens: make(map[string]uint64),
		pageGens:    make(map[string]uint64),
		ttl:         ttl,
		now:         time.Now,
	}
}

// =============================================================================
// Chapter Lists
// =============================================================================

// GetChapters returns a copy of the cached chapter list for a story
func (cs *ContentStore) GetChapters(storyID string) ([]*content.Chapter, bool) {
	cs.mu.RLock()
	e, ok := cs.chapters[storyID]
	cs.mu.RUnlock()
	return lookup(cs, e, ok)
}

// ChaptersGeneration returns the generation to pass to SetChapters
func (cs *ContentStore) ChaptersGeneration(storyID string) uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.generation(cs.chapterGens, storyID)
}

// SetChapters caches the chapter list for a story unless the list was
// invalidated after generation was read
func (cs *ContentStore) SetChapters(storyID string, generation uint64, chapters []*content.Chapter) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.generation(cs.chapterGens, storyID) != generation {
		return false
	}
	cs.chapters[storyID] = entry[*content.Chapter]{items: clone(chapters), storedAt: cs.now()}
	return true
}

// InvalidateChapters drops the cached chapter list for a story
func (cs *ContentStore) InvalidateChapters(storyID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.chapters, storyID)
	cs.clock++
	cs.chapterGens[storyID] = cs.clock
}

// =============================================================================
// Page Lists
// =============================================================================

// GetPages returns a copy of the cached page list for a chapter
func (cs *ContentStore) GetPages(chapterID string) ([]*content.Page, bool) {
	cs.mu.RLock()
	e, ok := cs.pages[chapterID]
	cs.mu.RUnlock()
	return lookup(cs, e, ok)
}

// PagesGeneration returns the generation to pass to SetPages
func (cs *ContentStore) PagesGeneration(chapterID string) uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.generation(cs.pageGens, chapterID)
}

// SetPages caches the page list for a chapter unless the list was invalidated
// after generation was read
func (cs *ContentStore) SetPages(chapterID string, generation uint64, pages []*content.Page) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.generation(cs.pageGens, chapterID) != generation {
		return false
	}
	cs.pages[chapterID] = entry[*content.Page]{items: clone(pages), storedAt: cs.now()}
	return true
}

// InvalidatePages drops the cached page list for a chapter
func (cs *ContentStore) InvalidatePages(chapterID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.pages, chapterID)
	cs.clock++
	cs.pageGens[chapterID] = cs.clock
}

// =============================================================================
// Maintenance
// =============================================================================

// InvalidateAll empties the store
func (cs *ContentStore) InvalidateAll() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.chapters = make(map[string]entry[*content.Chapter])
	cs.pages = make(map[string]entry[*content.Page])
	cs.resetGenerations()
}

// PurgeExpired removes entries older than the TTL and returns how many went.
// It also folds the per-key generations into the floor so they do not grow
// without bound; loads in flight at that moment skip their Set.
func (cs *ContentStore) PurgeExpired(now time.Time) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.resetGenerations()
	if cs.ttl <= 0 {
		return 0
	}

	removed := 0
	for id, e := range cs.chapters {
		if now.Sub(e.storedAt) > cs.ttl {
			delete(cs.chapters, id)
			removed++
		}
	}
	for id, e := range cs.pages {
		if now.Sub(e.storedAt) > cs.ttl {
			delete(cs.pages, id)
			removed++
		}
	}
	return removed
}

// Stats reports the current entry counts and lookup outcomes
func (cs *ContentStore) Stats() interfaces.CacheStats {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return interfaces.CacheStats{
		ChapterLists: len(cs.chapters),
		PageLists:    len(cs.pages),
		Hits:         cs.hits.Load(),
		Misses:       cs.misses.Load(),
	}
}

func (cs *ContentStore) generation(gens map[string]uint64, id string) uint64 {
	if g, ok := gens[id]; ok {
		return g
	}
	return cs.floor
}

func (cs *ContentStore) resetGenerations() {
	cs.clock++
	cs.floor = cs.clock
	cs.chapterGens = make(map[string]uint64)
	cs.pageGens = make(map[string]uint64)
}

func lookup[T any](cs *ContentStore, e entry[T], ok bool) ([]T, bool) {
	if !ok || (cs.ttl > 0 && cs.now().Sub(e.storedAt) > cs.ttl) {
		cs.misses.Add(1)
		return nil, false
	}
	cs.hits.Add(1)
	return clone(e.items), true
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
