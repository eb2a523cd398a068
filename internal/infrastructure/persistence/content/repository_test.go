package content

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/database/dbtest"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db       *database.DB
	cache    *stores.ContentStore
	stories  *StoryRepository
	chapters *ChapterRepository
	pages    *PageRepository
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	logger := logging.NewDiscardLogger()
	cache := stores.NewContentStore(time.Minute)
	return &fixture{
		db:       db,
		cache:    cache,
		stories:  NewStoryRepository(db, cache, logger),
		chapters: NewChapterRepository(db, cache, logger),
		pages:    NewPageRepository(db, cache, logger),
	}
}

func (f *fixture) story(t *testing.T, title string) *content.Story {
	now := time.Now().UTC()
	s := &content.Story{ID: security.GenerateULID(), Title: title, Description: title + " description", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.stories.Store(context.Background(), s))
	return s
}

func (f *fixture) chapter(t *testing.T, storyID, title string) *content.Chapter {
	c := &content.Chapter{ID: security.GenerateULID(), StoryID: storyID, Title: title, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.chapters.StoreNext(context.Background(), c))
	return c
}

func (f *fixture) page(t *testing.T, chapterID, title string) *content.Page {
	p := &content.Page{ID: security.GenerateULID(), ChapterID: chapterID, Title: title, Content: "body of " + title, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.pages.StoreNext(context.Background(), p))
	return p
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestStoryFindByIDMissingReturnsNil(t *testing.T) {
	f := newFixture(t)

	story, err := f.stories.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, story)
}

func TestStoryRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cover := "https://example.com/cover.png"
	now := time.Now().UTC().Truncate(time.Microsecond)
	in := &content.Story{
		ID: security.GenerateULID(), Title: "Tide", Description: "sea", CoverImageURL: &cover,
		IsPinned: true, FakeReads: 3, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.stories.Store(ctx, in))

	out, err := f.stories.FindByID(ctx, in.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Tide", out.Title)
	assert.Equal(t, cover, *out.CoverImageURL)
	assert.True(t, out.IsPinned)
	assert.False(t, out.AutoGenerated)
	assert.Equal(t, 3, out.FakeReads)
	assert.True(t, now.Equal(out.CreatedAt))
}

func TestStoryFindAllNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.story(t, "First")
	time.Sleep(time.Millisecond)
	second := f.story(t, "Second")

	stories, err := f.stories.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, second.ID, stories[0].ID)
	assert.Equal(t, first.ID, stories[1].ID)
}

func TestStorySearch(t *testing.T) {
	f := newFixture(t)
	f.story(t, "Zebra Nights")
	f.story(t, "apple orchard")
	f.story(t, "Unrelated")

	stories, err := f.stories.Search(context.Background(), "A")
	require.NoError(t, err)

	var titles []string
	for _, s := range stories {
		titles = append(titles, s.Title)
	}
	// "Unrelated" matches through the letter a in its title
	assert.Equal(t, []string{"apple orchard", "Unrelated", "Zebra Nights"}, titles)

	stories, err = f.stories.Search(context.Background(), "100%")
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestChapterNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	story := f.story(t, "Demo")

	for i := 1; i <= 3; i++ {
		c := f.chapter(t, story.ID, fmt.Sprintf("Chapter %d", i))
		assert.Equal(t, i, c.ChapterNumber)
	}

	chapters, err := f.chapters.FindByStoryID(context.Background(), story.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	for i, c := range chapters {
		assert.Equal(t, i+1, c.ChapterNumber)
	}
}

func TestChapterListEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	story := f.story(t, "Empty")

	chapters, err := f.chapters.FindByStoryID(context.Background(), story.ID)
	require.NoError(t, err)
	assert.NotNil(t, chapters)
	assert.Empty(t, chapters)
}

func TestPageDeleteLeavesGap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chapter := f.chapter(t, f.story(t, "Gap").ID, "One")

	var pages []*content.Page
	for i := 1; i <= 3; i++ {
		pages = append(pages, f.page(t, chapter.ID, fmt.Sprintf("Page %d", i)))
	}
	require.NoError(t, f.pages.Delete(ctx, pages[1].ID))

	remaining, err := f.pages.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, 1, remaining[0].PageNumber)
	assert.Equal(t, 3, remaining[1].PageNumber)

	// the next page reuses number 3; creation order breaks the tie
	fourth := f.page(t, chapter.ID, "Page 4")
	assert.Equal(t, 3, fourth.PageNumber)
	remaining, err = f.pages.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{pages[0].ID, pages[2].ID, fourth.ID}, []string{remaining[0].ID, remaining[1].ID, remaining[2].ID})
}

func TestPageDeleteMissing(t *testing.T) {
	f := newFixture(t)
	err := f.pages.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindLatestAndStoryID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	latest, err := f.pages.FindLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	story := f.story(t, "Latest")
	chapter := f.chapter(t, story.ID, "One")
	f.page(t, chapter.ID, "Old")
	time.Sleep(time.Millisecond)
	newest := f.page(t, chapter.ID, "New")

	latest, err = f.pages.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, latest.ID)

	storyID, err := f.pages.FindStoryID(ctx, newest.ID)
	require.NoError(t, err)
	assert.Equal(t, story.ID, storyID)

	storyID, err = f.pages.FindStoryID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, storyID)
}

func TestStoreWithContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	story := &content.Story{ID: security.GenerateULID(), Title: "Imported", CreatedAt: now, UpdatedAt: now}

	drafts := []content.ChapterDraft{
		{Title: "Chapter 1", Pages: []content.PageDraft{{Title: "Page 1", Content: "a"}, {Title: "Page 2", Content: "b"}}},
		{Title: "Chapter 2", Pages: []content.PageDraft{{Title: "Page 1", Content: "c"}}},
	}
	require.NoError(t, f.stories.StoreWithContent(ctx, story, drafts))

	chapters, err := f.chapters.FindByStoryID(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Chapter 1", chapters[0].Title)

	pages, err := f.pages.FindByChapterID(ctx, chapters[0].ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "b", pages[1].Content)
}

func TestStoreWithContentRollsBack(t *testing.T) {
	f := newFixture(t)
	existing := f.story(t, "Taken")

	drafts := []content.ChapterDraft{{Title: "Chapter 1", Pages: []content.PageDraft{{Title: "Page 1", Content: "a"}}}}
	dup := &content.Story{ID: existing.ID, Title: "Dup", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	err := f.stories.StoreWithContent(context.Background(), dup, drafts)
	assert.ErrorIs(t, err, apperr.ErrConstraint)
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM chapters`))
}

func TestIncrementCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story := f.story(t, "Counted")

	require.NoError(t, f.stories.IncrementCounter(ctx, story.ID, content.CounterReads))
	require.NoError(t, f.stories.IncrementCounter(ctx, story.ID, content.CounterReads))

	out, err := f.stories.FindByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.FakeReads)

	assert.True(t, apperr.IsValidation(f.stories.IncrementCounter(ctx, story.ID, "title")))
	assert.ErrorIs(t, f.stories.IncrementCounter(ctx, "missing", content.CounterLikes), apperr.ErrNotFound)
}

func TestStoryDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story := f.story(t, "Doomed")
	other := f.story(t, "Survivor")
	page := f.page(t, f.chapter(t, story.ID, "One").ID, "P")
	otherPage := f.page(t, f.chapter(t, other.ID, "One").ID, "Q")

	now := database.FormatTime(time.Now())
	exec := func(q string, args ...any) {
		_, err := f.db.Exec(q, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO comments (id, target_type, target_id, user_name, content, created_at) VALUES ('c1', 'page', ?, 'ann', 'hi', ?)`, page.ID, now)
	exec(`INSERT INTO comments (id, target_type, target_id, parent_comment_id, user_name, content, created_at) VALUES ('c2', 'page', ?, 'c1', 'bob', 're', ?)`, page.ID, now)
	exec(`INSERT INTO comments (id, target_type, target_id, user_name, content, created_at) VALUES ('c3', 'story', ?, 'cat', 'wow', ?)`, story.ID, now)
	exec(`INSERT INTO comments (id, target_type, target_id, user_name, content, created_at) VALUES ('c4', 'page', ?, 'dan', 'keep', ?)`, otherPage.ID, now)
	exec(`INSERT INTO likes (id, target_type, target_id, user_session, created_at) VALUES ('l1', 'page', ?, 's', ?)`, page.ID, now)
	exec(`INSERT INTO likes (id, target_type, target_id, user_session, created_at) VALUES ('l2', 'comment', 'c2', 's', ?)`, now)
	exec(`INSERT INTO likes (id, target_type, target_id, user_session, created_at) VALUES ('l3', 'story', ?, 's', ?)`, story.ID, now)
	exec(`INSERT INTO likes (id, target_type, target_id, user_session, created_at) VALUES ('l4', 'page', ?, 's', ?)`, otherPage.ID, now)
	exec(`INSERT INTO reading_progress (user_session, story_id, page_id, seq, updated_at) VALUES ('s', ?, ?, 1, ?)`, story.ID, page.ID, now)

	require.NoError(t, f.stories.Delete(ctx, story.ID))

	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM stories`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM chapters`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM pages`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM comments`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM likes`))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM reading_progress`))

	assert.ErrorIs(t, f.stories.Delete(ctx, story.ID), apperr.ErrNotFound)
}

func TestChapterDeleteKeepsSiblingNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story := f.story(t, "Three")
	one := f.chapter(t, story.ID, "One")
	two := f.chapter(t, story.ID, "Two")
	three := f.chapter(t, story.ID, "Three")
	f.page(t, two.ID, "P")

	require.NoError(t, f.chapters.Delete(ctx, two.ID))

	chapters, err := f.chapters.FindByStoryID(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, one.ID, chapters[0].ID)
	assert.Equal(t, three.ID, chapters[1].ID)
	assert.Equal(t, 3, chapters[1].ChapterNumber)
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM pages`))
}

func TestListsAreCachedAndInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story := f.story(t, "Cached")
	chapter := f.chapter(t, story.ID, "One")
	first := f.page(t, chapter.ID, "First")

	pages, err := f.pages.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	_, cached := f.cache.GetPages(chapter.ID)
	assert.True(t, cached)

	f.page(t, chapter.ID, "Second")
	pages, err = f.pages.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	require.NoError(t, f.pages.Delete(ctx, first.ID))
	pages, err = f.pages.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	chapters, err := f.chapters.FindByStoryID(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)

	require.NoError(t, f.stories.Delete(ctx, story.ID))
	_, cached = f.cache.GetChapters(story.ID)
	assert.False(t, cached)
	_, cached = f.cache.GetPages(chapter.ID)
	assert.False(t, cached)
}

// interleavingCache runs beforeSet once, between a list query and its cache store.
type interleavingCache struct {
	*stores.ContentStore
	beforeSet func()
}

func (c *interleavingCache) SetPages(chapterID string, generation uint64, pages []*content.Page) bool {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.ContentStore.SetPages(chapterID, generation, pages)
}

func (c *interleavingCache) SetChapters(storyID string, generation uint64, chapters []*content.Chapter) bool {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.ContentStore.SetChapters(storyID, generation, chapters)
}

func TestConcurrentWriteDuringListLoadIsNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger := logging.NewDiscardLogger()
	story := f.story(t, "Racing")
	chapter := f.chapter(t, story.ID, "One")
	f.page(t, chapter.ID, "First")

	cache := &interleavingCache{ContentStore: stores.NewContentStore(time.Minute)}
	reader := NewPageRepository(f.db, cache, logger)
	writer := NewPageRepository(f.db, cache, logger)
	cache.beforeSet = func() {
		p := &content.Page{ID: security.GenerateULID(), ChapterID: chapter.ID, Title: "Second", CreatedAt: time.Now().UTC()}
		require.NoError(t, writer.StoreNext(ctx, p))
	}

	pages, err := reader.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 1, "the load started before the insert")

	pages, err = reader.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	chapterReader := NewChapterRepository(f.db, cache, logger)
	chapterWriter := NewChapterRepository(f.db, cache, logger)
	cache.beforeSet = func() {
		c := &content.Chapter{ID: security.GenerateULID(), StoryID: story.ID, Title: "Two", CreatedAt: time.Now().UTC()}
		require.NoError(t, chapterWriter.StoreNext(ctx, c))
	}

	chapters, err := chapterReader.FindByStoryID(ctx, story.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)

	chapters, err = chapterReader.FindByStoryID(ctx, story.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 2)
}

func TestRefreshBypassesCachedList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story := f.story(t, "Refresh")
	chapter := f.chapter(t, story.ID, "One")
	first := f.page(t, chapter.ID, "First")

	require.True(t, f.cache.SetPages(chapter.ID, f.cache.PagesGeneration(chapter.ID), []*content.Page{}))
	pages, err := f.pages.FindByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Empty(t, pages)

	pages, err = f.pages.RefreshByChapterID(ctx, chapter.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, first.ID, pages[0].ID)

	require.True(t, f.cache.SetChapters(story.ID, f.cache.ChaptersGeneration(story.ID), []*content.Chapter{}))
	chapters, err := f.chapters.RefreshByStoryID(ctx, story.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)
}
