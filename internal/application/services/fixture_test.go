package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/database/dbtest"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	contentpersistence "github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
	engagementpersistence "github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/engagement"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []engagement.LiveEvent
}

func (p *recordingPublisher) Publish(event engagement.LiveEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []engagement.LiveEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engagement.LiveEvent(nil), p.events...)
}

type fakeTranscriber struct {
	text string
	err  error
	url  string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioURL string) (string, error) {
	f.url = audioURL
	return f.text, f.err
}

type fakeCovers struct {
	calls int
	data  []byte
}

func (f *fakeCovers) ProcessCover(_ context.Context, storyID string, data []byte) (string, error) {
	f.calls++
	f.data = data
	return "/media/covers/" + storyID + "-600.webp", nil
}

type fakeMailer struct {
	sent []ContactInput
	err  error
}

func (f *fakeMailer) SendContact(_ context.Context, msg ContactInput) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errMailDown = errors.New("smtp relay unreachable")

type fixture struct {
	db        *database.DB
	metrics   *metrics.Metrics
	publisher *recordingPublisher
	cache     *stores.ContentStore
	stories   *contentpersistence.StoryRepository

	hierarchy  *HierarchyService
	navigation *NavigationService
	engagement *EngagementService
	reader     *ReaderService
	progress   *ProgressService
	authoring  *AuthoringService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	opts        EngagementOptions
	covers      CoverProcessor
	transcriber Transcriber
}

func withEngagementOptions(opts EngagementOptions) fixtureOption {
	return func(c *fixtureConfig) { c.opts = opts }
}

func withCovers(covers CoverProcessor) fixtureOption {
	return func(c *fixtureConfig) { c.covers = covers }
}

func withTranscriber(tr Transcriber) fixtureOption {
	return func(c *fixtureConfig) { c.transcriber = tr }
}

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{opts: EngagementOptions{CounterBumps: true, MaxCommentLength: 2000, MaxUserNameLength: 50}}
	for _, o := range options {
		o(&cfg)
	}

	db := dbtest.Open(t)
	logger := logging.NewDiscardLogger()
	m := metrics.NewMetrics()
	publisher := &recordingPublisher{}

	cache := stores.NewContentStore(time.Minute)
	stories := contentpersistence.NewStoryRepository(db, cache, logger)
	chapters := contentpersistence.NewChapterRepository(db, cache, logger)
	pages := contentpersistence.NewPageRepository(db, cache, logger)
	likes := engagementpersistence.NewSQLLikeRepository(db, logger)
	comments := engagementpersistence.NewSQLCommentRepository(db, logger)
	progress := engagementpersistence.NewSQLProgressRepository(db, logger)

	catalogue, err := authoring.LoadCatalogue()
	require.NoError(t, err)

	hierarchy := NewHierarchyService(stories, chapters, pages, logger)
	engagementService := NewEngagementService(likes, comments, stories, hierarchy, publisher, m, logger, cfg.opts)

	return &fixture{
		db:         db,
		metrics:    m,
		publisher:  publisher,
		cache:      cache,
		stories:    stories,
		hierarchy:  hierarchy,
		navigation: NewNavigationService(hierarchy, m, logger),
		engagement: engagementService,
		reader:     NewReaderService(hierarchy, engagementService, logger),
		progress:   NewProgressService(progress, hierarchy, m, logger),
		authoring:  NewAuthoringService(stories, chapters, pages, hierarchy, cfg.covers, cfg.transcriber, catalogue, 100, m, logger),
	}
}

// build creates a story whose chapters hold the given number of pages each.
// A zero entry leaves that chapter empty.
func (f *fixture) build(t *testing.T, title string, layout ...int) (*content.Story, [][]*content.Page) {
	t.Helper()
	ctx := context.Background()

	story, err := f.authoring.CreateStory(ctx, authoring.AdminCapability, StoryInput{Title: title, Description: title + " description"})
	require.NoError(t, err)

	pages := make([][]*content.Page, len(layout))
	for i, n := range layout {
		chapter, err := f.authoring.CreateChapter(ctx, authoring.AdminCapability, story.ID, title+" chapter")
		require.NoError(t, err)
		for j := 0; j < n; j++ {
			page, err := f.authoring.CreatePage(ctx, authoring.AdminCapability, chapter.ID, PageInput{
				Title:   "Page",
				Content: "Words on a page of " + title,
			})
			require.NoError(t, err)
			pages[i] = append(pages[i], page)
		}
	}
	return story, pages
}

func (f *fixture) story(t *testing.T, id string) *content.Story {
	t.Helper()
	story, err := f.hierarchy.GetStory(context.Background(), id)
	require.NoError(t, err)
	return story
}

// pause keeps created_at values apart where ordering depends on them.
func pause() {
	time.Sleep(5 * time.Millisecond)
}

func adminCap() authoring.Capability {
	return authoring.AdminCapability
}
