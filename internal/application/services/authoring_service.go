package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/repositories"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
)

// CoverProcessor stores an uploaded cover image and returns its public URL.
type CoverProcessor interface {
	ProcessCover(ctx context.Context, storyID string, data []byte) (string, error)
}

// Transcriber turns a hosted audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Import formats accepted by ImportStory.
const (
	FormatText  = "text"
	FormatHTML  = "html"
	FormatAudio = "audio"
)

type StoryInput struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	CoverImageURL *string `json:"coverImageUrl,omitempty"`
}

type PageInput struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

type ImportInput struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	CoverImageURL *string `json:"coverImageUrl,omitempty"`
	Format        string  `json:"format"`
	Content       string  `json:"content"`
	AudioURL      string  `json:"audioUrl"`
}

// ImportResult summarizes a stored import.
type ImportResult struct {
	Story    *content.Story `json:"story"`
	Chapters int            `json:"chapters"`
	Pages    int            `json:"pages"`
}

// AuthoringService creates and deletes content on behalf of an admin.
type AuthoringService struct {
	storyRepo    repositories.StoryRepository
	chapterRepo  repositories.ChapterRepository
	pageRepo     repositories.PageRepository
	hierarchy    *HierarchyService
	covers       CoverProcessor
	transcriber  Transcriber
	catalogue    *authoring.Catalogue
	wordsPerPage int
	metrics      *metrics.Metrics
	logger       *logging.ChanneledLogger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAuthoringService creates a new authoring service. covers and transcriber may
// be nil, in which case the features that need them report ErrUnavailable.
func NewAuthoringService(
	storyRepo repositories.StoryRepository,
	chapterRepo repositories.ChapterRepository,
	pageRepo repositories.PageRepository,
	hierarchy *HierarchyService,
	covers CoverProcessor,
	transcriber Transcriber,
	catalogue *authoring.Catalogue,
	wordsPerPage int,
	m *metrics.Metrics,
	logger *logging.ChanneledLogger,
) *AuthoringService {
	return &AuthoringService{
		storyRepo:    storyRepo,
		chapterRepo:  chapterRepo,
		pageRepo:     pageRepo,
		hierarchy:    hierarchy,
		covers:       covers,
		transcriber:  transcriber,
		catalogue:    catalogue,
		wordsPerPage: wordsPerPage,
		metrics:      m,
		logger:       logger,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
}

// CreateStory stores a new, unpinned story.
func (s *AuthoringService) CreateStory(ctx context.Context, actor authoring.Capability, input StoryInput) (*content.Story, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	story, err := newStory(input.Title, input.Description, input.CoverImageURL)
	if err != nil {
		return nil, err
	}

	if err := s.storyRepo.Store(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	s.logger.Authoring().Info("Story created", "id", story.ID, "title", story.Title)
	return story, nil
}

// CreateChapter appends a chapter numbered after the story's current chapter count.
func (s *AuthoringService) CreateChapter(ctx context.Context, actor authoring.Capability, storyID, title string) (*content.Chapter, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Invalid("title", "must not be empty")
	}
	if _, err := s.hierarchy.GetStory(ctx, storyID); err != nil {
		return nil, err
	}

	chapter := &content.Chapter{
		ID:        security.GenerateULID(),
		StoryID:   storyID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chapterRepo.StoreNext(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	s.logger.Authoring().Info("Chapter created", "id", chapter.ID, "storyId", storyID, "chapterNumber", chapter.ChapterNumber)
	return chapter, nil
}

// CreatePage appends a page numbered after the chapter's current page count.
func (s *AuthoringService) CreatePage(ctx context.Context, actor authoring.Capability, chapterID string, input PageInput) (*content.Page, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.Invalid("title", "must not be empty")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperr.Invalid("content", "must not be empty")
	}
	if _, err := s.hierarchy.GetChapter(ctx, chapterID); err != nil {
		return nil, err
	}

	page := &content.Page{
		ID:        security.GenerateULID(),
		ChapterID: chapterID,
		Title:     title,
		Content:   input.Content,
		ImageURL:  trimmedOrNil(input.ImageURL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.pageRepo.StoreNext(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s.metrics.PagesCreatedTotal.Inc()
	s.logger.Authoring().Info("Page created", "id", page.ID, "chapterId", chapterID, "pageNumber", page.PageNumber)
	return page, nil
}

// DeleteStory removes a story with all its content and engagement.
func (s *AuthoringService) DeleteStory(ctx context.Context, actor authoring.Capability, id string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.storyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	s.logger.Authoring().Info("Story deleted", "id", id)
	return nil
}

// DeleteChapter removes a chapter and its pages. Remaining chapters keep their numbers.
func (s *AuthoringService) DeleteChapter(ctx context.Context, actor authoring.Capability, id string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.chapterRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chapter %s: %w", id, err)
	}
	s.logger.Authoring().Info("Chapter deleted", "id", id)
	return nil
}

// DeletePage removes a page. Remaining pages keep their numbers.
func (s *AuthoringService) DeletePage(ctx context.Context, actor authoring.Capability, id string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.pageRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete page %s: %w", id, err)
	}
	s.logger.Authoring().Info("Page deleted", "id", id)
	return nil
}

// SetCover decodes a base64 image (a data URL prefix is allowed), stores the
// processed versions and points the story at the result.
func (s *AuthoringService) SetCover(ctx context.Context, actor authoring.Capability, storyID, encoded string) (string, error) {
	if err := actor.Require(); err != nil {
		return "", err
	}
	if s.covers == nil {
		return "", apperr.Unavailable("process cover", fmt.Errorf("cover processing is not configured"))
	}
	if _, err := s.hierarchy.GetStory(ctx, storyID); err != nil {
		return "", err
	}

	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(data) == 0 {
		return "", apperr.Invalid("image", "must be base64 encoded image data")
	}

	url, err := s.covers.ProcessCover(ctx, storyID, data)
	if err != nil {
		return "", fmt.Errorf("failed to process cover for story %s: %w", storyID, err)
	}
	if err := s.storyRepo.UpdateCover(ctx, storyID, url); err != nil {
		return "", fmt.Errorf("failed to set cover for story %s: %w", storyID, err)
	}

	s.logger.Authoring().Info("Story cover updated", "id", storyID, "url", url)
	return url, nil
}

// ImportStory splits long text (plain, HTML or transcribed audio) into chapters
// and pages and stores the whole story in one transaction.
func (s *AuthoringService) ImportStory(ctx context.Context, actor authoring.Capability, input ImportInput) (*ImportResult, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	story, err := newStory(input.Title, input.Description, input.CoverImageURL)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = FormatText
	}

	text, err := s.importText(ctx, format, input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Invalid("content", "must not be empty")
	}

	drafts := authoring.SplitText(text, s.wordsPerPage)
	if err := s.storyRepo.StoreWithContent(ctx, story, drafts); err != nil {
		return nil, fmt.Errorf("failed to import story: %w", err)
	}

	result := &ImportResult{Story: story, Chapters: len(drafts), Pages: content.PageCount(drafts)}
	s.metrics.StoriesImportedTotal.WithLabelValues(format).Inc()
	s.metrics.PagesCreatedTotal.Add(float64(result.Pages))
	s.logger.Authoring().Info("Story imported", "id", story.ID, "format", format, "chapters", result.Chapters, "pages", result.Pages)
	return result, nil
}

func (s *AuthoringService) importText(ctx context.Context, format string, input ImportInput) (string, error) {
	switch format {
	case FormatText:
		return input.Content, nil
	case FormatHTML:
		markdown, err := htmltomarkdown.ConvertString(input.Content)
		if err != nil {
			return "", apperr.Invalid("content", fmt.Sprintf("could not convert html: %v", err))
		}
		return markdown, nil
	case FormatAudio:
		if strings.TrimSpace(input.AudioURL) == "" {
			return "", apperr.Invalid("audioUrl", "must not be empty")
		}
		if s.transcriber == nil {
			return "", apperr.Unavailable("transcribe audio", fmt.Errorf("transcription is not configured"))
		}
		text, err := s.transcriber.Transcribe(ctx, input.AudioURL)
		if err != nil {
			return "", fmt.Errorf("failed to transcribe audio: %w", err)
		}
		return text, nil
	}
	return "", apperr.Invalid("format", fmt.Sprintf("unsupported format %q", format))
}

// GenerateStory creates a pinned, auto-generated story from a random template.
func (s *AuthoringService) GenerateStory(ctx context.Context, actor authoring.Capability) (*ImportResult, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	generated := s.catalogue.Generate(s.rng)
	s.rngMu.Unlock()

	now := time.Now().UTC()
	cover := fmt.Sprintf("https://picsum.photos/400/600?random=%d", now.UnixMilli())
	story := &content.Story{
		ID:            security.GenerateULID(),
		Title:         generated.Title,
		Description:   generated.Description,
		CoverImageURL: &cover,
		IsPinned:      true,
		AutoGenerated: true,
		FakeReads:     generated.Reads,
		FakeLikes:     generated.Likes,
		FakeComments:  generated.Comments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	drafts := []content.ChapterDraft{generated.Chapter}
	if err := s.storyRepo.StoreWithContent(ctx, story, drafts); err != nil {
		return nil, fmt.Errorf("failed to store generated story: %w", err)
	}

	result := &ImportResult{Story: story, Chapters: 1, Pages: len(generated.Chapter.Pages)}
	s.metrics.PagesCreatedTotal.Add(float64(result.Pages))
	s.logger.Authoring().Info("Story generated", "id", story.ID, "title", story.Title, "genre", generated.Genre, "pages", result.Pages)
	return result, nil
}

func newStory(title, description string, cover *string) (*content.Story, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Invalid("title", "must not be empty")
	}
	now := time.Now().UTC()
	return &content.Story{
		ID:            security.GenerateULID(),
		Title:         title,
		Description:   strings.TrimSpace(description),
		CoverImageURL: trimmedOrNil(cover),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
