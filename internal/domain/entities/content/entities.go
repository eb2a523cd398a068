// Package content defines the story hierarchy entities: stories, chapters and pages.
package content

import "time"

type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CoverImageURL *string   `json:"coverImageUrl,omitempty"`
	IsPinned      bool      `json:"isPinned"`
	AutoGenerated bool      `json:"autoGenerated"`
	FakeReads     int       `json:"fakeReads"`
	FakeLikes     int       `json:"fakeLikes"`
	FakeComments  int       `json:"fakeComments"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TotalRating is the sum of the decorative counters, used for display ranking.
func (s *Story) TotalRating() int {
	return s.FakeReads + s.FakeLikes + s.FakeComments
}

type Chapter struct {
	ID            string    `json:"id"`
	StoryID       string    `json:"storyId"`
	ChapterNumber int       `json:"chapterNumber"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Page struct {
	ID         string    `json:"id"`
	ChapterID  string    `json:"chapterId"`
	PageNumber int       `json:"pageNumber"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CounterField names a decorative story counter.
type CounterField string

const (
	CounterReads    CounterField = "fake_reads"
	CounterLikes    CounterField = "fake_likes"
	CounterComments CounterField = "fake_comments"
)

// ChapterDraft is a chapter with its pages, produced by the splitter, importer and
// generator before anything is stored.
type ChapterDraft struct {
	Title string      `json:"title"`
	Pages []PageDraft `json:"pages"`
}

type PageDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PageCount returns the number of pages across all drafts.
func PageCount(drafts []ChapterDraft) int {
	n := 0
	for _, d := range drafts {
		n += len(d.Pages)
	}
	return n
}
