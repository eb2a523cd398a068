package authoring

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityRequire(t *testing.T) {
	assert.ErrorIs(t, Capability{}.Require(), apperr.ErrNotAuthorized)
	assert.NoError(t, AdminCapability.Require())
}

func TestIsChapterHeading(t *testing.T) {
	cases := map[string]bool{
		"Chapter 1":               true,
		"chapter 12: The Return":  true,
		"Chapter One":             false,
		"THE END OF DAYS":         true,
		"THE END":                 true,
		"HELLO":                   false, // too short
		"12345678":                false, // no letters
		"Ordinary sentence here.": false,
		strings.Repeat("A", 49):   true,
		strings.Repeat("A", 50):   false,
	}
	for line, want := range cases {
		assert.Equal(t, want, IsChapterHeading(line), line)
	}
}

func TestSplitTextHeadings(t *testing.T) {
	text := "Preface text is dropped.\n\nChapter 1\nFirst line.\n\nSecond line.\nTHE SECOND PART\nOnly line."

	got := SplitText(text, 500)
	want := []content.ChapterDraft{
		{Title: "Chapter 1", Pages: []content.PageDraft{{Title: "Page 1", Content: "First line.\nSecond line."}}},
		{Title: "THE SECOND PART", Pages: []content.PageDraft{{Title: "Page 1", Content: "Only line."}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitText mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitTextFlushesAfterWordLimit(t *testing.T) {
	text := "Chapter 1\none two three\nfour five\nsix"

	got := SplitText(text, 4)
	want := []content.ChapterDraft{{
		Title: "Chapter 1",
		Pages: []content.PageDraft{
			{Title: "Page 1", Content: "one two three\nfour five"},
			{Title: "Page 2", Content: "six"},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitText mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitTextKeepsEmptyChapters(t *testing.T) {
	got := SplitText("Chapter 1\nChapter 2\nbody", 500)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].Pages)
	assert.Len(t, got[1].Pages, 1)
}

func TestSplitTextWithoutHeadings(t *testing.T) {
	got := SplitText("a b c d e\nf g", 3)
	want := []content.ChapterDraft{{
		Title: "Chapter 1",
		Pages: []content.PageDraft{
			{Title: "Page 1", Content: "a b c"},
			{Title: "Page 2", Content: "d e f"},
			{Title: "Page 3", Content: "g"},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitText mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, content.PageCount(got))
}

func TestExtractImageURLs(t *testing.T) {
	text := "See https://cdn.example.com/a.JPG and http://x.io/b.webp, not https://x.io/c.txt"
	assert.Equal(t, []string{"https://cdn.example.com/a.JPG", "http://x.io/b.webp"}, ExtractImageURLs(text))
	assert.Empty(t, ExtractImageURLs("no images"))
}

func TestCatalogueGenerate(t *testing.T) {
	cat, err := LoadCatalogue()
	require.NoError(t, err)
	require.Len(t, cat.Templates, 4)
	require.Len(t, cat.Variations, 5)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		story := cat.Generate(rng)

		assert.True(t, strings.HasPrefix(story.Title, "The "), story.Title)
		assert.GreaterOrEqual(t, story.Reads, 1000)
		assert.Less(t, story.Reads, 6000)
		assert.GreaterOrEqual(t, story.Likes, 500)
		assert.Less(t, story.Likes, 2500)
		assert.GreaterOrEqual(t, story.Comments, 100)
		assert.Less(t, story.Comments, 900)

		require.NotEmpty(t, story.Chapter.Pages)
		assert.Equal(t, "Chapter 1: The Beginning", story.Chapter.Title)
		assert.Equal(t, "Opening", story.Chapter.Pages[0].Title)
		assert.True(t, strings.HasPrefix(story.Chapter.Pages[0].Content, "Chapter 1:"))
		if len(story.Chapter.Pages) > 1 {
			assert.Equal(t, "Page 2", story.Chapter.Pages[1].Title)
		}
	}
}

func TestGenerateTitleVariation(t *testing.T) {
	cat := &Catalogue{
		Variations: []string{"The Hidden"},
		Templates:  []StoryTemplate{{Title: "Space Station Echo", Content: "one\n\ntwo\n\nthree"}},
	}
	story := cat.Generate(rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, "The Hidden Station Echo", story.Title)
	assert.Equal(t, []string{"Opening", "Page 2", "Page 3"}, []string{
		story.Chapter.Pages[0].Title, story.Chapter.Pages[1].Title, story.Chapter.Pages[2].Title,
	})
}

func TestParseCatalogueRejectsEmpty(t *testing.T) {
	_, err := ParseCatalogue([]byte("variations: []\ntemplates: []\n"))
	assert.Error(t, err)
}
