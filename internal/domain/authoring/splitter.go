package authoring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
)

// DefaultWordsPerPage is the page size used when none is configured.
const DefaultWordsPerPage = 500

var chapterHeadingPattern = regexp.MustCompile(`(?i)^Chapter\s+\d+`)

// IsChapterHeading reports whether a trimmed line starts a new chapter: either
// "Chapter <n>..." or a short all-caps line.
func IsChapterHeading(line string) bool {
	if chapterHeadingPattern.MatchString(line) {
		return true
	}
	n := utf8.RuneCountInString(line)
	if n <= 5 || n >= 50 {
		return false
	}
	return line == strings.ToUpper(line) && strings.IndexFunc(line, unicode.IsLetter) >= 0
}

// SplitText turns long text into chapter drafts. Blank lines are dropped, headings
// open chapters and body lines fill pages that are flushed once they pass
// wordsPerPage words. Text before the first heading is discarded. Without any
// heading the whole text becomes "Chapter 1" cut into pages of wordsPerPage words.
func SplitText(text string, wordsPerPage int) []content.ChapterDraft {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}

	var (
		chapters []content.ChapterDraft
		current  *content.ChapterDraft
		page     []string
		words    int
	)

	flush := func() {
		if current != nil && words > 0 {
			current.Pages = append(current.Pages, content.PageDraft{
				Title:   fmt.Sprintf("Page %d", len(current.Pages)+1),
				Content: strings.Join(page, "\n"),
			})
		}
		page = nil
		words = 0
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if IsChapterHeading(line) {
			flush()
			chapters = append(chapters, content.ChapterDraft{Title: line, Pages: []content.PageDraft{}})
			current = &chapters[len(chapters)-1]
			continue
		}

		page = append(page, line)
		words += len(strings.Fields(line))
		if words > wordsPerPage {
			flush()
		}
	}
	flush()

	if len(chapters) == 0 {
		return []content.ChapterDraft{{Title: "Chapter 1", Pages: splitByWords(text, wordsPerPage)}}
	}
	return chapters
}

func splitByWords(text string, wordsPerPage int) []content.PageDraft {
	words := strings.Fields(text)
	pages := []content.PageDraft{}
	for start := 0; start < len(words); start += wordsPerPage {
		end := min(start+wordsPerPage, len(words))
		pages = append(pages, content.PageDraft{
			Title:   fmt.Sprintf("Page %d", len(pages)+1),
			Content: strings.Join(words[start:end], " "),
		})
	}
	return pages
}
