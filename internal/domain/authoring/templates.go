package authoring

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"gopkg.in/yaml.v3"
)

//go:embed story_templates.yaml
var templatesYAML []byte

// StoryTemplate is one entry of the generator catalogue.
type StoryTemplate struct {
	Title       string `yaml:"title"`
	Genre       string `yaml:"genre"`
	Description string `yaml:"description"`
	Content     string `yaml:"content"`
}

// Catalogue is the parsed generator seed file.
type Catalogue struct {
	Variations []string        `yaml:"variations"`
	Templates  []StoryTemplate `yaml:"templates"`
}

// GeneratedStory is what the generator produces before anything is stored.
type GeneratedStory struct {
	Title       string
	Description string
	Genre       string
	Reads       int
	Likes       int
	Comments    int
	Chapter     content.ChapterDraft
}

// LoadCatalogue parses the embedded template file.
func LoadCatalogue() (*Catalogue, error) {
	return ParseCatalogue(templatesYAML)
}

// ParseCatalogue parses a template file and checks it has something to pick from.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse story templates: %w", err)
	}
	if len(cat.Templates) == 0 || len(cat.Variations) == 0 {
		return nil, errors.New("story templates need at least one template and one title variation")
	}
	return &cat, nil
}

// Generate picks a template and a title variation using rng and builds the story.
// The title keeps every word of the template title except the first, prefixed by
// the variation. Counters land in reads 1000-5999, likes 500-2499, comments 100-899.
func (c *Catalogue) Generate(rng *rand.Rand) GeneratedStory {
	tmpl := c.Templates[rng.IntN(len(c.Templates))]
	variation := c.Variations[rng.IntN(len(c.Variations))]

	title := variation
	if words := strings.Fields(tmpl.Title); len(words) > 1 {
		title = variation + " " + strings.Join(words[1:], " ")
	}

	return GeneratedStory{
		Title:       title,
		Description: tmpl.Description,
		Genre:       tmpl.Genre,
		Reads:       1000 + rng.IntN(5000),
		Likes:       500 + rng.IntN(2000),
		Comments:    100 + rng.IntN(800),
		Chapter: content.ChapterDraft{
			Title: "Chapter 1: The Beginning",
			Pages: paragraphPages(tmpl.Content),
		},
	}
}

// paragraphPages makes one page per blank-line separated paragraph. The first is
// titled "Opening", the rest "Page N" where N is the 1-based position.
func paragraphPages(text string) []content.PageDraft {
	var pages []content.PageDraft
	for _, part := range strings.Split(strings.TrimSpace(text), "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		title := "Opening"
		if len(pages) > 0 {
			title = fmt.Sprintf("Page %d", len(pages)+1)
		}
		pages = append(pages, content.PageDraft{Title: title, Content: part})
	}
	return pages
}
