package services

import "github.com/AtRiskMedia/storyreader-go/pkg/config"

// ReaderSettings are the display defaults the reader client starts from.
type ReaderSettings struct {
	TextSize            string   `json:"textSize"`
	ReadingSpeed        string   `json:"readingSpeed"`
	NestedComments      bool     `json:"nestedComments"`
	CommentDisplayDepth int      `json:"commentDisplayDepth"`
	WordsPerPage        int      `json:"wordsPerPage"`
	ContactEnabled      bool     `json:"contactEnabled"`
	ImportFormats       []string `json:"importFormats"`
}

// SettingsService exposes reader variants chosen through configuration.
type SettingsService struct {
	settings ReaderSettings
}

// NewSettingsService snapshots the configured reader settings.
func NewSettingsService(contactEnabled, audioImport bool) *SettingsService {
	formats := []string{FormatText, FormatHTML}
	if audioImport {
		formats = append(formats, FormatAudio)
	}

	depth := config.CommentDisplayDepth
	if !config.CommentsNested {
		depth = 0
	}

	return &SettingsService{settings: ReaderSettings{
		TextSize:            config.ReaderDefaultTextSize,
		ReadingSpeed:        config.ReaderDefaultReadingSpeed,
		NestedComments:      config.CommentsNested,
		CommentDisplayDepth: depth,
		WordsPerPage:        config.SplitWordsPerPage,
		ContactEnabled:      contactEnabled,
		ImportFormats:       formats,
	}}
}

// Settings returns a copy of the reader settings.
func (s *SettingsService) Settings() ReaderSettings {
	out := s.settings
	out.ImportFormats = append([]string(nil), s.settings.ImportFormats...)
	return out
}
