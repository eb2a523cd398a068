package authoring

import "regexp"

var imageURLPattern = regexp.MustCompile(`(?i)https?://\S+\.(jpg|jpeg|png|gif|webp)`)

// ExtractImageURLs returns every image URL embedded in page text, in order of appearance.
func ExtractImageURLs(text string) []string {
	matches := imageURLPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
