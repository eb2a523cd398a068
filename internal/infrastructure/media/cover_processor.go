// Package media stores story cover images and their resized WebP versions
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// CoverWidths are the WebP widths written for every cover. The first one is the
// version stories link to.
var CoverWidths = []int{600, 300}

const coverQuality = 85

// CoverProcessor writes covers below basePath/covers and returns URLs under /media.
type CoverProcessor struct {
	basePath string
	logger   *logging.ChanneledLogger
}

// NewCoverProcessor creates a processor rooted at the media directory
func NewCoverProcessor(basePath string, logger *logging.ChanneledLogger) *CoverProcessor {
	return &CoverProcessor{basePath: basePath, logger: logger}
}

// CoverDir is the directory covers are written to.
func (p *CoverProcessor) CoverDir() string {
	return filepath.Join(p.basePath, "covers")
}

// ProcessCover saves the original image and its WebP thumbnails. Data that does
// not decode as an image is a validation error.
func (p *CoverProcessor) ProcessCover(ctx context.Context, storyID string, data []byte) (string, error) {
	start := time.Now()

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", apperr.Invalid("image", "unsupported image format")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", apperr.Invalid("image", "image could not be decoded")
	}

	dir := p.CoverDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create covers directory: %w", err)
	}

	basename := fmt.Sprintf("%s-%d", storyID, time.Now().UnixMilli())
	originalPath := filepath.Join(dir, fmt.Sprintf("%s.%s", basename, extensionFor(format)))
	if err := os.WriteFile(originalPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write original cover: %w", err)
	}

	written := []string{originalPath}
	cleanup := func() {
		for _, path := range written {
			os.Remove(path)
		}
	}

	for _, width := range CoverWidths {
		if err := ctx.Err(); err != nil {
			cleanup()
			return "", err
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		thumbPath := filepath.Join(dir, thumbnailName(basename, width))
		if err := webp.Save(thumbPath, resized, &webp.Options{Quality: coverQuality}); err != nil {
			cleanup()
			return "", fmt.Errorf("failed to save WebP cover %s: %w", filepath.Base(thumbPath), err)
		}
		written = append(written, thumbPath)
	}

	url := "/media/covers/" + thumbnailName(basename, CoverWidths[0])
	p.logger.Authoring().Info("Cover processed",
		"storyId", storyID,
		"format", format,
		"bounds", img.Bounds().String(),
		"files", len(written),
		"duration", time.Since(start))
	return url, nil
}

func thumbnailName(basename string, width int) string {
	return fmt.Sprintf("%s-%d.webp", basename, width)
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	default:
		return format
	}
}
