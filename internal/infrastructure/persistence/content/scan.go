// Package content provides the sqlite/libsql repositories for stories, chapters and pages.
package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
)

type scanner interface {
	Scan(dest ...any) error
}

const storyColumns = `id, title, description, cover_image_url, is_pinned, auto_generated,
	fake_reads, fake_likes, fake_comments, created_at, updated_at`

func scanStory(row scanner) (*content.Story, error) {
	var (
		story                content.Story
		cover                sql.NullString
		pinned, autoGen      int
		createdAt, updatedAt string
	)
	if err := row.Scan(&story.ID, &story.Title, &story.Description, &cover, &pinned, &autoGen,
		&story.FakeReads, &story.FakeLikes, &story.FakeComments, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if cover.Valid {
		story.CoverImageURL = &cover.String
	}
	story.IsPinned = pinned == 1
	story.AutoGenerated = autoGen == 1

	var err error
	if story.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if story.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &story, nil
}

const chapterColumns = `id, story_id, chapter_number, title, created_at`

func scanChapter(row scanner) (*content.Chapter, error) {
	var (
		chapter   content.Chapter
		createdAt string
	)
	if err := row.Scan(&chapter.ID, &chapter.StoryID, &chapter.ChapterNumber, &chapter.Title, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if chapter.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &chapter, nil
}

const pageColumns = `id, chapter_id, page_number, title, content, image_url, created_at`

func scanPage(row scanner) (*content.Page, error) {
	var (
		page      content.Page
		image     sql.NullString
		createdAt string
	)
	if err := row.Scan(&page.ID, &page.ChapterID, &page.PageNumber, &page.Title, &page.Content, &image, &createdAt); err != nil {
		return nil, err
	}
	if image.Valid {
		page.ImageURL = &image.String
	}
	var err error
	if page.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &page, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// purgeEngagement removes likes and comments (and likes on those comments) whose
// target is one of the ids selected by idsQuery.
func purgeEngagement(ctx context.Context, tx *sql.Tx, targetType, idsQuery string, args ...any) error {
	statements := []string{
		`DELETE FROM likes WHERE target_type = 'comment' AND target_id IN (
			SELECT id FROM comments WHERE target_type = ? AND target_id IN (` + idsQuery + `))`,
		`DELETE FROM likes WHERE target_type = ? AND target_id IN (` + idsQuery + `)`,
		`DELETE FROM comments WHERE target_type = ? AND target_id IN (` + idsQuery + `)`,
	}
	params := append([]any{targetType}, args...)
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, params...); err != nil {
			return fmt.Errorf("failed to purge %s engagement: %w", targetType, err)
		}
	}
	return nil
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
