// Package database provides schema creation and demo seeding
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes. It is idempotent.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedDemoContent adds the "Demo" story (two chapters holding two pages and one page)
// when the stories table is empty. It reports whether anything was inserted.
func (tc *TableCreator) SeedDemoContent(ctx context.Context, db *sql.DB) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count stories: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	stamp := func(offset int) string {
		return now.Add(time.Duration(offset) * time.Millisecond).Format("2006-01-02T15:04:05.000000000Z")
	}

	storyID := security.GenerateULID()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stories (id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		storyID, "Demo", "A short story to try the reader with.", stamp(0), stamp(0)); err != nil {
		return false, fmt.Errorf("failed to insert demo story: %w", err)
	}

	demo := []struct {
		title string
		pages []string
	}{
		{"The Door", []string{"The door had always been locked.", "Today it stood open."}},
		{"The Room", []string{"Inside, the room was full of clocks, all stopped at midnight."}},
	}

	offset := 1
	for i, ch := range demo {
		chapterID := security.GenerateULID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chapters (id, story_id, chapter_number, title, created_at) VALUES (?, ?, ?, ?, ?)`,
			chapterID, storyID, i+1, ch.title, stamp(offset)); err != nil {
			return false, fmt.Errorf("failed to insert demo chapter: %w", err)
		}
		offset++
		for j, body := range ch.pages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pages (id, chapter_id, page_number, title, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				security.GenerateULID(), chapterID, j+1, fmt.Sprintf("Page %d", j+1), body, stamp(offset)); err != nil {
				return false, fmt.Errorf("failed to insert demo page: %w", err)
			}
			offset++
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit demo content: %w", err)
	}
	return true, nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		cover_image_url TEXT,
		is_pinned INTEGER NOT NULL DEFAULT 0,
		auto_generated INTEGER NOT NULL DEFAULT 0,
		fake_reads INTEGER NOT NULL DEFAULT 0,
		fake_likes INTEGER NOT NULL DEFAULT 0,
		fake_comments INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
		chapter_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		chapter_id TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		image_url TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id TEXT PRIMARY KEY,
		target_type TEXT NOT NULL CHECK (target_type IN ('story', 'page', 'comment')),
		target_id TEXT NOT NULL,
		user_session TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (target_type, target_id, user_session)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		target_type TEXT NOT NULL CHECK (target_type IN ('story', 'page')),
		target_id TEXT NOT NULL,
		parent_comment_id TEXT REFERENCES comments(id) ON DELETE CASCADE,
		user_name TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reading_progress (
		user_session TEXT NOT NULL,
		story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
		page_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_session, story_id)
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_chapters_story ON chapters(story_id, chapter_number)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_chapter ON pages(chapter_id, page_number)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_created ON pages(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_target ON likes(target_type, target_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_target ON comments(target_type, target_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_comment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_progress_page ON reading_progress(page_id)`,
}
