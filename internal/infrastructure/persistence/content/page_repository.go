package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
)

type PageRepository struct {
	db     *database.DB
	cache  interfaces.ContentCache
	logger *logging.ChanneledLogger
}

func NewPageRepository(db *database.DB, cache interfaces.ContentCache, logger *logging.ChanneledLogger) *PageRepository {
	return &PageRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *PageRepository) FindByID(ctx context.Context, id string) (*content.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`
	return r.findOne(ctx, query, id)
}

// FindLatest returns the most recently created page across all stories.
func (r *PageRepository) FindLatest(ctx context.Context) (*content.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.findOne(ctx, query)
}

func (r *PageRepository) findOne(ctx context.Context, query string, args ...any) (*content.Page, error) {
	start := time.Now()
	r.logger.Database().Debug("Executing page query", "args", args)

	page, err := scanPage(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Page query failed", "error", err.Error())
		return nil, database.Classify("load page", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), page.ChapterID)
	return page, nil
}

// FindByChapterID returns the chapter's pages by number, then creation time.
func (r *PageRepository) FindByChapterID(ctx context.Context, chapterID string) ([]*content.Page, error) {
	if pages, found := r.cache.GetPages(chapterID); found {
		return pages, nil
	}
	generation := r.cache.PagesGeneration(chapterID)

	query := `SELECT ` + pageColumns + ` FROM pages WHERE chapter_id = ?
		ORDER BY page_number ASC, created_at ASC, id ASC`

	start := time.Now()
	r.logger.Database().Debug("Executing page list query", "chapterId", chapterID)

	rows, err := r.db.QueryContext(ctx, query, chapterID)
	if err != nil {
		r.logger.Database().Error("Page list query failed", "error", err.Error(), "chapterId", chapterID)
		return nil, database.Classify("list pages", err)
	}
	defer rows.Close()

	pages := []*content.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, database.Classify("scan page", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list pages", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Page list query completed", "chapterId", chapterID, "count", len(pages), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, chapterID)
	if !r.cache.SetPages(chapterID, generation, pages) {
		r.logger.Cache().Debug("Page list changed during load, not cached", "chapterId", chapterID)
	}
	return pages, nil
}

// RefreshByChapterID drops the cached page list and reloads it from the database.
func (r *PageRepository) RefreshByChapterID(ctx context.Context, chapterID string) ([]*content.Page, error) {
	r.cache.InvalidatePages(chapterID)
	return r.FindByChapterID(ctx, chapterID)
}

// FindStoryID returns "" when the page does not exist.
func (r *PageRepository) FindStoryID(ctx context.Context, pageID string) (string, error) {
	query := `SELECT c.story_id FROM pages p JOIN chapters c ON c.id = p.chapter_id WHERE p.id = ?`

	var storyID string
	err := r.db.QueryRowContext(ctx, query, pageID).Scan(&storyID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Database().Error("Page story lookup failed", "error", err.Error(), "pageId", pageID)
		return "", database.Classify("resolve page story", err)
	}
	return storyID, nil
}

func (r *PageRepository) StoreNext(ctx context.Context, page *content.Page) error {
	start := time.Now()
	r.logger.Database().Debug("Executing page insert", "id", page.ID, "chapterId", page.ChapterID)

	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE chapter_id = ?`, page.ChapterID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count pages: %w", err)
		}
		page.PageNumber = count + 1

		_, err := tx.ExecContext(ctx, `INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			page.ID, page.ChapterID, page.PageNumber, page.Title, page.Content, page.ImageURL, database.FormatTime(page.CreatedAt))
		return err
	})
	if err != nil {
		r.logger.Database().Error("Page insert failed", "error", err.Error(), "id", page.ID)
		return database.Classify("insert page", err)
	}

	r.cache.InvalidatePages(page.ChapterID)

	duration := time.Since(start)
	r.logger.Database().Info("Page insert completed", "id", page.ID, "pageNumber", page.PageNumber, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "PAGE_INSERT", duration, page.ChapterID)
	return nil
}

// Delete removes the page with its likes and comments. Sibling pages keep their numbers.
func (r *PageRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()

	var chapterID string
	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT chapter_id FROM pages WHERE id = ?`, id).Scan(&chapterID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("page", id)
		}
		if err != nil {
			return fmt.Errorf("failed to load page: %w", err)
		}

		if err := purgeEngagement(ctx, tx, "page", `SELECT ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reading_progress WHERE page_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear reading progress: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete page: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Database().Error("Page delete failed", "error", err.Error(), "id", id)
		}
		return database.Classify("delete page", err)
	}

	r.cache.InvalidatePages(chapterID)
	r.logger.Database().Info("Page delete completed", "id", id, "duration", time.Since(start))
	return nil
}
