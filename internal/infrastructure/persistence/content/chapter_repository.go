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

type ChapterRepository struct {
	db     *database.DB
	cache  interfaces.ContentCache
	logger *logging.ChanneledLogger
}

func NewChapterRepository(db *database.DB, cache interfaces.ContentCache, logger *logging.ChanneledLogger) *ChapterRepository {
	return &ChapterRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *ChapterRepository) FindByID(ctx context.Context, id string) (*content.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = ?`

	start := time.Now()
	chapter, err := scanChapter(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Chapter query failed", "error", err.Error(), "id", id)
		return nil, database.Classify("load chapter", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), id)
	return chapter, nil
}

// FindByStoryID returns the story's chapters by number, then creation time.
func (r *ChapterRepository) FindByStoryID(ctx context.Context, storyID string) ([]*content.Chapter, error) {
	if chapters, found := r.cache.GetChapters(storyID); found {
		return chapters, nil
	}
	generation := r.cache.ChaptersGeneration(storyID)

	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE story_id = ?
		ORDER BY chapter_number ASC, created_at ASC, id ASC`

	start := time.Now()
	r.logger.Database().Debug("Executing chapter list query", "storyId", storyID)

	rows, err := r.db.QueryContext(ctx, query, storyID)
	if err != nil {
		r.logger.Database().Error("Chapter list query failed", "error", err.Error(), "storyId", storyID)
		return nil, database.Classify("list chapters", err)
	}
	defer rows.Close()

	chapters := []*content.Chapter{}
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, database.Classify("scan chapter", err)
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list chapters", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Chapter list query completed", "storyId", storyID, "count", len(chapters), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, storyID)
	if !r.cache.SetChapters(storyID, generation, chapters) {
		r.logger.Cache().Debug("Chapter list changed during load, not cached", "storyId", storyID)
	}
	return chapters, nil
}

// RefreshByStoryID drops the cached chapter list and reloads it from the database.
func (r *ChapterRepository) RefreshByStoryID(ctx context.Context, storyID string) ([]*content.Chapter, error) {
	r.cache.InvalidateChapters(storyID)
	return r.FindByStoryID(ctx, storyID)
}

func (r *ChapterRepository) StoreNext(ctx context.Context, chapter *content.Chapter) error {
	start := time.Now()
	r.logger.Database().Debug("Executing chapter insert", "id", chapter.ID, "storyId", chapter.StoryID)

	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chapters WHERE story_id = ?`, chapter.StoryID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count chapters: %w", err)
		}
		chapter.ChapterNumber = count + 1

		_, err := tx.ExecContext(ctx, `INSERT INTO chapters (`+chapterColumns+`) VALUES (?, ?, ?, ?, ?)`,
			chapter.ID, chapter.StoryID, chapter.ChapterNumber, chapter.Title, database.FormatTime(chapter.CreatedAt))
		return err
	})
	if err != nil {
		r.logger.Database().Error("Chapter insert failed", "error", err.Error(), "id", chapter.ID)
		return database.Classify("insert chapter", err)
	}

	r.cache.InvalidateChapters(chapter.StoryID)

	duration := time.Since(start)
	r.logger.Database().Info("Chapter insert completed", "id", chapter.ID, "chapterNumber", chapter.ChapterNumber, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "CHAPTER_INSERT", duration, chapter.StoryID)
	return nil
}

// Delete removes the chapter, its pages and the engagement on those pages. Sibling
// chapters keep their numbers.
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	pagesOfChapter := `SELECT id FROM pages WHERE chapter_id = ?`

	var storyID string
	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT story_id FROM chapters WHERE id = ?`, id).Scan(&storyID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("chapter", id)
		}
		if err != nil {
			return fmt.Errorf("failed to load chapter: %w", err)
		}

		if err := purgeEngagement(ctx, tx, "page", pagesOfChapter, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reading_progress WHERE page_id IN (`+pagesOfChapter+`)`, id); err != nil {
			return fmt.Errorf("failed to clear reading progress: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE chapter_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete pages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete chapter: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Database().Error("Chapter delete failed", "error", err.Error(), "id", id)
		}
		return database.Classify("delete chapter", err)
	}

	r.cache.InvalidateChapters(storyID)
	r.cache.InvalidatePages(id)
	r.logger.Database().Info("Chapter delete completed", "id", id, "duration", time.Since(start))
	return nil
}
