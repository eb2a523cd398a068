package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
)

type StoryRepository struct {
	db     *database.DB
	cache  interfaces.ContentCache
	logger *logging.ChanneledLogger
}

func NewStoryRepository(db *database.DB, cache interfaces.ContentCache, logger *logging.ChanneledLogger) *StoryRepository {
	return &StoryRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *StoryRepository) FindByID(ctx context.Context, id string) (*content.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing story query", "id", id)

	story, err := scanStory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Story query failed", "error", err.Error(), "id", id)
		return nil, database.Classify("load story", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Story query completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, id)
	return story, nil
}

// FindAll returns every story, newest first.
func (r *StoryRepository) FindAll(ctx context.Context) ([]*content.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

// Search matches title or description case-insensitively and sorts by title.
func (r *StoryRepository) Search(ctx context.Context, term string) ([]*content.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories
		WHERE LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'
		ORDER BY title COLLATE NOCASE ASC, id ASC`
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return r.list(ctx, query, pattern, pattern)
}

func (r *StoryRepository) list(ctx context.Context, query string, args ...any) ([]*content.Story, error) {
	start := time.Now()
	r.logger.Database().Debug("Executing story list query", "args", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Story list query failed", "error", err.Error())
		return nil, database.Classify("list stories", err)
	}
	defer rows.Close()

	stories := []*content.Story{}
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, database.Classify("scan story", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("list stories", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Story list query completed", "count", len(stories), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "stories")
	return stories, nil
}

func (r *StoryRepository) Store(ctx context.Context, story *content.Story) error {
	return r.insert(ctx, r.db, story)
}

func (r *StoryRepository) insert(ctx context.Context, q database.Querier, story *content.Story) error {
	query := `INSERT INTO stories (` + storyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing story insert", "id", story.ID)

	_, err := q.ExecContext(ctx, query, story.ID, story.Title, story.Description, story.CoverImageURL,
		boolToInt(story.IsPinned), boolToInt(story.AutoGenerated), story.FakeReads, story.FakeLikes,
		story.FakeComments, database.FormatTime(story.CreatedAt), database.FormatTime(story.UpdatedAt))
	if err != nil {
		r.logger.Database().Error("Story insert failed", "error", err.Error(), "id", story.ID)
		return database.Classify("insert story", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Story insert completed", "id", story.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, story.ID)
	return nil
}

func (r *StoryRepository) UpdateCover(ctx context.Context, id, coverImageURL string) error {
	query := `UPDATE stories SET cover_image_url = ?, updated_at = ? WHERE id = ?`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, coverImageURL, database.FormatTime(time.Now()), id)
	if err != nil {
		r.logger.Database().Error("Story cover update failed", "error", err.Error(), "id", id)
		return database.Classify("update story cover", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("story", id)
	}

	r.logger.Database().Info("Story cover update completed", "id", id, "duration", time.Since(start))
	return nil
}

// StoreWithContent writes the story, its chapters and their pages in a single
// transaction. Chapter and page numbers follow draft order starting at 1.
func (r *StoryRepository) StoreWithContent(ctx context.Context, story *content.Story, chapters []content.ChapterDraft) error {
	start := time.Now()
	r.logger.Database().Debug("Executing story bulk insert", "id", story.ID, "chapters", len(chapters), "pages", content.PageCount(chapters))

	chapterQuery := `INSERT INTO chapters (` + chapterColumns + `) VALUES (?, ?, ?, ?, ?)`
	pageQuery := `INSERT INTO pages (` + pageColumns + `) VALUES (?, ?, ?, ?, ?, NULL, ?)`

	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		if err := r.insert(ctx, tx, story); err != nil {
			return err
		}

		// Offsetting timestamps keeps createdAt ordering identical to draft order.
		tick := 0
		stamp := func() string {
			tick++
			return database.FormatTime(story.CreatedAt.Add(time.Duration(tick) * time.Microsecond))
		}

		for i, draft := range chapters {
			chapterID := security.GenerateULID()
			if _, err := tx.ExecContext(ctx, chapterQuery, chapterID, story.ID, i+1, draft.Title, stamp()); err != nil {
				return fmt.Errorf("failed to insert chapter %d: %w", i+1, err)
			}
			for j, page := range draft.Pages {
				if _, err := tx.ExecContext(ctx, pageQuery, security.GenerateULID(), chapterID, j+1, page.Title, page.Content, stamp()); err != nil {
					return fmt.Errorf("failed to insert page %d of chapter %d: %w", j+1, i+1, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Database().Error("Story bulk insert failed", "error", err.Error(), "id", story.ID)
		return database.Classify("store story content", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Story bulk insert completed", "id", story.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "BULK_STORY_INSERT", duration, story.ID)
	return nil
}

// IncrementCounter reads the counter and writes it back plus one. Concurrent bumps
// may be lost; the counters are decorative.
func (r *StoryRepository) IncrementCounter(ctx context.Context, id string, field content.CounterField) error {
	switch field {
	case content.CounterReads, content.CounterLikes, content.CounterComments:
	default:
		return apperr.Invalid("field", fmt.Sprintf("unknown counter %q", field))
	}

	column := string(field)
	var current int
	err := r.db.QueryRowContext(ctx, `SELECT `+column+` FROM stories WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("story", id)
	}
	if err != nil {
		return database.Classify("read story counter", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE stories SET `+column+` = ? WHERE id = ?`, current+1, id); err != nil {
		return database.Classify("write story counter", err)
	}

	r.logger.Database().Debug("Story counter bumped", "id", id, "field", column, "value", current+1)
	return nil
}

// Delete removes the story and everything that hangs off it.
func (r *StoryRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing story delete", "id", id)

	pagesOfStory := `SELECT p.id FROM pages p JOIN chapters c ON c.id = p.chapter_id WHERE c.story_id = ?`

	var chapterIDs []string
	err := database.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		ids, err := queryIDs(ctx, tx, `SELECT id FROM chapters WHERE story_id = ?`, id)
		if err != nil {
			return err
		}
		chapterIDs = ids

		if err := purgeEngagement(ctx, tx, "page", pagesOfStory, id); err != nil {
			return err
		}
		if err := purgeEngagement(ctx, tx, "story", `SELECT ?`, id); err != nil {
			return err
		}

		cleanup := []string{
			`DELETE FROM reading_progress WHERE story_id = ?`,
			`DELETE FROM pages WHERE chapter_id IN (SELECT id FROM chapters WHERE story_id = ?)`,
			`DELETE FROM chapters WHERE story_id = ?`,
		}
		for _, stmt := range cleanup {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete story content: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete story: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return apperr.NotFound("story", id)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Database().Error("Story delete failed", "error", err.Error(), "id", id)
		}
		return database.Classify("delete story", err)
	}

	r.cache.InvalidateChapters(id)
	for _, chapterID := range chapterIDs {
		r.cache.InvalidatePages(chapterID)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Story delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "BULK_STORY_DELETE", duration, id)
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
