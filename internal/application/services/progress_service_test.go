package services

import (
	"context"
	"testing"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressSequenceGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story, pages := f.build(t, "Progress", 3)

	_, err := f.progress.Get(ctx, "session_a", story.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	applied, err := f.progress.Save(ctx, "session_a", story.ID, pages[0][2].ID, 5)
	require.NoError(t, err)
	assert.True(t, applied)

	// a late response carrying an older position is ignored
	applied, err = f.progress.Save(ctx, "session_a", story.ID, pages[0][0].ID, 3)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = f.progress.Save(ctx, "session_a", story.ID, pages[0][1].ID, 5)
	require.NoError(t, err)
	assert.False(t, applied, "equal seq does not overwrite")

	got, err := f.progress.Get(ctx, "session_a", story.ID)
	require.NoError(t, err)
	assert.Equal(t, pages[0][2].ID, got.PageID)
	assert.Equal(t, int64(5), got.Seq)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.StaleProgressTotal))

	applied, err = f.progress.Save(ctx, "session_a", story.ID, pages[0][1].ID, 6)
	require.NoError(t, err)
	assert.True(t, applied)

	// sessions are independent
	_, err = f.progress.Get(ctx, "session_b", story.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProgressValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	story, pages := f.build(t, "Mine", 1)
	other, otherPages := f.build(t, "Theirs", 1)
	require.NotEqual(t, story.ID, other.ID)

	_, err := f.progress.Save(ctx, "", story.ID, pages[0][0].ID, 1)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.progress.Save(ctx, "session_a", story.ID, pages[0][0].ID, -1)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.progress.Save(ctx, "session_a", story.ID, otherPages[0][0].ID, 1)
	verr, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "pageId", verr.Field)

	_, err = f.progress.Save(ctx, "session_a", story.ID, "missing", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.progress.Get(ctx, " ", story.ID)
	assert.True(t, apperr.IsValidation(err))
}
