// Package dbtest opens throwaway sqlite databases with the full schema for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	schema "github.com/AtRiskMedia/storyreader-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/persistence/database"
)

// Open creates a sqlite file under t.TempDir, applies the schema and closes it on cleanup.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.NewConnectionWithLogger(database.Options{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := schema.NewTableCreator().CreateSchema(context.Background(), db.DB); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}
