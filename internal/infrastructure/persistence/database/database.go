// Package database provides the core functionality for creating and managing
// the story reader's database connection.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
	"github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// TimeFormat is the fixed-width UTC layout used for every stored timestamp, so
// that lexical order in SQL matches chronological order.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	UseTurso bool
}

// Options selects and tunes the backing store.
type Options struct {
	SQLitePath      string
	TursoURL        string
	TursoToken      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// OptionsFromConfig builds Options from the package-level configuration.
func OptionsFromConfig() Options {
	return Options{
		SQLitePath:      config.DatabasePath,
		TursoURL:        config.TursoDatabaseURL,
		TursoToken:      config.TursoAuthToken,
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(config.DBConnMaxIdleMinutes) * time.Minute,
	}
}

// sqliteDSN enables foreign keys and a busy timeout on every pooled connection.
// Write transactions begin IMMEDIATE so count-then-insert sequences serialize.
func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
}

// NewConnectionWithLogger opens Turso through libsql when a URL and token are
// configured, and a local sqlite3 file otherwise.
func NewConnectionWithLogger(opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()

	var (
		conn     *sql.DB
		err      error
		useTurso = opts.TursoURL != "" && opts.TursoToken != ""
		driver   = "sqlite3"
	)

	if useTurso {
		driver = "libsql"
		logger.Database().Debug("Creating new database connection", "driverName", driver, "databaseURL", opts.TursoURL)
		conn, err = sql.Open(driver, opts.TursoURL+"?authToken="+opts.TursoToken)
	} else {
		logger.Database().Debug("Creating new database connection", "driverName", driver, "path", opts.SQLitePath)
		if dir := filepath.Dir(opts.SQLitePath); dir != "" && dir != "." {
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", mkErr)
			}
		}
		conn, err = sql.Open(driver, sqliteDSN(opts.SQLitePath))
	}
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driver)
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driver)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driverName", driver, "duration", duration)
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", duration, "system")

	return &DB{DB: conn, UseTurso: useTurso}, nil
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in a transaction, committing on success and rolling back on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure
// from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	// libsql reports constraint failures as plain text
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses a stored timestamp, accepting RFC3339 variants written by other tools.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(TimeFormat, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
