// Package sqlite is the local store: the same repositories as the postgres
// package, backed by a single SQLite file through sqlx.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// timeLayout keeps timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open connects to the database at path (":memory:" for a throwaway one) and creates the schema.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite doesn't support multiple writers; one connection also keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := initializeSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// initializeSchema creates the tables if they don't exist.
func initializeSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"questions", `
			CREATE TABLE IF NOT EXISTS questions (
				id               TEXT PRIMARY KEY,
				bank_id          TEXT    NOT NULL,
				subject          TEXT    NOT NULL DEFAULT '',
				body             TEXT    NOT NULL,
				options          TEXT    NOT NULL,
				answer_index     INTEGER NOT NULL,
				expected_seconds INTEGER NOT NULL DEFAULT 0 CHECK (expected_seconds >= 0),
				position         INTEGER NOT NULL DEFAULT 0,
				created_at       TEXT    NOT NULL
			)`},
		{"questions index", `CREATE INDEX IF NOT EXISTS idx_questions_bank ON questions (bank_id, position)`},
		{"question_mastery", `
			CREATE TABLE IF NOT EXISTS question_mastery (
				student_id          TEXT    NOT NULL,
				question_id         TEXT    NOT NULL,
				consecutive_correct INTEGER NOT NULL DEFAULT 0 CHECK (consecutive_correct >= 0),
				ease_factor         REAL    NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
				interval_days       INTEGER NOT NULL DEFAULT 1 CHECK (interval_days >= 1),
				next_review_date    TEXT    NOT NULL,
				review_count        INTEGER NOT NULL DEFAULT 0,
				last_quality        INTEGER NOT NULL DEFAULT 0,
				last_reviewed_at    TEXT,
				PRIMARY KEY (student_id, question_id)
			)`},
		{"students", `
			CREATE TABLE IF NOT EXISTS students (
				id                TEXT PRIMARY KEY,
				telegram_id       INTEGER UNIQUE,
				chat_id           INTEGER NOT NULL DEFAULT 0,
				bank_id           TEXT    NOT NULL DEFAULT '',
				reminders_enabled BOOLEAN NOT NULL DEFAULT true,
				created_at        TEXT    NOT NULL
			)`},
		{"review_events", `
			CREATE TABLE IF NOT EXISTS review_events (
				id                 TEXT PRIMARY KEY,
				student_id         TEXT    NOT NULL,
				question_id        TEXT    NOT NULL,
				is_correct         BOOLEAN NOT NULL,
				time_spent_seconds REAL    NOT NULL,
				quality            INTEGER NOT NULL,
				ease_factor        REAL    NOT NULL,
				interval_days      INTEGER NOT NULL,
				answered_at        TEXT    NOT NULL
			)`},
		{"review_events index", `CREATE INDEX IF NOT EXISTS idx_review_events_student ON review_events (student_id, answered_at)`},
	}

	for _, st := range statements {
		if _, err := db.ExecContext(ctx, st.sql); err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}
