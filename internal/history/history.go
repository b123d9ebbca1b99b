// Package history keeps a local ledger of generation attempts in a
// SQLite file so batches can be audited after the fact: what ran, what
// failed at which stage, and where the outputs went.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// Status values recorded per attempt
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Entry is one generation attempt
type Entry struct {
	ID           int64
	RunID        string
	ContentType  string
	ContentID    int
	Category     string
	OutputPath   string
	DurationSec  float64
	PlannedSec   float64
	NarrationSec float64
	Status       string
	Stage        string
	Error        string
	CreatedAt    time.Time
}

// Tally aggregates the ledger by status
type Tally struct {
	Total  int
	Done   int
	Failed int
}

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	content_type  TEXT NOT NULL,
	content_id    INTEGER NOT NULL DEFAULT 0,
	category      TEXT NOT NULL DEFAULT '',
	output_path   TEXT NOT NULL DEFAULT '',
	duration_sec  REAL NOT NULL DEFAULT 0,
	planned_sec   REAL NOT NULL DEFAULT 0,
	narration_sec REAL NOT NULL DEFAULT 0,
	status        TEXT NOT NULL,
	stage         TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
`

// Store wraps the ledger database
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path and ensures the schema
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, kiinerrors.Wrap(err, "creating history directory").
				WithCode(kiinerrors.CodeInternal).
				WithDetail("path", path)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, kiinerrors.Wrap(err, "opening history database").
			WithCode(kiinerrors.CodeInternal).
			WithDetail("path", path)
	}
	// SQLite allows one writer; serializing connections avoids
	// SQLITE_BUSY when batch workers record concurrently.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, kiinerrors.Wrap(err, "pinging history database").
			WithCode(kiinerrors.CodeInternal).
			WithDetail("path", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, kiinerrors.Wrap(err, "migrating history schema").
			WithCode(kiinerrors.CodeInternal).
			WithDetail("path", path)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one attempt to the ledger
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, content_type, content_id, category, output_path,
			duration_sec, planned_sec, narration_sec, status, stage, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.ContentType, e.ContentID, e.Category, e.OutputPath,
		e.DurationSec, e.PlannedSec, e.NarrationSec, e.Status, e.Stage, e.Error, e.CreatedAt)
	if err != nil {
		return kiinerrors.Wrap(err, "recording generation").
			WithCode(kiinerrors.CodeInternal).
			WithDetail("run_id", e.RunID)
	}
	return nil
}

// Recent returns the newest entries, most recent first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, content_type, content_id, category, output_path,
		       duration_sec, planned_sec, narration_sec, status, stage, error, created_at
		FROM generations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, kiinerrors.Wrap(err, "querying history").
			WithCode(kiinerrors.CodeInternal)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.ContentType, &e.ContentID, &e.Category,
			&e.OutputPath, &e.DurationSec, &e.PlannedSec, &e.NarrationSec,
			&e.Status, &e.Stage, &e.Error, &e.CreatedAt); err != nil {
			return nil, kiinerrors.Wrap(err, "scanning history row").
				WithCode(kiinerrors.CodeInternal)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, kiinerrors.Wrap(err, "reading history rows").
			WithCode(kiinerrors.CodeInternal)
	}

	return entries, nil
}

// Tally counts ledger entries by status
func (s *Store) Tally(ctx context.Context) (Tally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM generations GROUP BY status
	`)
	if err != nil {
		return Tally{}, kiinerrors.Wrap(err, "tallying history").
			WithCode(kiinerrors.CodeInternal)
	}
	defer rows.Close()

	var t Tally
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Tally{}, kiinerrors.Wrap(err, "scanning tally row").
				WithCode(kiinerrors.CodeInternal)
		}
		t.Total += count
		switch status {
		case StatusDone:
			t.Done += count
		case StatusFailed:
			t.Failed += count
		}
	}
	if err := rows.Err(); err != nil {
		return Tally{}, kiinerrors.Wrap(err, "reading tally rows").
			WithCode(kiinerrors.CodeInternal)
	}

	return t, nil
}
