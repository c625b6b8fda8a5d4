// Package history records one row per loop iteration in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS iterations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	batch       INTEGER NOT NULL,
	repo        TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	batch_size  INTEGER NOT NULL DEFAULT 0,
	successes   INTEGER NOT NULL DEFAULT 0,
	failures    INTEGER NOT NULL DEFAULT 0,
	publish_url TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_iterations_started ON iterations(started_at);
`

// Ensure Store implements domain.HistoryRepository interface.
var _ domain.HistoryRepository = (*Store)(nil)

// Store provides SQLite-backed iteration history.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the history database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	// busy_timeout applies to every pooled connection: concurrent writers wait up to 5s.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an iteration row.
func (s *Store) Record(rec domain.IterationRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO iterations (batch, repo, outcome, batch_size, successes, failures, publish_url, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Batch,
		rec.Repo,
		string(rec.Outcome),
		rec.BatchSize,
		rec.Successes,
		rec.Failures,
		rec.PublishURL,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record iteration: %w", err)
	}
	return nil
}

// Recent returns up to limit rows, newest first. A non-positive limit returns every row.
func (s *Store) Recent(limit int) ([]domain.IterationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, batch, repo, outcome, batch_size, successes, failures, publish_url, started_at, finished_at
		FROM iterations ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.IterationRecord
	for rows.Next() {
		var (
			rec               domain.IterationRecord
			outcome           string
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &rec.Batch, &rec.Repo, &outcome, &rec.BatchSize,
			&rec.Successes, &rec.Failures, &rec.PublishURL, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Outcome = domain.IterationOutcome(outcome)
		var err error
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("iteration %d: parse started_at: %w", rec.ID, err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("iteration %d: parse finished_at: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
