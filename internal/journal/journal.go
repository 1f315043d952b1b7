// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal persists a history of processing runs to SQLite.
//
// The journal is append-only during processing and is never consulted to
// answer or skip a lookup; it exists so the researcher can audit what was
// run, when, and with which flags.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is the journal database filename used when no path is
// configured.
const DefaultPath = "doi-audit.db"

// Journal manages the run-history SQLite database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path, creating the
// schema if it does not exist.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			retrieve INTEGER NOT NULL,
			resolve INTEGER NOT NULL,
			sample_size INTEGER NOT NULL DEFAULT 0,
			row_count INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			status_counts TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one recorded processing run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	InputPath  string
	OutputPath string
	Retrieve   bool
	Resolve    bool
	SampleSize int

	Rows    int
	OK      int
	Failed  int
	Skipped int

	// StatusCounts maps status column values to row counts.
	StatusCounts map[string]int
}

// Record appends a run to the journal.
func (j *Journal) Record(ctx context.Context, r Run) error {
	countsJSON, err := json.Marshal(r.StatusCounts)
	if err != nil {
		return fmt.Errorf("marshaling status counts: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, input_path, output_path, retrieve, resolve,
			sample_size, row_count, ok, failed, skipped, status_counts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339), r.InputPath, r.OutputPath,
		boolInt(r.Retrieve), boolInt(r.Resolve), r.SampleSize,
		r.Rows, r.OK, r.Failed, r.Skipped, string(countsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit
// defaults to 20.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, input_path, output_path, retrieve, resolve,
			sample_size, row_count, ok, failed, skipped, status_counts
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  string
			retrieve   int
			resolve    int
			countsJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.InputPath, &r.OutputPath,
			&retrieve, &resolve, &r.SampleSize,
			&r.Rows, &r.OK, &r.Failed, &r.Skipped, &countsJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if t, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
			r.StartedAt = t
		}
		r.Retrieve = retrieve != 0
		r.Resolve = resolve != 0
		if countsJSON.Valid && countsJSON.String != "" {
			if err := json.Unmarshal([]byte(countsJSON.String), &r.StatusCounts); err != nil {
				return nil, fmt.Errorf("parsing status counts for run %d: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
