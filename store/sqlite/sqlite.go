/*
Package sqlite provides a SQLite-backed attendance.RunStore.

PURPOSE:
  Persists reconciled report snapshots so past sessions can be listed,
  re-rendered and re-exported without the original inputs.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on runs or run_rows
  - No DELETE statements on runs or run_rows
  - Saving an existing run ID fails

KEY TABLES:
  runs:     One row per snapshot (inputs, expected minutes, summary counts)
  run_rows: One row per roster member per snapshot, ordered by position

  Decimal columns are stored as TEXT so values round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with WAL so readers
  don't block the snapshot scheduler's writes.

USAGE:
  store, err := sqlite.New("./attendance.db")
  if err != nil {
      return err
  }
  defer store.Close()

  err = store.SaveRun(ctx, attendance.NewRun(report, rosterRoot, source))

MIGRATION:
  Schema is created on New().

SEE ALSO:
  - attendance/store.go: RunStore interface
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/attendance"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements attendance.RunStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ attendance.RunStore = (*Store)(nil)

// New opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		roster_root TEXT,
		duration_source TEXT,
		expected_minutes TEXT NOT NULL,
		total INTEGER NOT NULL,
		present INTEGER NOT NULL,
		absent INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at);

	CREATE TABLE IF NOT EXISTS run_rows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		total_seconds TEXT NOT NULL,
		total_minutes TEXT NOT NULL,
		status TEXT NOT NULL,
		missing_minutes TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUN STORE (attendance.RunStore interface)
// =============================================================================

// SaveRun inserts the run and its rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, run attendance.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, roster_root, duration_source, expected_minutes, total, present, absent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(run.ID),
		run.CreatedAt.UTC().Format(timeLayout),
		nullString(run.RosterRoot),
		nullString(run.DurationSource),
		run.ExpectedMinutes.String(),
		run.Summary.Total,
		run.Summary.Present,
		run.Summary.Absent,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("run %s already exists", run.ID)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO run_rows
		(run_id, position, identifier, total_seconds, total_minutes, status, missing_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range run.Rows {
		if _, err := stmt.ExecContext(ctx,
			string(run.ID), i, string(r.Identifier),
			r.TotalSeconds.String(), r.TotalMinutes.String(),
			string(r.Status), r.MissingMinutes.String(),
		); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	return sqlTx.Commit()
}

// GetRun returns the run with its rows in roster order.
func (s *Store) GetRun(ctx context.Context, id attendance.RunID) (*attendance.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, roster_root, duration_source, expected_minutes, total, present, absent
		FROM runs WHERE id = ?
	`, string(id))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, attendance.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, total_seconds, total_minutes, status, missing_minutes
		FROM run_rows WHERE run_id = ?
		ORDER BY position ASC
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query run rows: %w", err)
	}
	defer rows.Close()

	run.Rows = []attendance.ReconciledRow{}
	for rows.Next() {
		var (
			r                                attendance.ReconciledRow
			ident, status                    string
			seconds, minutes, missingMinutes string
		)
		if err := rows.Scan(&ident, &seconds, &minutes, &status, &missingMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Identifier = attendance.Identifier(ident)
		r.Status = attendance.Status(status)
		if r.TotalSeconds, err = decimal.NewFromString(seconds); err != nil {
			return nil, fmt.Errorf("corrupt total_seconds for %s: %w", ident, err)
		}
		if r.TotalMinutes, err = decimal.NewFromString(minutes); err != nil {
			return nil, fmt.Errorf("corrupt total_minutes for %s: %w", ident, err)
		}
		if r.MissingMinutes, err = decimal.NewFromString(missingMinutes); err != nil {
			return nil, fmt.Errorf("corrupt missing_minutes for %s: %w", ident, err)
		}
		run.Rows = append(run.Rows, r)
	}

	return &run, rows.Err()
}

// ListRuns returns runs newest first without their rows.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]attendance.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, roster_root, duration_source, expected_minutes, total, present, absent
		FROM runs
		ORDER BY created_at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []attendance.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (attendance.Run, error) {
	var (
		run                        attendance.Run
		id, createdAt, expected    string
		rosterRoot, durationSource sql.NullString
	)
	err := sc.Scan(&id, &createdAt, &rosterRoot, &durationSource, &expected,
		&run.Summary.Total, &run.Summary.Present, &run.Summary.Absent)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ID = attendance.RunID(id)
	run.RosterRoot = rosterRoot.String
	run.DurationSource = durationSource.String
	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return run, fmt.Errorf("corrupt created_at for run %s: %w", id, err)
	}
	if run.ExpectedMinutes, err = decimal.NewFromString(expected); err != nil {
		return run, fmt.Errorf("corrupt expected_minutes for run %s: %w", id, err)
	}
	return run, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
