/*
store.go - Persistence interface for reconciled report snapshots

PURPOSE:
  A Run is an immutable copy of one Report plus where its inputs came from.
  Runs are append-only: there is no Update and no Delete.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, used by the CLI and server
  - attendance/store/memory.go: In-memory for testing
*/
package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunID identifies a persisted snapshot.
type RunID string

// NewRunID returns a random run identifier.
func NewRunID() RunID { return RunID(uuid.NewString()) }

// Run is a persisted Report.
type Run struct {
	ID              RunID
	CreatedAt       time.Time
	RosterRoot      string
	DurationSource  string
	ExpectedMinutes decimal.Decimal
	Rows            []ReconciledRow
	Summary         Summary
}

// NewRun snapshots a report.
func NewRun(report *Report, rosterRoot, durationSource string) Run {
	rows := make([]ReconciledRow, len(report.Rows))
	copy(rows, report.Rows)
	return Run{
		ID:              NewRunID(),
		CreatedAt:       report.GeneratedAt,
		RosterRoot:      rosterRoot,
		DurationSource:  durationSource,
		ExpectedMinutes: report.ExpectedMinutes,
		Rows:            rows,
		Summary:         report.Summary,
	}
}

// Report returns the run as a Report for rendering and export.
func (r Run) Report() *Report {
	return &Report{
		GeneratedAt:     r.CreatedAt,
		ExpectedMinutes: r.ExpectedMinutes,
		Rows:            r.Rows,
		Summary:         r.Summary,
	}
}

// RunStore persists snapshots.
type RunStore interface {
	// SaveRun persists a run with its rows atomically.
	SaveRun(ctx context.Context, run Run) error

	// GetRun returns ErrRunNotFound when id is unknown.
	GetRun(ctx context.Context, id RunID) (*Run, error)

	// ListRuns returns runs newest first, without rows. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}

// Snapshotter runs the engine and persists the resulting report.
type Snapshotter struct {
	Engine         *Engine
	Store          RunStore
	RosterRoot     string
	DurationSource string
}

// Snapshot reconciles now and saves the result. Nothing is saved when the
// run fails.
func (s *Snapshotter) Snapshot(ctx context.Context) (*Run, error) {
	report, err := s.Engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	run := NewRun(report, s.RosterRoot, s.DurationSource)
	if err := s.Store.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return &run, nil
}
