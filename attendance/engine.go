/*
engine.go - Load roster and records, reconcile, summarize

PURPOSE:
  Wires the two loaders to Reconcile. Each Run loads its inputs fresh, so the
  engine keeps no state between runs and can be shared by concurrent callers.

FAILURE POLICY:
  Any load failure is fatal for that run. There is no partial or degraded
  output and no retry.

  roster load fails   -> ConfigurationError (returned as-is)
  records load fails  -> DataIntegrityError (returned as-is)

SEE ALSO:
  - roster/roster.go: Directory-backed RosterSource
  - records/records.go: CSV-backed RecordSource
*/
package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RosterSource enumerates the authoritative set of individuals.
type RosterSource interface {
	LoadRoster(ctx context.Context) ([]Individual, error)
}

// RecordSource yields prior duration measurements. A source with nothing to
// read returns an empty slice, not an error.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]DurationRecord, error)
}

// Observer is notified after every run. observability.Observer implements it.
type Observer interface {
	ObserveRun(summary Summary, elapsed time.Duration, err error)
}

// Engine runs the full load-reconcile-summarize pipeline.
type Engine struct {
	Roster   RosterSource
	Records  RecordSource
	Options  Options
	Logger   *zap.Logger
	Observer Observer

	now func() time.Time
}

// NewEngine creates an engine. A nil logger is replaced by a no-op logger.
func NewEngine(roster RosterSource, records RecordSource, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Roster:  roster,
		Records: records,
		Options: opts,
		Logger:  logger,
		now:     time.Now,
	}
}

// Run loads both inputs and reconciles them into a Report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := e.clock()
	report, err := e.run(ctx)

	if e.Observer != nil {
		var summary Summary
		if report != nil {
			summary = report.Summary
		}
		e.Observer.ObserveRun(summary, e.clock().Sub(start), err)
	}
	return report, err
}

func (e *Engine) run(ctx context.Context) (*Report, error) {
	log := e.logger()

	if err := e.Options.Validate(); err != nil {
		return nil, err
	}

	roster, err := e.Roster.LoadRoster(ctx)
	if err != nil {
		log.Error("roster load failed", zap.Error(err))
		return nil, err
	}

	records, err := e.Records.LoadRecords(ctx)
	if err != nil {
		log.Error("duration records load failed", zap.Error(err))
		return nil, err
	}

	if dups := DuplicateIdentifiers(records); len(dups) > 0 {
		names := make([]string, len(dups))
		for i, d := range dups {
			names[i] = string(d)
		}
		log.Warn("duplicate duration records",
			zap.Strings("identifiers", names),
			zap.String("policy", string(e.Options.Duplicates)),
		)
	}

	rows, err := Reconcile(roster, records, e.Options)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:     e.clock().UTC(),
		ExpectedMinutes: e.Options.ExpectedMinutes,
		Rows:            rows,
		Summary:         Summarize(rows),
	}

	log.Info("reconciliation complete",
		zap.Int("roster", len(roster)),
		zap.Int("records", len(records)),
		zap.Int("present", report.Summary.Present),
		zap.Int("absent", report.Summary.Absent),
	)
	return report, nil
}

func (e *Engine) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
