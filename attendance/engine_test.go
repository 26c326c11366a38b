package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

type fakeRoster struct {
	roster []attendance.Individual
	err    error
}

func (f fakeRoster) LoadRoster(ctx context.Context) ([]attendance.Individual, error) {
	return f.roster, f.err
}

type fakeRecords struct {
	records []attendance.DurationRecord
	err     error
	calls   *int
}

func (f fakeRecords) LoadRecords(ctx context.Context) ([]attendance.DurationRecord, error) {
	if f.calls != nil {
		*f.calls++
	}
	return f.records, f.err
}

type recordingObserver struct {
	summaries []attendance.Summary
	errs      []error
}

func (o *recordingObserver) ObserveRun(s attendance.Summary, elapsed time.Duration, err error) {
	o.summaries = append(o.summaries, s)
	o.errs = append(o.errs, err)
}

func TestEngine_Run_BuildsReport(t *testing.T) {
	engine := attendance.NewEngine(
		fakeRoster{roster: attendance.NewRoster("Alice", "Bob")},
		fakeRecords{records: []attendance.DurationRecord{rec("Alice", 5400, 90), rec("Alice", 6000, 100)}},
		opts(300),
		nil,
	)
	obs := &recordingObserver{}
	engine.Observer = obs

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assertDecimal(t, "100", report.Rows[0].TotalMinutes, "last duplicate wins")
	assert.Equal(t, attendance.Summary{Total: 2, Present: 1, Absent: 1}, report.Summary)
	assertDecimal(t, "300", report.ExpectedMinutes)
	assert.False(t, report.GeneratedAt.IsZero())

	require.Len(t, obs.summaries, 1)
	assert.Equal(t, report.Summary, obs.summaries[0])
	assert.NoError(t, obs.errs[0])
}

func TestEngine_Run_RosterFailureIsFatal(t *testing.T) {
	// GIVEN: A roster source that reports no individuals
	rosterErr := &attendance.ConfigurationError{Setting: "roster_root", Value: "/nowhere", Err: attendance.ErrEmptyRoster}
	calls := 0
	engine := attendance.NewEngine(fakeRoster{err: rosterErr}, fakeRecords{calls: &calls}, opts(300), nil)
	obs := &recordingObserver{}
	engine.Observer = obs

	// WHEN: Running
	report, err := engine.Run(context.Background())

	// THEN: Nothing is produced and records are never read
	assert.Nil(t, report)
	assert.True(t, attendance.IsConfiguration(err))
	assert.Equal(t, 0, calls)
	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
}

func TestEngine_Run_RecordFailureIsFatal(t *testing.T) {
	recErr := &attendance.DataIntegrityError{Source: "report.csv", Column: "total_minutes", Reason: "missing column"}
	engine := attendance.NewEngine(
		fakeRoster{roster: attendance.NewRoster("Alice")},
		fakeRecords{err: recErr},
		opts(300),
		nil,
	)

	report, err := engine.Run(context.Background())
	assert.Nil(t, report)
	assert.True(t, attendance.IsDataIntegrity(err))
	assert.False(t, attendance.IsConfiguration(err))
}

func TestEngine_Run_InvalidOptions(t *testing.T) {
	engine := attendance.NewEngine(fakeRoster{roster: attendance.NewRoster("Alice")}, fakeRecords{}, opts(0), nil)
	_, err := engine.Run(context.Background())
	assert.True(t, attendance.IsConfiguration(err))
}

// =============================================================================
// RUN SNAPSHOTS
// =============================================================================

func TestNewRun_CopiesRows(t *testing.T) {
	engine := attendance.NewEngine(fakeRoster{roster: attendance.NewRoster("Alice")}, fakeRecords{}, opts(300), nil)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	run := attendance.NewRun(report, "known_faces", "face_time_report.csv")
	report.Rows[0].Identifier = "mutated"

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, attendance.Identifier("Alice"), run.Rows[0].Identifier)
	assert.Equal(t, report.GeneratedAt, run.CreatedAt)
	assert.Equal(t, run.Summary, run.Report().Summary)
}

func TestMemoryStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	defer s.Close()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		run := attendance.Run{
			ID:              attendance.RunID(name),
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
			ExpectedMinutes: attendance.DefaultExpectedMinutes,
			Rows:            []attendance.ReconciledRow{{Identifier: "Alice", Status: attendance.StatusAbsent}},
			Summary:         attendance.Summary{Total: 1, Absent: 1},
		}
		require.NoError(t, s.SaveRun(ctx, run))
	}

	got, err := s.GetRun(ctx, "second")
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)

	_, err = s.GetRun(ctx, "missing")
	assert.True(t, attendance.IsNotFound(err))

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, attendance.RunID("third"), runs[0].ID)
	assert.Equal(t, attendance.RunID("second"), runs[1].ID)
	assert.Nil(t, runs[0].Rows, "listing omits rows")
}

func TestSnapshotter_PersistsSuccessfulRun(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	snap := &attendance.Snapshotter{
		Engine:         attendance.NewEngine(fakeRoster{roster: attendance.NewRoster("Alice", "Bob")}, fakeRecords{}, opts(300), nil),
		Store:          s,
		RosterRoot:     "known_faces",
		DurationSource: "face_time_report.csv",
	}

	run, err := snap.Snapshot(ctx)
	require.NoError(t, err)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "known_faces", got.RosterRoot)
	assert.Equal(t, 2, got.Summary.Absent)
}

func TestSnapshotter_FailedRunSavesNothing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	snap := &attendance.Snapshotter{
		Engine: attendance.NewEngine(fakeRoster{err: &attendance.ConfigurationError{Setting: "roster_root"}}, fakeRecords{}, opts(300), nil),
		Store:  s,
	}

	_, err := snap.Snapshot(ctx)
	require.Error(t, err)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
