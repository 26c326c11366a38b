package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
)

type workspace struct {
	roster    string
	durations string
	db        string
}

func newWorkspace(t *testing.T, members ...string) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		roster:    filepath.Join(dir, "known_faces"),
		durations: filepath.Join(dir, "face_time_report.csv"),
		db:        filepath.Join(dir, "attendance.db"),
	}
	require.NoError(t, os.Mkdir(ws.roster, 0o755))
	for _, m := range members {
		require.NoError(t, os.Mkdir(filepath.Join(ws.roster, m), 0o755))
	}
	return ws
}

func (ws workspace) writeDurations(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(ws.durations, []byte(body), 0o644))
}

func (ws workspace) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append(args,
		"--roster", ws.roster,
		"--durations", ws.durations,
		"--db", ws.db,
		"--log-level", "error",
	)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestReport(t *testing.T) {
	ws := newWorkspace(t, "Alice", "Bob")
	ws.writeDurations(t, "identifier,total_seconds,total_minutes\nAlice,5400,90\n")

	code, out, _ := ws.run(t, "report", "--no-chart")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "210.0")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "300.0")
	assert.NotContains(t, out, "Minutes attended")
}

func TestReport_ExpectedFlag(t *testing.T) {
	ws := newWorkspace(t, "Alice")
	ws.writeDurations(t, "identifier,total_seconds,total_minutes\nAlice,5400,90\n")

	code, out, _ := ws.run(t, "report", "--expected", "120")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "30.0")
}

func TestExitCodes(t *testing.T) {
	t.Run("configuration error", func(t *testing.T) {
		ws := newWorkspace(t)
		code, _, stderr := ws.run(t, "report")
		assert.Equal(t, exitConfiguration, code)
		assert.Contains(t, stderr, "no known individuals configured")
	})

	t.Run("data integrity error", func(t *testing.T) {
		ws := newWorkspace(t, "Alice")
		ws.writeDurations(t, "identifier,total_seconds,total_minutes\nAlice,-5,1\n")
		code, _, stderr := ws.run(t, "report")
		assert.Equal(t, exitDataIntegrity, code)
		assert.Contains(t, stderr, "line 2")
	})

	t.Run("invalid expected minutes", func(t *testing.T) {
		ws := newWorkspace(t, "Alice")
		code, _, _ := ws.run(t, "report", "--expected", "-1")
		assert.Equal(t, exitConfiguration, code)
	})

	t.Run("unknown run", func(t *testing.T) {
		ws := newWorkspace(t, "Alice")
		code, _, _ := ws.run(t, "runs", "show", "missing")
		assert.Equal(t, exitFailure, code)
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitConfiguration, exitCode(&attendance.ConfigurationError{Setting: "roster_root"}))
	assert.Equal(t, exitDataIntegrity, exitCode(&attendance.DataIntegrityError{Source: "x"}))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestExport_ToFileAndStdout(t *testing.T) {
	ws := newWorkspace(t, "Alice", "Bob")
	ws.writeDurations(t, "identifier,total_seconds,total_minutes\nBob,60,1\n")

	code, out, _ := ws.run(t, "export", "--out", "-")
	require.Equal(t, exitOK, code)
	assert.Equal(t,
		"identifier,total_seconds,total_minutes,status,missing_minutes\n"+
			"Alice,0.0,0.0,Absent,300.0\n"+
			"Bob,60.0,1.0,Present,299.0\n",
		out)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	code, out, _ = ws.run(t, "export", "--format", "xlsx", "--out", path)
	require.Equal(t, exitOK, code)
	assert.Equal(t, path, strings.TrimSpace(out))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestSnapshotAndRuns(t *testing.T) {
	ws := newWorkspace(t, "Alice")
	ws.writeDurations(t, "identifier,total_seconds,total_minutes\nAlice,5400,90\n")

	// GIVEN: A persisted snapshot
	code, out, _ := ws.run(t, "snapshot")
	require.Equal(t, exitOK, code)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	// WHEN: Listing runs
	code, out, _ = ws.run(t, "runs")
	require.Equal(t, exitOK, code)

	// THEN: The snapshot is listed
	assert.Contains(t, out, id)

	// AND: It can be shown and exported after the input changes
	ws.writeDurations(t, "identifier,total_seconds,total_minutes\n")
	code, out, _ = ws.run(t, "runs", "show", id)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Run "+id)
	assert.Contains(t, out, "Present")

	code, out, _ = ws.run(t, "runs", "show", id, "--format", "csv")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Alice,5400.0,90.0,Present,210.0")
}
