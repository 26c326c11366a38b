package records_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/records"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "face_time_report.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parse(t *testing.T, content string) ([]attendance.DurationRecord, error) {
	t.Helper()
	return records.Parse(context.Background(), strings.NewReader(content), "test.csv", ',')
}

func TestLoadRecords_MissingFile_Empty(t *testing.T) {
	// GIVEN: No duration file yet (day zero)
	src := records.New(filepath.Join(t.TempDir(), "face_time_report.csv"))

	// WHEN: Loading
	got, err := src.LoadRecords(context.Background())

	// THEN: Empty set, not an error
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadRecords_CanonicalHeader(t *testing.T) {
	path := writeCSV(t, "identifier,total_seconds,total_minutes\nAlice,5400,90.0\nBob,12.5,0.21\n")

	got, err := records.New(path).LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, attendance.Identifier("Alice"), got[0].Identifier)
	assert.True(t, decimal.NewFromInt(5400).Equal(got[0].TotalSeconds))
	assert.True(t, decimal.RequireFromString("90").Equal(got[0].TotalMinutes))
	assert.True(t, decimal.RequireFromString("0.21").Equal(got[1].TotalMinutes))
}

func TestParse_TrackerHeaderAliases(t *testing.T) {
	got, err := parse(t, "\ufeffName,Total Time (Seconds),Total Time (Minutes)\nAlice,60,1.0\n")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, attendance.Identifier("Alice"), got[0].Identifier)
}

func TestParse_ExtraColumnsIgnored_ExportRoundTrips(t *testing.T) {
	got, err := parse(t, "identifier,total_seconds,total_minutes,status,missing_minutes\nAlice,5400.0,90.0,Present,210.0\nBob,0.0,0.0,Absent,300.0\n")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].TotalMinutes.IsZero())
}

func TestParse_PreservesInputOrderAndDuplicates(t *testing.T) {
	got, err := parse(t, "identifier,total_seconds,total_minutes\nBob,60,1\nAlice,60,1\nBob,120,2\n")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, attendance.Identifier("Bob"), got[0].Identifier)
	assert.Equal(t, attendance.Identifier("Bob"), got[2].Identifier)
}

func TestParse_EmptyCellsAreZero(t *testing.T) {
	got, err := parse(t, "identifier,total_seconds,total_minutes\nAlice,,\n")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].TotalSeconds.IsZero())
	assert.True(t, got[0].TotalMinutes.IsZero())
}

func TestParse_HeaderOnly(t *testing.T) {
	got, err := parse(t, "identifier,total_seconds,total_minutes\n")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse_SemicolonDelimiter(t *testing.T) {
	got, err := records.Parse(context.Background(), strings.NewReader("identifier;total_seconds;total_minutes\nAlice;60;1,5\n"), "eu.csv", ';')
	require.Error(t, err, "comma decimals are not numbers")
	assert.Nil(t, got)

	got, err = records.Parse(context.Background(), strings.NewReader("identifier;total_seconds;total_minutes\nAlice;90;1.5\n"), "eu.csv", ';')
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(got[0].TotalMinutes))
}

func TestParse_DataIntegrityFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		column  string
	}{
		{"empty file", "", 1, ""},
		{"missing minutes column", "identifier,total_seconds\nAlice,60\n", 1, "total_minutes"},
		{"missing identifier column", "who,total_seconds,total_minutes\nAlice,60,1\n", 1, "identifier"},
		{"non-numeric minutes", "identifier,total_seconds,total_minutes\nAlice,60,1\nBob,60,lots\n", 3, "total_minutes"},
		{"negative seconds", "identifier,total_seconds,total_minutes\nAlice,-5,1\n", 2, "total_seconds"},
		{"empty identifier", "identifier,total_seconds,total_minutes\n ,60,1\n", 2, "identifier"},
		{"unterminated quote", "identifier,total_seconds,total_minutes\n\"Alice,60,1\n", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.content)
			require.Error(t, err)
			assert.True(t, attendance.IsDataIntegrity(err))

			var die *attendance.DataIntegrityError
			require.True(t, errors.As(err, &die))
			assert.Equal(t, "test.csv", die.Source)
			if tt.line > 0 {
				assert.Equal(t, tt.line, die.Line)
			}
			assert.Equal(t, tt.column, die.Column)
		})
	}
}

func TestLoadRecords_UnreadableSource(t *testing.T) {
	// A directory at the source path exists but cannot be read as a table
	dir := t.TempDir()
	_, err := records.New(dir).LoadRecords(context.Background())
	require.Error(t, err)
	assert.True(t, attendance.IsDataIntegrity(err))
}
