/*
Package records reads prior duration measurements from a delimited file.

FORMAT:
  identifier,total_seconds,total_minutes
  Alice,5400,90.0
  Bob,120,2.0

  Column names are matched case-insensitively. The headers written by the
  tracker ("Name", "Total Time (Seconds)", "Total Time (Minutes)") are accepted
  as aliases. Extra columns are ignored, so an exported report can be fed back
  in as the next run's duration source.

MISSING FILE:
  Not an error. A roster with no measurements yet is valid and reconciles to
  all-absent rows.

FAILURE:
  Anything else that prevents reading every row cleanly is a data-integrity
  error. There is no skip-and-continue.
*/
package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// Canonical column names.
const (
	ColumnIdentifier   = "identifier"
	ColumnTotalSeconds = "total_seconds"
	ColumnTotalMinutes = "total_minutes"
)

// columnAliases maps lower-cased header text to a canonical column.
var columnAliases = map[string]string{
	"identifier":           ColumnIdentifier,
	"name":                 ColumnIdentifier,
	"total_seconds":        ColumnTotalSeconds,
	"total time (seconds)": ColumnTotalSeconds,
	"total_minutes":        ColumnTotalMinutes,
	"total time (minutes)": ColumnTotalMinutes,
}

var mandatoryColumns = []string{ColumnIdentifier, ColumnTotalSeconds, ColumnTotalMinutes}

// CSVFile is a file-backed record source.
type CSVFile struct {
	Path      string
	Delimiter rune
}

// New creates a CSV record source with a comma delimiter.
func New(path string) *CSVFile {
	return &CSVFile{Path: path, Delimiter: ','}
}

var _ attendance.RecordSource = (*CSVFile)(nil)

// LoadRecords reads every row. A missing file yields no records.
func (c *CSVFile) LoadRecords(ctx context.Context) ([]attendance.DurationRecord, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []attendance.DurationRecord{}, nil
		}
		return nil, &attendance.DataIntegrityError{Source: c.Path, Reason: "cannot open", Err: err}
	}
	defer f.Close()

	return Parse(ctx, f, c.Path, c.Delimiter)
}

// Parse reads records from r. source names r in errors.
func Parse(ctx context.Context, r io.Reader, source string, delimiter rune) ([]attendance.DurationRecord, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &attendance.DataIntegrityError{Source: source, Line: 1, Reason: "missing header row"}
		}
		return nil, &attendance.DataIntegrityError{Source: source, Line: 1, Reason: "malformed header", Err: err}
	}

	index, missing := mapColumns(header)
	if missing != "" {
		return nil, &attendance.DataIntegrityError{Source: source, Line: 1, Column: missing, Reason: "missing mandatory column"}
	}

	records := []attendance.DurationRecord{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &attendance.DataIntegrityError{Source: source, Line: line, Reason: "malformed row", Err: err}
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		rec, rowErr := parseRow(row, index)
		if rowErr != nil {
			rowErr.Source = source
			rowErr.Line = line
			return nil, rowErr
		}
		records = append(records, rec)
	}

	return records, nil
}

// mapColumns returns the position of each canonical column, or the name of
// the first mandatory column that is absent.
func mapColumns(header []string) (map[string]int, string) {
	index := make(map[string]int, len(mandatoryColumns))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := columnAliases[name]; ok {
			if _, dup := index[canonical]; !dup {
				index[canonical] = i
			}
		}
	}
	for _, col := range mandatoryColumns {
		if _, ok := index[col]; !ok {
			return nil, col
		}
	}
	return index, ""
}

func parseRow(row []string, index map[string]int) (attendance.DurationRecord, *attendance.DataIntegrityError) {
	id := strings.TrimSpace(field(row, index[ColumnIdentifier]))
	if id == "" {
		return attendance.DurationRecord{}, &attendance.DataIntegrityError{Column: ColumnIdentifier, Reason: "empty identifier"}
	}

	seconds, err := parseDuration(field(row, index[ColumnTotalSeconds]))
	if err != nil {
		return attendance.DurationRecord{}, &attendance.DataIntegrityError{Column: ColumnTotalSeconds, Reason: err.Error()}
	}
	minutes, err := parseDuration(field(row, index[ColumnTotalMinutes]))
	if err != nil {
		return attendance.DurationRecord{}, &attendance.DataIntegrityError{Column: ColumnTotalMinutes, Reason: err.Error()}
	}

	return attendance.DurationRecord{
		Identifier:   attendance.Identifier(id),
		TotalSeconds: seconds,
		TotalMinutes: minutes,
	}, nil
}

// parseDuration accepts non-negative decimals. Empty cells count as zero,
// matching how the tracker leaves unmeasured cells blank.
func parseDuration(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative duration: %s", s)
	}
	return d, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
