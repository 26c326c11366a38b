/*
Package export serializes reconciled reports for download.

FORMATS:
  csv   identifier,total_seconds,total_minutes,status,missing_minutes
        UTF-8, header row, one row per roster member in roster order.
        Re-ingestible by records.CSVFile as a future duration source.
  xlsx  Same columns on an "Attendance" sheet, summary block, column chart.
  json  Report with summary and rows; numbers as JSON numbers.

USAGE:
  format, err := export.ParseFormat("xlsx")
  err = export.Write(w, format, report)
*/
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/warp/attendance-engine/attendance"
)

// DefaultBaseName is the download name without extension.
const DefaultBaseName = "class_attendance_report"

// Header is the column order shared by CSV and XLSX.
var Header = []string{"identifier", "total_seconds", "total_minutes", "status", "missing_minutes"}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv, xlsx or json. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want csv, xlsx or json)", s)
}

// ContentType returns the MIME type for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns the default download name for f.
func (f Format) Filename() string {
	return DefaultBaseName + "." + string(f)
}

// Write serializes report in the given format.
func Write(w io.Writer, f Format, report *attendance.Report) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, report.Rows)
	case FormatXLSX:
		return WriteXLSX(w, report)
	case FormatJSON:
		return WriteJSON(w, report)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// =============================================================================
// JSON
// =============================================================================

// SummaryJSON is the wire form of attendance.Summary.
type SummaryJSON struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// RowJSON is the wire form of attendance.ReconciledRow.
type RowJSON struct {
	Identifier     string  `json:"identifier"`
	TotalSeconds   float64 `json:"total_seconds"`
	TotalMinutes   float64 `json:"total_minutes"`
	Status         string  `json:"status"`
	MissingMinutes float64 `json:"missing_minutes"`
}

// ReportJSON is the wire form of attendance.Report.
type ReportJSON struct {
	GeneratedAt     string      `json:"generated_at"`
	ExpectedMinutes float64     `json:"expected_minutes"`
	Summary         SummaryJSON `json:"summary"`
	Rows            []RowJSON   `json:"rows"`
}

// ToSummaryJSON converts a summary for JSON output.
func ToSummaryJSON(s attendance.Summary) SummaryJSON {
	return SummaryJSON{Total: s.Total, Present: s.Present, Absent: s.Absent}
}

// ToRowsJSON converts rows for JSON output, preserving order.
func ToRowsJSON(rows []attendance.ReconciledRow) []RowJSON {
	out := make([]RowJSON, len(rows))
	for i, r := range rows {
		out[i] = RowJSON{
			Identifier:     string(r.Identifier),
			TotalSeconds:   r.TotalSeconds.InexactFloat64(),
			TotalMinutes:   r.TotalMinutes.InexactFloat64(),
			Status:         string(r.Status),
			MissingMinutes: r.MissingMinutes.InexactFloat64(),
		}
	}
	return out
}

// ToReportJSON converts a report for JSON output.
func ToReportJSON(report *attendance.Report) ReportJSON {
	return ReportJSON{
		GeneratedAt:     report.GeneratedAt.UTC().Format(time.RFC3339),
		ExpectedMinutes: report.ExpectedMinutes.InexactFloat64(),
		Summary:         ToSummaryJSON(report.Summary),
		Rows:            ToRowsJSON(report.Rows),
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *attendance.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToReportJSON(report))
}
