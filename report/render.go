/*
Package report renders an attendance report for the terminal.

LAYOUT:
  Class Attendance Report            <- title, generation time
  [ Class 300.0 min ] [ Total 3 ] [ Present 2 ] [ Absent 1 ]
  identifier | total_minutes | status | missing_minutes
  ...
  Minutes attended
  alice  ██████████░░░░░░░░░░  90.0
  ...

Styling follows the terminal's color profile; with no TTY it degrades to
plain text, which is what the tests rely on.
*/
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/attendance"
)

// DefaultBarWidth is the number of cells a full-session bar occupies.
const DefaultBarWidth = 40

const timeLayout = "2006-01-02 15:04 MST"

// Options tune rendering.
type Options struct {
	Title    string
	BarWidth int
	// HideChart drops the bar chart, leaving summary and table.
	HideChart bool
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Class Attendance Report"
	}
	if o.BarWidth <= 0 {
		o.BarWidth = DefaultBarWidth
	}
	return o
}

// =============================================================================
// STYLES
// =============================================================================

var (
	colorPrimary = lipgloss.Color("#101F38")
	colorPresent = lipgloss.Color("#8BC34A")
	colorAbsent  = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#6b7280")
	colorInfo    = lipgloss.Color("#2196F3")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	boldStyle  = lipgloss.NewStyle().Bold(true)

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			MarginRight(1)

	presentStyle = lipgloss.NewStyle().Foreground(colorPresent)
	absentStyle  = lipgloss.NewStyle().Foreground(colorAbsent)
)

func statusStyle(s attendance.Status) lipgloss.Style {
	if s == attendance.StatusPresent {
		return presentStyle
	}
	return absentStyle
}

// =============================================================================
// RENDER
// =============================================================================

// Render returns the full terminal view of report.
func Render(report *attendance.Report, opts Options) string {
	opts = opts.withDefaults()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(opts.Title))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("Generated %s, expected %s minutes",
		report.GeneratedAt.Format(timeLayout), attendance.FormatDecimal(report.ExpectedMinutes))))
	sb.WriteString("\n\n")

	sb.WriteString(Summary(report.Summary, report.ExpectedMinutes))
	sb.WriteString("\n\n")
	sb.WriteString(Table(report.Rows))

	if !opts.HideChart && len(report.Rows) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Chart(report.Rows, report.ExpectedMinutes, opts.BarWidth))
	}
	return sb.String()
}

// Summary renders the class duration and count tiles side by side.
func Summary(s attendance.Summary, expected decimal.Decimal) string {
	tile := func(label, value string, style lipgloss.Style) string {
		return tileStyle.Render(fmt.Sprintf("%s %s", mutedStyle.Render(label), style.Render(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Class", attendance.FormatDecimal(expected)+" min", boldStyle),
		tile("Total", fmt.Sprint(s.Total), boldStyle),
		tile("Present", fmt.Sprint(s.Present), presentStyle.Bold(true)),
		tile("Absent", fmt.Sprint(s.Absent), absentStyle.Bold(true)),
	)
}

// Table renders one line per row with aligned columns.
func Table(rows []attendance.ReconciledRow) string {
	headers := []string{"identifier", "total_minutes", "status", "missing_minutes"}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{
			string(r.Identifier),
			attendance.FormatDecimal(r.TotalMinutes),
			string(r.Status),
			r.MissingMinutes.StringFixed(attendance.MissingPrecision),
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	sep := mutedStyle.Render("|")
	headerCell := boldStyle.Padding(0, 1)
	bodyCell := lipgloss.NewStyle().Padding(0, 1)

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(headerCell.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for ri, row := range cells {
		for i, c := range row {
			if i > 0 {
				sb.WriteString(sep)
			}
			style := bodyCell
			if i == 2 {
				style = style.Inherit(statusStyle(rows[ri].Status))
			}
			if i == 1 || i == 3 {
				style = style.Align(lipgloss.Right)
			}
			sb.WriteString(style.Width(widths[i]).Render(c))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Chart renders a horizontal bar per row. A full bar is the larger of expected
// and the longest attended time, so over-attendance never overflows.
func Chart(rows []attendance.ReconciledRow, expected decimal.Decimal, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	scale := expected
	labelWidth := 0
	for _, r := range rows {
		if r.TotalMinutes.GreaterThan(scale) {
			scale = r.TotalMinutes
		}
		labelWidth = max(labelWidth, lipgloss.Width(string(r.Identifier)))
	}

	label := lipgloss.NewStyle().Width(labelWidth + 2)

	var sb strings.Builder
	sb.WriteString(boldStyle.Render("Minutes attended"))
	sb.WriteString("\n")
	for _, r := range rows {
		filled := barCells(r.TotalMinutes, scale, width)
		bar := statusStyle(r.Status).Render(strings.Repeat("█", filled)) +
			mutedStyle.Render(strings.Repeat("░", width-filled))
		sb.WriteString(label.Render(string(r.Identifier)))
		sb.WriteString(bar)
		sb.WriteString("  ")
		sb.WriteString(attendance.FormatDecimal(r.TotalMinutes))
		sb.WriteString("\n")
	}
	return sb.String()
}

// barCells returns how many of width cells value fills against scale. Any
// positive value shows at least one cell.
func barCells(value, scale decimal.Decimal, width int) int {
	if !value.IsPositive() || !scale.IsPositive() {
		return 0
	}
	n := int(value.Div(scale).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	return min(max(n, 1), width)
}

// Runs renders snapshot history, one line per run.
func Runs(runs []attendance.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("No snapshots yet.") + "\n"
	}

	headers := []string{"id", "created", "total", "present", "absent"}
	cells := make([][]string, len(runs))
	for i, r := range runs {
		cells[i] = []string{
			string(r.ID),
			r.CreatedAt.Local().Format(timeLayout),
			fmt.Sprint(r.Summary.Total),
			fmt.Sprint(r.Summary.Present),
			fmt.Sprint(r.Summary.Absent),
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	cellStyle := lipgloss.NewStyle().PaddingRight(2)
	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(boldStyle.Inherit(cellStyle).Width(widths[i] + 2).Render(h))
	}
	sb.WriteString("\n")
	for _, row := range cells {
		for i, c := range row {
			sb.WriteString(cellStyle.Width(widths[i] + 2).Render(c))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
