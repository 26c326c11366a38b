package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/export"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

const dashboardTitle = "Class Attendance Report"

type dashboardView struct {
	Title           string
	GeneratedAt     string
	ExpectedMinutes string
	Summary         attendance.Summary
	Rows            []dashboardRow
	Formats         []export.Format
	ErrorTitle      string
	Error           string
}

type dashboardRow struct {
	Identifier     string
	PhotoURL       string
	TotalMinutes   string
	Status         string
	StatusClass    string
	MissingMinutes string
	BarPercent     float64
}

// Dashboard reconciles now and renders the HTML view. Failures render an
// error panel with the same status code the JSON endpoints would use.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{Title: dashboardTitle}
	status := http.StatusOK

	report, err := h.Engine.Run(r.Context())
	if err != nil {
		status = statusFor(err)
		view.ErrorTitle = "Attendance could not be reconciled"
		view.Error = err.Error()
		if status >= 500 {
			h.logger().Error("dashboard reconciliation failed", zap.Error(err))
		}
	} else {
		view = h.dashboardView(report)
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		h.logger().Error("dashboard render failed", zap.Error(err))
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (h *Handler) dashboardView(report *attendance.Report) dashboardView {
	scale := report.ExpectedMinutes
	for _, row := range report.Rows {
		if row.TotalMinutes.GreaterThan(scale) {
			scale = row.TotalMinutes
		}
	}

	rows := make([]dashboardRow, len(report.Rows))
	for i, row := range report.Rows {
		rows[i] = dashboardRow{
			Identifier:     string(row.Identifier),
			TotalMinutes:   attendance.FormatDecimal(row.TotalMinutes),
			Status:         string(row.Status),
			StatusClass:    "absent",
			MissingMinutes: row.MissingMinutes.StringFixed(attendance.MissingPrecision),
			BarPercent:     barPercent(row.TotalMinutes, scale),
		}
		if row.IsPresent() {
			rows[i].StatusClass = "present"
		}
		if _, ok := h.Roster.Photo(row.Identifier); ok {
			rows[i].PhotoURL = photoURL(row.Identifier)
		}
	}

	return dashboardView{
		Title:           dashboardTitle,
		GeneratedAt:     report.GeneratedAt.Format("2006-01-02 15:04 MST"),
		ExpectedMinutes: attendance.FormatDecimal(report.ExpectedMinutes),
		Summary:         report.Summary,
		Rows:            rows,
		Formats:         []export.Format{export.FormatCSV, export.FormatXLSX, export.FormatJSON},
	}
}

func barPercent(value, scale decimal.Decimal) float64 {
	if !value.IsPositive() || !scale.IsPositive() {
		return 0
	}
	return value.Div(scale).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}
