package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/attendance"
)

// SheetName is the worksheet holding the attendance table.
const SheetName = "Attendance"

// WriteXLSX writes a workbook with the attendance table, a summary block to the
// right of it, and a column chart of minutes per member.
//
// Layout:
//
//	A1:E1   header
//	A2:En   one row per member
//	G1:H5   summary (expected, total, present, absent)
//	G7      chart anchored below the summary
func WriteXLSX(w io.Writer, report *attendance.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	minutesStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	f.SetColWidth(SheetName, "A", "A", 24)
	f.SetColWidth(SheetName, "B", "E", 16)
	f.SetColWidth(SheetName, "G", "G", 20)

	for i, h := range Header {
		f.SetCellValue(SheetName, cell(i, 1), h)
	}
	f.SetCellStyle(SheetName, cell(0, 1), cell(len(Header)-1, 1), headerStyle)

	for i, r := range report.Rows {
		row := i + 2
		f.SetCellValue(SheetName, cell(0, row), string(r.Identifier))
		f.SetCellValue(SheetName, cell(1, row), r.TotalSeconds.InexactFloat64())
		f.SetCellValue(SheetName, cell(2, row), r.TotalMinutes.InexactFloat64())
		f.SetCellValue(SheetName, cell(3, row), string(r.Status))
		f.SetCellValue(SheetName, cell(4, row), r.MissingMinutes.InexactFloat64())
	}
	if n := len(report.Rows); n > 0 {
		f.SetCellStyle(SheetName, cell(1, 2), cell(2, n+1), minutesStyle)
	}

	summary := [][2]any{
		{"Expected minutes", report.ExpectedMinutes.InexactFloat64()},
		{"Total", report.Summary.Total},
		{"Present", report.Summary.Present},
		{"Absent", report.Summary.Absent},
	}
	f.SetCellValue(SheetName, "G1", "Summary")
	f.SetCellStyle(SheetName, "G1", "H1", headerStyle)
	for i, kv := range summary {
		f.SetCellValue(SheetName, cell(6, i+2), kv[0])
		f.SetCellValue(SheetName, cell(7, i+2), kv[1])
	}

	if n := len(report.Rows); n > 0 {
		if err := f.AddChart(SheetName, "G7", &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$C$1", SheetName),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetName, n+1),
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", SheetName, n+1),
			}},
			Legend: excelize.ChartLegend{Position: "none"},
		}); err != nil {
			return fmt.Errorf("failed to add chart: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cell converts a zero-based column and one-based row to "A1" notation.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
