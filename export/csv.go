package export

import (
	"encoding/csv"
	"io"

	"github.com/warp/attendance-engine/attendance"
)

// WriteCSV writes the header and one line per row, in row order.
func WriteCSV(w io.Writer, rows []attendance.ReconciledRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			string(r.Identifier),
			attendance.FormatDecimal(r.TotalSeconds),
			attendance.FormatDecimal(r.TotalMinutes),
			string(r.Status),
			r.MissingMinutes.StringFixed(attendance.MissingPrecision),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
