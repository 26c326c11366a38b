/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication. Report, summary and
  row shapes are shared with the JSON export (export.ReportJSON) so a
  downloaded report and an API response are interchangeable.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - export/export.go: ReportJSON, SummaryJSON, RowJSON
*/
package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/export"
)

// RosterEntryDTO is one roster member with photo availability.
type RosterEntryDTO struct {
	Identifier string `json:"identifier"`
	HasPhoto   bool   `json:"has_photo"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// RosterResponse wraps the roster listing.
type RosterResponse struct {
	Root    string           `json:"root"`
	Members []RosterEntryDTO `json:"members"`
}

// RunDTO is a persisted snapshot. Rows are omitted from listings.
type RunDTO struct {
	ID              string             `json:"id"`
	CreatedAt       string             `json:"created_at"`
	RosterRoot      string             `json:"roster_root,omitempty"`
	DurationSource  string             `json:"duration_source,omitempty"`
	ExpectedMinutes float64            `json:"expected_minutes"`
	Summary         export.SummaryJSON `json:"summary"`
	Rows            []export.RowJSON   `json:"rows,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toRunDTO(run attendance.Run, withRows bool) RunDTO {
	dto := RunDTO{
		ID:              string(run.ID),
		CreatedAt:       run.CreatedAt.UTC().Format(time.RFC3339),
		RosterRoot:      run.RosterRoot,
		DurationSource:  run.DurationSource,
		ExpectedMinutes: run.ExpectedMinutes.InexactFloat64(),
		Summary:         export.ToSummaryJSON(run.Summary),
	}
	if withRows {
		dto.Rows = export.ToRowsJSON(run.Rows)
	}
	return dto
}

func toRunDTOs(runs []attendance.Run) []RunDTO {
	dtos := make([]RunDTO, len(runs))
	for i, r := range runs {
		dtos[i] = toRunDTO(r, false)
	}
	return dtos
}

func photoURL(id attendance.Identifier) string {
	return fmt.Sprintf("/api/roster/%s/photo", url.PathEscape(string(id)))
}
