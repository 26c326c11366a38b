/*
Package attendance provides the roster reconciliation engine.

PURPOSE:
  Merges an authoritative roster of known individuals with sparse duration
  records, classifies each individual as present or absent, and computes how
  much of the expected session time each one missed. Everything else in the
  repository (terminal report, dashboard, exports, snapshot history) consumes
  the rows produced here.

KEY CONCEPTS IN THIS FILE (types.go):
  - Individual: One roster member, identified by name
  - DurationRecord: A prior measurement of accumulated presence time
  - ReconciledRow: One output row per roster member
  - Status: Present or Absent

DESIGN PRINCIPLES:
  1. The roster is authoritative: output has exactly one row per member
  2. Precision: Uses decimal.Decimal so rounding happens once, at the end
  3. Purity: Reconcile has no globals and performs no I/O

USAGE:
  rows, err := attendance.Reconcile(roster, records, attendance.Options{
      ExpectedMinutes: attendance.Minutes(300),
  })

SEE ALSO:
  - reconcile.go: The join-and-derive algorithm
  - engine.go: Loading inputs and producing a Report
  - errors.go: Configuration and data-integrity errors
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Identifier names one roster member. On disk it is a directory name.
type Identifier string

// Individual is a roster member.
type Individual struct {
	Identifier Identifier
}

// NewRoster builds a roster from plain names, preserving order.
func NewRoster(names ...string) []Individual {
	roster := make([]Individual, len(names))
	for i, n := range names {
		roster[i] = Individual{Identifier: Identifier(n)}
	}
	return roster
}

// =============================================================================
// DURATION RECORD - Prior measurement for one individual
// =============================================================================

// DurationRecord is accumulated presence time for one identifier.
// TotalMinutes is trusted as stored; it is never recomputed from TotalSeconds.
type DurationRecord struct {
	Identifier   Identifier
	TotalSeconds decimal.Decimal
	TotalMinutes decimal.Decimal
}

// Minutes is a convenience constructor for minute quantities.
func Minutes(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// =============================================================================
// RECONCILED ROW - One per roster individual
// =============================================================================

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// ReconciledRow is the engine's output for one roster member.
type ReconciledRow struct {
	Identifier     Identifier
	TotalSeconds   decimal.Decimal
	TotalMinutes   decimal.Decimal
	Status         Status
	MissingMinutes decimal.Decimal
}

func (r ReconciledRow) IsPresent() bool { return r.Status == StatusPresent }

// =============================================================================
// REPORT - Reconciled rows plus derived views
// =============================================================================

// Summary counts rows by status. Total == Present + Absent.
type Summary struct {
	Total   int
	Present int
	Absent  int
}

// Report is the result of one engine run.
type Report struct {
	GeneratedAt     time.Time
	ExpectedMinutes decimal.Decimal
	Rows            []ReconciledRow
	Summary         Summary
}

// Summarize counts present and absent rows.
func Summarize(rows []ReconciledRow) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		if r.IsPresent() {
			s.Present++
		} else {
			s.Absent++
		}
	}
	return s
}

// FormatDecimal prints d with at least one fractional digit ("90.0") and
// without dropping any precision it already carries ("42.15").
func FormatDecimal(d decimal.Decimal) string {
	places := int32(1)
	if exp := -d.Exponent(); exp > places {
		places = exp
	}
	return d.StringFixed(places)
}
