/*
reconcile.go - Left-join the roster onto duration records and derive status

ALGORITHM:
  1. Index records by identifier (duplicate resolution per DuplicatePolicy)
  2. Walk the roster in order; a lookup miss means zero time
  3. Present iff total minutes > 0 (any positive time counts)
  4. Missing = max(0, expected - total), rounded to one decimal place
  5. Emit rows in roster order, never re-sorted

ROUNDING:
  Only MissingMinutes is rounded, and only at the final step. TotalMinutes is
  copied verbatim from the record so exports round-trip without drift.

EXAMPLE:
  roster:  [Alice, Bob]
  records: [{Alice, 5400s, 90.0m}]
  expected: 300

  Alice  90.0  Present  210.0
  Bob     0.0  Absent   300.0
*/
package attendance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MissingPrecision is the number of decimal places kept in MissingMinutes.
const MissingPrecision int32 = 1

// DefaultExpectedMinutes is one five-hour session.
var DefaultExpectedMinutes = decimal.NewFromInt(300)

// DuplicatePolicy decides which record wins when an identifier repeats.
type DuplicatePolicy string

const (
	LastWins  DuplicatePolicy = "last"
	FirstWins DuplicatePolicy = "first"
)

// ParseDuplicatePolicy accepts "last" or "first". Empty means LastWins.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LastWins:
		return LastWins, nil
	case FirstWins:
		return FirstWins, nil
	}
	return "", &ConfigurationError{Setting: "duplicate_policy", Value: s, Reason: `must be "last" or "first"`}
}

// Options controls a reconciliation.
type Options struct {
	ExpectedMinutes decimal.Decimal
	Duplicates      DuplicatePolicy
}

// DefaultOptions returns a 300 minute session with last-write-wins.
func DefaultOptions() Options {
	return Options{ExpectedMinutes: DefaultExpectedMinutes, Duplicates: LastWins}
}

// Validate rejects a non-positive expected duration or unknown policy.
func (o Options) Validate() error {
	if !o.ExpectedMinutes.IsPositive() {
		return &ConfigurationError{
			Setting: "expected_minutes",
			Value:   o.ExpectedMinutes.String(),
			Reason:  "must be positive",
		}
	}
	if _, err := ParseDuplicatePolicy(string(o.Duplicates)); err != nil {
		return err
	}
	return nil
}

// Reconcile produces one row per roster individual, in roster order.
// Records whose identifier is not on the roster are discarded.
func Reconcile(roster []Individual, records []DurationRecord, opts Options) ([]ReconciledRow, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, &ConfigurationError{Setting: "roster", Err: ErrEmptyRoster}
	}

	lookup := indexRecords(records, opts.Duplicates)

	rows := make([]ReconciledRow, len(roster))
	for i, ind := range roster {
		rec, ok := lookup[ind.Identifier]
		if !ok {
			rec = DurationRecord{Identifier: ind.Identifier, TotalSeconds: decimal.Zero, TotalMinutes: decimal.Zero}
		}
		rows[i] = deriveRow(ind.Identifier, rec, opts.ExpectedMinutes)
	}
	return rows, nil
}

func indexRecords(records []DurationRecord, policy DuplicatePolicy) map[Identifier]DurationRecord {
	lookup := make(map[Identifier]DurationRecord, len(records))
	for _, rec := range records {
		if _, seen := lookup[rec.Identifier]; seen && policy == FirstWins {
			continue
		}
		lookup[rec.Identifier] = rec
	}
	return lookup
}

func deriveRow(id Identifier, rec DurationRecord, expected decimal.Decimal) ReconciledRow {
	status := StatusAbsent
	if rec.TotalMinutes.IsPositive() {
		status = StatusPresent
	}

	missing := expected.Sub(rec.TotalMinutes)
	if missing.IsNegative() {
		missing = decimal.Zero
	}

	return ReconciledRow{
		Identifier:     id,
		TotalSeconds:   rec.TotalSeconds,
		TotalMinutes:   rec.TotalMinutes,
		Status:         status,
		MissingMinutes: missing.Round(MissingPrecision),
	}
}

// DuplicateIdentifiers lists identifiers that appear more than once in records,
// in order of first repetition.
func DuplicateIdentifiers(records []DurationRecord) []Identifier {
	seen := make(map[Identifier]int, len(records))
	var dups []Identifier
	for _, rec := range records {
		seen[rec.Identifier]++
		if seen[rec.Identifier] == 2 {
			dups = append(dups, rec.Identifier)
		}
	}
	return dups
}

// String renders a row for logs and test failures.
func (r ReconciledRow) String() string {
	return fmt.Sprintf("%s %s %s %s", r.Identifier, r.TotalMinutes.StringFixed(1), r.Status, r.MissingMinutes.StringFixed(1))
}
