/*
errors.go - Error types for the reconciliation engine

ERROR CATEGORIES:
  1. Configuration errors - Roster missing/empty, bad options. Fatal.
  2. Data-integrity errors - Duration source unreadable or malformed. Fatal.
  3. Store errors - Snapshot lookups that miss.

USAGE:
  if errors.Is(err, attendance.ErrConfiguration) {
      // no known individuals configured
  }

  var die *attendance.DataIntegrityError
  if errors.As(err, &die) {
      fmt.Println(die.Source, die.Line)
  }
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned when the run cannot start: the roster root is
	// missing, yields no individuals, or an option is invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataIntegrity is returned when the duration source exists but cannot be
	// read or lacks mandatory columns.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrEmptyRoster is the configuration failure for a roster with no members.
	ErrEmptyRoster = errors.New("no known individuals configured")

	// ErrRunNotFound is returned when a persisted snapshot does not exist.
	ErrRunNotFound = errors.New("run not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError describes why a run could not be configured.
type ConfigurationError struct {
	Setting string // e.g. "roster_root", "expected_minutes"
	Value   string
	Reason  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s", e.Setting)
	if e.Value != "" {
		msg += fmt.Sprintf(" (%s)", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// DataIntegrityError points at the offending part of a duration source.
// Line is 1-based and includes the header; zero means the file as a whole.
type DataIntegrityError struct {
	Source string
	Line   int
	Column string
	Reason string
	Err    error
}

func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("data integrity error in %s", e.Source)
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataIntegrityError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDataIntegrity, e.Err}
	}
	return []error{ErrDataIntegrity}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfiguration reports whether err aborts a run before any computation.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsDataIntegrity reports whether err came from a malformed duration source.
func IsDataIntegrity(err error) bool { return errors.Is(err, ErrDataIntegrity) }

// IsNotFound reports whether err indicates a missing snapshot.
func IsNotFound(err error) bool { return errors.Is(err, ErrRunNotFound) }
