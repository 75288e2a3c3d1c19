/*
errors.go - Engine-level error types

PURPOSE:
  Errors raised by the accruals engine itself. Cell-type and schema errors
  come from the table package; this file covers reference-data gaps and
  date-order violations.

ERROR CATEGORIES:
  1. Reference gaps - an activity or factor the run depends on is absent
  2. Date violations - an activity window that ends before it starts

Every abort names the row, column, or activity involved; the engine never
substitutes a default for a validation failure.
*/
package accruals

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrActivityNotFound is returned when required activity reference data
	// is missing: either the upstream activity join left holes, or the
	// factor table has no entry for an activity/region pair.
	ErrActivityNotFound = errors.New("activity reference data not found")

	// ErrDateOrder is returned when an activity end date precedes its start
	// date. The days-to-accrue window would be undefined.
	ErrDateOrder = errors.New("activity end date precedes start date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ActivityJoinError reports a column that should have been populated by the
// activity reference join but holds a numeric or missing cell instead.
type ActivityJoinError struct {
	Column string
}

func (e *ActivityJoinError) Error() string {
	return fmt.Sprintf("column %q not populated by the activity reference join", e.Column)
}

func (e *ActivityJoinError) Unwrap() error { return ErrActivityNotFound }

// FactorLookupError reports a missing reduction factor.
type FactorLookupError struct {
	Activity string
	Region   string
}

func (e *FactorLookupError) Error() string {
	return fmt.Sprintf("no reduction factor for activity %q in region %q", e.Activity, e.Region)
}

func (e *FactorLookupError) Unwrap() error { return ErrActivityNotFound }

// DateOrderError reports an inverted activity window.
type DateOrderError struct {
	Start time.Time
	End   time.Time
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("activity end date %s precedes start date %s",
		e.End.Format("2006-01-02"), e.Start.Format("2006-01-02"))
}

func (e *DateOrderError) Unwrap() error { return ErrDateOrder }
