/*
config.go - Engine configuration

PURPOSE:
  Everything the engine is parameterized by, threaded explicitly into
  NewBuilder. The engine reads no ambient globals: same Config + same inputs
  means byte-identical output.

CONFIGURABLE PIECES:
  - ProjectCodes:  ordered partner -> project code assignments
  - OverrideSets:  the six partner/region override sets, in application order
  - AccrualMonths: the canonical month labels every run must emit, even when
    no activity touches them
  - Logger:        sink for the single designed warning (missing summary factor)
*/
package accruals

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// PROJECT CODES
// =============================================================================

// ProjectCodeEntry assigns a project code to an alliance partner. Matching is
// by substring against the normalized partner name, first entry wins.
type ProjectCodeEntry struct {
	Partner string
	Code    string
}

// ProjectCodeTable resolves project codes for claims. CGI-funded budgets get
// the CGI code regardless of partner; everything unmatched gets Default.
type ProjectCodeTable struct {
	Partners []ProjectCodeEntry
	CGI      string
	Default  string
}

// DefaultProjectCodes carries the standing Record-to-Report assignments.
func DefaultProjectCodes() ProjectCodeTable {
	return ProjectCodeTable{
		Partners: []ProjectCodeEntry{
			{Partner: "WIPRO", Code: "0012"},
			{Partner: "ACCENTURE", Code: "0008"},
			{Partner: "ODINE", Code: "0031"},
			{Partner: "NOKIA", Code: "0017"},
			{Partner: "TECHMAHINDRA", Code: "0024"},
		},
		CGI:     "0042",
		Default: "0000",
	}
}

// =============================================================================
// CONFIG
// =============================================================================

type Config struct {
	ProjectCodes  ProjectCodeTable
	OverrideSets  []OverrideSet
	AccrualMonths []string
	Logger        zerolog.Logger
}

// DefaultConfig returns the standing configuration: default project codes,
// the six standard override sets, and the calendar months of year as the
// canonical accrual month list.
func DefaultConfig(year int) Config {
	return Config{
		ProjectCodes:  DefaultProjectCodes(),
		OverrideSets:  DefaultOverrideSets(),
		AccrualMonths: MonthLabels(year),
		Logger:        zerolog.Nop(),
	}
}

// MonthLabels returns the twelve "<Month Name> <Year>" labels for year.
func MonthLabels(year int) []string {
	labels := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		labels = append(labels, fmt.Sprintf("%s %d", m, year))
	}
	return labels
}
