/*
builder.go - Engine entry point

PURPOSE:
  Wires the pipeline stages together. BuildReport is the one operation the
  rest of the system calls: base report + factor table in, finished accruals
  report + accrual column names out.

CONCURRENCY:
  Single-threaded batch computation over in-memory tables. A Builder holds
  only configuration and may be reused across runs; each run owns its own
  tables and no state survives the call.
*/
package accruals

import (
	"github.com/rs/zerolog"

	"github.com/warp/mdf-accruals/table"
)

// Builder runs the accruals computation over a prepared base report.
type Builder struct {
	cfg Config
	log zerolog.Logger
}

// NewBuilder creates a Builder with the given configuration.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg, log: cfg.Logger}
}

// BuildReport derives the business columns, applies the edge-case override
// sets in order, synthesizes summary rows for repeated PA numbers, computes
// the monthly accrual schedule, and assembles the final report. It returns
// the report plus the ordered month/quarter/total column names.
//
// The input table is not modified. Any error aborts the run and names the
// row, column, or group that failed; the single degraded-but-continue case
// (a PA group without a reduction factor) only logs a warning.
func (b *Builder) BuildReport(base *table.Table, factors *FactorTable) (*table.Table, []string, error) {
	report := base.Clone()

	if err := b.deriveFields(report, factors); err != nil {
		return nil, nil, err
	}

	for _, set := range b.cfg.OverrideSets {
		if err := set.Apply(report); err != nil {
			return nil, nil, err
		}
	}

	report, err := b.addSummaryRows(report, factors)
	if err != nil {
		return nil, nil, err
	}

	schedule, err := b.buildScheduleTable(report)
	if err != nil {
		return nil, nil, err
	}

	return b.assemble(report, schedule)
}
