/*
assemble.go - Final report assembly

PURPOSE:
  Produces the deliverable table: the canonical report columns side by side
  with the chronological month columns, per-quarter sums, and a grand total.

STEPS:
  1. Add the constant Intercompany Code and Product Code columns ("000")
  2. Subset to the canonical column set (SchemaError on absence)
  3. Ensure every canonical accrual month column exists (filled with 0.00)
  4. Sort month columns chronologically by parsing their labels
  5. Fill remaining empty cells with 0.00
  6. Insert "Q<n> <year>" sums after each quarter's months, then a
     "Total Accrual" grand-total column
  7. Concatenate report and schedule tables by row position

The positional concat requires both tables to carry rows in the same order;
the pipeline guarantees that because the schedule was built from the final
row order.
*/
package accruals

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/mdf-accruals/table"
)

// monthLabelLayout parses "January 2006" style column labels.
const monthLabelLayout = "January 2006"

// TotalColumn is the grand-total column appended after the quarter sums.
const TotalColumn = "Total Accrual"

// assemble produces the final report table and the ordered names of the
// month, quarter, and total columns.
func (b *Builder) assemble(report, schedule *table.Table) (*table.Table, []string, error) {
	report.AddColumn(ColIntercompany, table.NewString(ConstantCode))
	report.AddColumn(ColProductCode, table.NewString(ConstantCode))

	subset, err := report.Select(ReportColumns)
	if err != nil {
		return nil, nil, err
	}

	for _, label := range b.cfg.AccrualMonths {
		if !schedule.HasColumn(label) {
			schedule.AddColumn(label, table.NewNumber(decimal.Zero))
		}
	}

	ordered, err := chronological(schedule.Columns())
	if err != nil {
		return nil, nil, err
	}
	if err := schedule.Reorder(ordered); err != nil {
		return nil, nil, err
	}
	schedule.FillMissing(table.NewNumber(decimal.Zero))

	withSums, accrualColumns, err := addQuarterlySums(schedule, ordered)
	if err != nil {
		return nil, nil, err
	}

	final, err := table.ConcatColumns(subset, withSums)
	if err != nil {
		return nil, nil, err
	}
	return final, accrualColumns, nil
}

// chronological sorts month labels by their parsed dates.
func chronological(labels []string) ([]string, error) {
	type monthColumn struct {
		label string
		date  time.Time
	}
	parsed := make([]monthColumn, 0, len(labels))
	for _, label := range labels {
		date, err := time.Parse(monthLabelLayout, label)
		if err != nil {
			return nil, fmt.Errorf("month column %q: %w", label, err)
		}
		parsed = append(parsed, monthColumn{label: label, date: date})
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].date.Before(parsed[j].date)
	})
	out := make([]string, len(parsed))
	for i, c := range parsed {
		out[i] = c.label
	}
	return out, nil
}

// addQuarterlySums rebuilds the schedule as [months..., quarter sum]
// repeated per quarter, with the grand total last. Returns the new table and
// its column order.
func addQuarterlySums(schedule *table.Table, months []string) (*table.Table, []string, error) {
	type quarter struct {
		name   string
		months []string
	}
	var quarters []quarter
	for _, label := range months {
		date, err := time.Parse(monthLabelLayout, label)
		if err != nil {
			return nil, nil, fmt.Errorf("month column %q: %w", label, err)
		}
		q := (int(date.Month())-1)/3 + 1
		name := fmt.Sprintf("Q%d %d", q, date.Year())
		if len(quarters) == 0 || quarters[len(quarters)-1].name != name {
			quarters = append(quarters, quarter{name: name})
		}
		quarters[len(quarters)-1].months = append(quarters[len(quarters)-1].months, label)
	}

	var columns []string
	for _, q := range quarters {
		columns = append(columns, q.months...)
		columns = append(columns, q.name)
	}
	columns = append(columns, TotalColumn)

	out := table.New(columns...)
	for i := 0; i < schedule.Len(); i++ {
		src := schedule.Row(i)
		row := make(table.Row, len(columns))
		total := decimal.Zero
		for _, q := range quarters {
			sum := decimal.Zero
			for _, label := range q.months {
				amount, err := src[label].AsNumber(label)
				if err != nil {
					return nil, nil, fmt.Errorf("row %d: %w", i, err)
				}
				sum = sum.Add(amount)
				total = total.Add(amount)
				row[label] = src[label]
			}
			row[q.name] = table.NewNumber(sum.Round(2))
		}
		row[TotalColumn] = table.NewNumber(total.Round(2))
		out.Append(row)
	}
	return out, columns, nil
}
