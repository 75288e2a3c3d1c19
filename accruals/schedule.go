/*
schedule.go - Monthly accrual schedule builder

PURPOSE:
  Spreads each row's accrual over every calendar month its activity window
  touches, from the first day of the start month to the last day of the end
  month.

RATE SELECTION:
  - Summary rows always accrue at the PA daily rate.
  - Claim rows accrue at the unprocessed-claim daily rate when a positive
    claim amount exists; the NOCLAIM sentinel and non-positive amounts fall
    back to the PA daily rate.

DAY COUNTING:
  Full month length, except:
  - start month: days from the start day to month end, inclusive
  - end month:   days from month start to the end day
  - single-month windows: end day - start day + 1
  Each month's amount = days x rate, half-up to 2 decimals.

KEY FORMAT:
  "<Month Name> <Year>", e.g. "February 2024".
*/
package accruals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/mdf-accruals/table"
)

// monthAmount is one month's accrued slice of a row.
type monthAmount struct {
	label  string
	amount decimal.Decimal
}

// buildScheduleTable computes the month->amount mapping for every row and
// assembles them into one table whose columns are the union of all month
// labels in first-seen order. Cells for months a row does not touch stay
// Missing; the assembler fills them.
func (b *Builder) buildScheduleTable(t *table.Table) (*table.Table, error) {
	perRow := make([][]monthAmount, t.Len())
	var labels []string
	seen := make(map[string]struct{})

	for i := 0; i < t.Len(); i++ {
		months, err := b.monthlyAccruals(t.Row(i))
		if err != nil {
			return nil, fmt.Errorf("monthly schedule, row %d: %w", i, err)
		}
		perRow[i] = months
		for _, m := range months {
			if _, ok := seen[m.label]; !ok {
				seen[m.label] = struct{}{}
				labels = append(labels, m.label)
			}
		}
	}

	out := table.New(labels...)
	for _, months := range perRow {
		row := make(table.Row, len(months))
		for _, m := range months {
			row[m.label] = table.NewNumber(m.amount)
		}
		out.Append(row)
	}
	return out, nil
}

// monthlyAccruals returns the per-month amounts for one row, in calendar
// order.
func (b *Builder) monthlyAccruals(r table.Row) ([]monthAmount, error) {
	start, err := r[ColStartDate].AsDate(ColStartDate)
	if err != nil {
		return nil, err
	}
	end, err := r[ColEndDate].AsDate(ColEndDate)
	if err != nil {
		return nil, err
	}
	flag, err := r[ColSummaryFlag].AsString(ColSummaryFlag)
	if err != nil {
		return nil, err
	}

	rate, err := b.scheduleRate(r, flag)
	if err != nil {
		return nil, err
	}

	var months []monthAmount
	for cursor := monthOf(start); !cursor.After(monthOf(end)); cursor = cursor.AddDate(0, 1, 0) {
		sameAsStart := cursor.Year() == start.Year() && cursor.Month() == start.Month()
		sameAsEnd := cursor.Year() == end.Year() && cursor.Month() == end.Month()

		var days int
		switch {
		case sameAsStart && sameAsEnd:
			days = end.Day() - start.Day() + 1
		case sameAsStart:
			days = daysInMonth(cursor) - start.Day() + 1
		case sameAsEnd:
			days = end.Day()
		default:
			days = daysInMonth(cursor)
		}

		months = append(months, monthAmount{
			label:  fmt.Sprintf("%s %d", cursor.Month(), cursor.Year()),
			amount: rate.Mul(decimal.NewFromInt(int64(days))).Round(2),
		})
	}
	return months, nil
}

// scheduleRate picks the daily rate the row accrues at.
func (b *Builder) scheduleRate(r table.Row, flag string) (decimal.Decimal, error) {
	if flag == FlagSummary {
		return r[ColPADailyRate].AsNumber(ColPADailyRate)
	}

	claimApproved := r[ColClaimApproved]
	if claimApproved.Kind() == table.KindString {
		text, _ := claimApproved.AsString(ColClaimApproved)
		if Normalize(text) != NoClaim {
			return decimal.Zero, &table.TypeMismatchError{
				Column: ColClaimApproved, Want: table.KindNumber, Got: table.KindString,
			}
		}
		return r[ColPADailyRate].AsNumber(ColPADailyRate)
	}

	amount, err := claimApproved.AsNumber(ColClaimApproved)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.Sign() <= 0 {
		return r[ColPADailyRate].AsNumber(ColPADailyRate)
	}
	return r[ColUnprocessedRate].AsNumber(ColUnprocessedRate)
}

// monthOf truncates a date to the first day of its month.
func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the calendar length of the month containing t.
func daysInMonth(t time.Time) int {
	return monthOf(t).AddDate(0, 1, -1).Day()
}
