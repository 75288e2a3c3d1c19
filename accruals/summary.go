/*
summary.go - Summary row synthesizer for repeated PA numbers

PURPOSE:
  Several claims drawing on one PA must be accrued at the PA level, not per
  claim. This stage partitions the derived report into candidate groups
  (repeated PA number, PA status approved or pending approval, Alliance COOP
  program) and unique rows, then appends one synthesized summary row per
  group.

SUMMARY ROW CONTENT:
  - PA-level columns copy from the group's first row
  - Claim-level columns read MULTIPLE
  - PA Number gets a ".S" suffix; Claim Number becomes a
    "<first>-<last char of last>.S" range
  - Processed amount is the member sum; total PA accrual is
    approved PA x factor minus the processed member sum
  - Unprocessed-claim columns read N/A (summary rows carry no claim accrual)

DEGRADED GROUPS:
  A group whose activity/region pair is absent from the factor table keeps
  its member rows untouched and gets no summary row; the run continues with
  a logged warning. This is the single designed exception to fail-fast.

ROW ORDER:
  Unique rows first (original order), then candidate groups in order of
  first appearance, members in original order, summary row last per group.
*/
package accruals

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/mdf-accruals/table"
)

// addSummaryRows regroups repeated PA numbers and appends summary rows,
// assigning the summary flag column to every output row.
func (b *Builder) addSummaryRows(t *table.Table, factors *FactorTable) (*table.Table, error) {
	// Count PA number occurrences over the whole report. Candidacy is judged
	// before the status/program filter, so a PA whose sibling claim is
	// disqualified can still form a one-member group.
	counts := make(map[string]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		counts[t.Get(i, ColPANumber).String()]++
	}

	isCandidate := func(i int) (bool, error) {
		if counts[t.Get(i, ColPANumber).String()] < 2 {
			return false, nil
		}
		paStatus, err := t.Get(i, ColPAStatus).AsString(ColPAStatus)
		if err != nil {
			return false, fmt.Errorf("row %d: %w", i, err)
		}
		program, err := t.Get(i, ColProgram).AsString(ColProgram)
		if err != nil {
			return false, fmt.Errorf("row %d: %w", i, err)
		}
		paStatus = Normalize(paStatus)
		if paStatus != PAStatusApproved && paStatus != PAStatusPending {
			return false, nil
		}
		return Normalize(program) == ProgramAllianceCoop, nil
	}

	unique := table.New(t.Columns()...)
	groupOrder := make([]string, 0)
	groups := make(map[string][]table.Row)
	for i := 0; i < t.Len(); i++ {
		candidate, err := isCandidate(i)
		if err != nil {
			return nil, err
		}
		if !candidate {
			unique.Append(t.Row(i))
			continue
		}
		pa := t.Get(i, ColPANumber).String()
		if _, seen := groups[pa]; !seen {
			groupOrder = append(groupOrder, pa)
		}
		groups[pa] = append(groups[pa], t.Row(i).Clone())
	}

	out := table.New(append(t.Columns(), ColSummaryFlag)...)
	for i := 0; i < unique.Len(); i++ {
		row := unique.Row(i).Clone()
		row[ColSummaryFlag] = table.NewString(FlagNo)
		out.Append(row)
	}

	for _, pa := range groupOrder {
		members := groups[pa]
		rows, err := b.summarizeGroup(pa, members, factors)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			flag, err := summaryFlag(row)
			if err != nil {
				return nil, fmt.Errorf("PA group %s: %w", pa, err)
			}
			row[ColSummaryFlag] = table.NewString(flag)
			out.Append(row)
		}
	}
	return out, nil
}

// summarizeGroup returns the group's rows plus its filled summary row, or the
// member rows unchanged when the group's factor cannot be resolved.
func (b *Builder) summarizeGroup(pa string, members []table.Row, factors *FactorTable) ([]table.Row, error) {
	first := members[0]
	activity, err := first[ColActivity].AsString(ColActivity)
	if err != nil {
		return nil, fmt.Errorf("PA group %s: %w", pa, err)
	}
	region, err := first[ColRegion].AsString(ColRegion)
	if err != nil {
		return nil, fmt.Errorf("PA group %s: %w", pa, err)
	}

	factor, err := factors.Lookup(activity, region)
	if err != nil {
		b.log.Warn().
			Str("pa_number", pa).
			Str("activity", activity).
			Str("region", region).
			Msg("reduction factor not found, skipping summary row for PA group")
		return members, nil
	}

	summary, err := b.fillSummaryRow(pa, members, factor)
	if err != nil {
		return nil, fmt.Errorf("PA group %s: %w", pa, err)
	}
	return append(members, summary), nil
}

// fillSummaryRow builds the synthesized roll-up row for one PA group.
func (b *Builder) fillSummaryRow(pa string, members []table.Row, factor decimal.Decimal) (table.Row, error) {
	first := members[0]
	last := members[len(members)-1]

	summary := make(table.Row, len(first))
	for column := range first {
		summary[column] = table.NewString("")
	}
	for _, column := range summaryPAColumns {
		if cell, ok := first[column]; ok {
			summary[column] = cell
		}
	}
	for _, column := range summaryClaimColumns {
		if _, ok := summary[column]; ok {
			summary[column] = table.NewString(Multiple)
		}
	}

	firstClaim := first[ColClaimNumber].String()
	lastClaim := last[ColClaimNumber].String()
	lastChar := lastClaim
	if len(lastClaim) > 0 {
		lastChar = lastClaim[len(lastClaim)-1:]
	}
	summary[ColPANumber] = table.NewString(pa + SummaryNumberSuffix)
	summary[ColClaimNumber] = table.NewString(fmt.Sprintf("%s-%s%s", firstClaim, lastChar, SummaryNumberSuffix))

	processedSum := decimal.Zero
	bookedSum := decimal.Zero
	for i, member := range members {
		amount, err := member[ColProcessedAmount].AsNumber(ColProcessedAmount)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		processedSum = processedSum.Add(amount)
		processed, err := member[ColProcessed].AsString(ColProcessed)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		if processed == ProcessedYes {
			bookedSum = bookedSum.Add(amount)
		}
	}
	summary[ColProcessedAmount] = table.NewNumber(processedSum)

	approved, err := first[ColApprovedPA].AsNumber(ColApprovedPA)
	if err != nil {
		return nil, err
	}
	totalAccrual := approved.Mul(factor).Sub(bookedSum).Round(2)
	summary[ColTotalPAAccrual] = table.NewNumber(totalAccrual)
	summary[ColReductionFactor] = table.NewNumber(factor)

	daysCell, err := first[ColDaysToAccrue].AsNumber(ColDaysToAccrue)
	if err != nil {
		return nil, err
	}
	summary[ColPADailyRate] = table.NewNumber(dailyRate(totalAccrual, daysCell.IntPart()))

	// Summary rows carry no unprocessed-claim accrual.
	summary[ColTotalUnprocessed] = table.NewString(NotApplicable)
	summary[ColUnprocessedRate] = table.NewString(NotApplicable)

	return summary, nil
}

// summaryFlag classifies a row of a processed candidate group.
func summaryFlag(row table.Row) (string, error) {
	claimNumber := row[ColClaimNumber].String()
	if contains(claimNumber, SummaryNumberSuffix) {
		return FlagSummary, nil
	}
	paStatus, err := row[ColPAStatus].AsString(ColPAStatus)
	if err != nil {
		return "", err
	}
	if Normalize(paStatus) == PAStatusClosed {
		return FlagClosed, nil
	}
	return FlagRepeated, nil
}
