/*
derive.go - Field derivation pipeline

PURPOSE:
  Appends the derived business columns to the base report, row by row, in a
  strict dependency order: later derivations consume earlier ones.

DERIVATION ORDER:
   1. Settlement status        (from the raw tracker Status)
   2. Cost center              (budget fund / accounting category rules)
   3. Sales channel            (APAC OEM routing)
   4. Project code             (CGI funds, alliance partner table)
   5. Days to accrue           (inclusive day count of the activity window)
   6. Processed flag           (settlement statuses already booked in the ERP)
   7. Processed amount         (partner-currency payment if processed)
   8. Total PA accrual         (approved PA x reduction factor) + factor
   9. Total unprocessed accrual
  10. Daily accrual rates      (amount / days, half-up to 2 decimals)

ERROR CONTRACT:
  Every step validates the runtime kind of each input cell. Violations abort
  the run with an error naming the row and column; the pipeline never
  substitutes a default for a validation failure.
*/
package accruals

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/mdf-accruals/table"
)

// deriveFields appends every derived column to t in dependency order.
func (b *Builder) deriveFields(t *table.Table, factors *FactorTable) error {
	type derivation struct {
		name string
		fn   func(table.Row) error
	}
	steps := []derivation{
		{ColSettlementStatus, b.deriveSettlementStatus},
		{ColCostCenter, b.deriveCostCenter},
		{ColSalesChannel, b.deriveSalesChannel},
		{ColProjectCode, b.deriveProjectCode},
		{ColDaysToAccrue, b.deriveDaysToAccrue},
		{ColProcessed, b.deriveProcessedFlag},
		{ColProcessedAmount, b.deriveProcessedAmount},
		{ColTotalPAAccrual, func(r table.Row) error { return b.derivePAAccrual(r, factors) }},
		{ColTotalUnprocessed, b.deriveUnprocessedAccrual},
		{ColPADailyRate, b.deriveDailyRates},
	}

	for _, c := range []string{
		ColSettlementStatus, ColSalesChannel, ColProjectCode, ColDaysToAccrue,
		ColProcessed, ColProcessedAmount, ColTotalPAAccrual, ColReductionFactor,
		ColTotalUnprocessed, ColPADailyRate, ColUnprocessedRate,
	} {
		t.AddColumn(c, table.Missing())
	}

	for _, step := range steps {
		for i := 0; i < t.Len(); i++ {
			if err := step.fn(t.Row(i)); err != nil {
				return fmt.Errorf("derive %q, row %d: %w", step.name, i, err)
			}
		}
	}
	return nil
}

// 1. Settlement status: the tracker Status if textual, "N/A" when the row had
// no tracker match. Any other kind is a data-quality failure.
func (b *Builder) deriveSettlementStatus(r table.Row) error {
	cell := r[ColStatus]
	if cell.IsMissing() {
		r[ColSettlementStatus] = table.NewString(NotApplicable)
		return nil
	}
	status, err := cell.AsString(ColStatus)
	if err != nil {
		return err
	}
	r[ColSettlementStatus] = table.NewString(status)
	return nil
}

// 2. Cost center: CGI budget funds pin the center by budget year, Alliance
// COOP sales expense claims book to 479, everything else keeps its center.
// A numeric or missing accounting category / cost center means the activity
// reference join missed upstream.
func (b *Builder) deriveCostCenter(r table.Row) error {
	for _, c := range []string{ColAcctCategory, ColCostCenter} {
		if k := r[c].Kind(); k == table.KindNumber || k == table.KindMissing {
			return &ActivityJoinError{Column: c}
		}
	}

	costCenter, err := r[ColCostCenter].AsString(ColCostCenter)
	if err != nil {
		return err
	}
	category, err := r[ColAcctCategory].AsString(ColAcctCategory)
	if err != nil {
		return err
	}
	program, err := r[ColProgram].AsString(ColProgram)
	if err != nil {
		return err
	}
	fund, err := r[ColBudgetFund].AsString(ColBudgetFund)
	if err != nil {
		return err
	}

	category = Normalize(category)
	program = Normalize(program)
	fund = Normalize(fund)

	switch {
	case contains(fund, "CGI") && contains(fund, "CY24"):
		costCenter = "353"
	case contains(fund, "CGI") && contains(fund, "CY25"):
		costCenter = "489"
	case category == AcctSalesExpense && program == ProgramAllianceCoop:
		costCenter = "479"
	}
	r[ColCostCenter] = table.NewString(costCenter)
	return nil
}

// 3. Sales channel: default 00. Activities without an assigned DR account
// keep the default before any type validation. APAC claims on DR 262555
// route to 31 for OEM partners, otherwise 41.
func (b *Builder) deriveSalesChannel(r table.Row) error {
	if r[ColDRAccount].IsMissing() {
		r[ColSalesChannel] = table.NewString(SalesChannelDefault)
		return nil
	}

	region, err := r[ColRegion].AsString(ColRegion)
	if err != nil {
		return err
	}
	drAccount, err := r[ColDRAccount].AsString(ColDRAccount)
	if err != nil {
		return err
	}
	partnerType, err := r[ColPartnerType].AsString(ColPartnerType)
	if err != nil {
		return err
	}

	channel := SalesChannelDefault
	if Normalize(region) == "APAC" && Normalize(drAccount) == APACOEMDRAccount {
		if contains(Normalize(partnerType), "OEM") {
			channel = SalesChannelOEM
		} else {
			channel = SalesChannelStandard
		}
	}
	r[ColSalesChannel] = table.NewString(channel)
	return nil
}

// 4. Project code: CGI budgets get the CGI code; Alliance COOP claims scan
// the partner table for the first substring match; everything else defaults.
func (b *Builder) deriveProjectCode(r table.Row) error {
	budgetName, err := r[ColBudgetName].AsString(ColBudgetName)
	if err != nil {
		return err
	}
	program, err := r[ColProgram].AsString(ColProgram)
	if err != nil {
		return err
	}
	partner, err := r[ColPartner].AsString(ColPartner)
	if err != nil {
		return err
	}

	codes := b.cfg.ProjectCodes
	code := codes.Default
	partner = Normalize(partner)

	switch {
	case contains(Normalize(budgetName), "CGI"):
		code = codes.CGI
	case Normalize(program) == ProgramAllianceCoop:
		for _, entry := range codes.Partners {
			if contains(partner, entry.Partner) {
				code = entry.Code
				break
			}
		}
	}
	r[ColProjectCode] = table.NewString(code)
	return nil
}

// 5. Days to accrue: inclusive day count of [start, end]. An end before the
// start leaves the window undefined; the row is rejected.
func (b *Builder) deriveDaysToAccrue(r table.Row) error {
	start, err := r[ColStartDate].AsDate(ColStartDate)
	if err != nil {
		return err
	}
	end, err := r[ColEndDate].AsDate(ColEndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return &DateOrderError{Start: start, End: end}
	}
	days := int64(end.Sub(start).Hours()/24) + 1
	r[ColDaysToAccrue] = table.NewNumberFromInt(days)
	return nil
}

// 6. Processed flag: YES when the settlement status shows the invoice or
// credit memo is already booked.
func (b *Builder) deriveProcessedFlag(r table.Row) error {
	status, err := r[ColSettlementStatus].AsString(ColSettlementStatus)
	if err != nil {
		return err
	}
	flag := ProcessedNo
	if _, ok := processedSettlementStatuses[Normalize(status)]; ok {
		flag = ProcessedYes
	}
	r[ColProcessed] = table.NewString(flag)
	return nil
}

// 7. Processed amount: the partner-currency payment when processed, else 0.00.
func (b *Builder) deriveProcessedAmount(r table.Row) error {
	processed, err := r[ColProcessed].AsString(ColProcessed)
	if err != nil {
		return err
	}
	payment, err := r[ColPaymentAmount].AsNumber(ColPaymentAmount)
	if err != nil {
		return err
	}
	amount := decimal.Zero
	if processed == ProcessedYes {
		amount = payment
	}
	r[ColProcessedAmount] = table.NewNumber(amount)
	return nil
}

// 8. Total PA accrual plus the factor used. The factor lookup always runs so
// a missing activity surfaces even for rows whose status yields no accrual.
func (b *Builder) derivePAAccrual(r table.Row, factors *FactorTable) error {
	activity, err := r[ColActivity].AsString(ColActivity)
	if err != nil {
		return err
	}
	claimStatus, err := r[ColClaimStatus].AsString(ColClaimStatus)
	if err != nil {
		return err
	}
	region, err := r[ColRegion].AsString(ColRegion)
	if err != nil {
		return err
	}
	processed, err := r[ColProcessed].AsString(ColProcessed)
	if err != nil {
		return err
	}
	approved, err := r[ColApprovedPA].AsNumber(ColApprovedPA)
	if err != nil {
		return err
	}

	factor, err := factors.Lookup(activity, region)
	if err != nil {
		return err
	}

	accrual := table.NewNumber(decimal.Zero)
	factorCell := table.NewString("")
	if _, ok := paAccrualClaimStatuses[Normalize(claimStatus)]; ok && processed != ProcessedYes {
		accrual = table.NewNumber(approved.Mul(factor).Round(2))
		factorCell = table.NewNumber(factor)
	}
	r[ColTotalPAAccrual] = accrual
	r[ColReductionFactor] = factorCell
	return nil
}

// 9. Total unprocessed claim accrual: the approved claim amount for payment
// pipeline statuses whose invoice has not been booked yet.
func (b *Builder) deriveUnprocessedAccrual(r table.Row) error {
	claimStatus, err := r[ColClaimStatus].AsString(ColClaimStatus)
	if err != nil {
		return err
	}
	processed, err := r[ColProcessed].AsString(ColProcessed)
	if err != nil {
		return err
	}
	claimAmount, err := r[ColClaimAmount].AsNumber(ColClaimAmount)
	if err != nil {
		return err
	}

	amount := decimal.Zero
	if _, ok := unprocessedAccrualClaimStatuses[Normalize(claimStatus)]; ok && processed != ProcessedYes {
		amount = claimAmount
	}
	r[ColTotalUnprocessed] = table.NewNumber(amount)
	return nil
}

// 10. Daily accrual rates for both accrual amounts. A zero day count never
// divides; the rate is simply 0.00.
func (b *Builder) deriveDailyRates(r table.Row) error {
	daysCell, err := r[ColDaysToAccrue].AsNumber(ColDaysToAccrue)
	if err != nil {
		return err
	}
	days := daysCell.IntPart()

	for _, pair := range [][2]string{
		{ColTotalPAAccrual, ColPADailyRate},
		{ColTotalUnprocessed, ColUnprocessedRate},
	} {
		amount, err := r[pair[0]].AsNumber(pair[0])
		if err != nil {
			return err
		}
		r[pair[1]] = table.NewNumber(dailyRate(amount, days))
	}
	return nil
}

// dailyRate spreads an accrual amount over the activity window.
func dailyRate(amount decimal.Decimal, days int64) decimal.Decimal {
	if amount.IsZero() || days == 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(days)).Round(2)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
