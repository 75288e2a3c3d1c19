/*
Package accruals implements the MDF accruals computation engine.

PURPOSE:
  Turns the joined claim/activity base report into the finished Accruals
  Report: per-row derived business columns, partner and region specific
  overrides, synthesized summary rows for repeated PA numbers, a monthly
  accrual schedule per row, and quarterly/grand-total roll-ups.

KEY CONCEPTS:
  - PA (Pre-Authorization): an approved budget allocation claims draw on
  - Accrual: the slice of an approved or claimed amount attributed to a
    calendar month before settlement
  - Reduction factor: an activity/region multiplier applied to PA amounts
  - Summary row: a synthesized roll-up for a group of claims sharing a PA

PIPELINE (Builder.BuildReport):
  1. derive.go:    ordered per-row field derivation
  2. overrides.go: six named override sets, fixed order
  3. summary.go:   PA grouping and summary row synthesis
  4. schedule.go:  month-by-month accrual amounts per row
  5. assemble.go:  column subset, month ordering, quarterly sums

DESIGN PRINCIPLES:
  1. Pure batch: one run over two in-memory tables, no cross-run state
  2. Decimal everywhere: currency math never touches float64
  3. Fail fast: bad cell types and missing reference data abort the run,
     with one documented exception (summary groups with no factor)

KEY CONCEPTS IN THIS FILE (columns.go):
  Column name constants, status sets, and the canonical output column order.
*/
package accruals

import "strings"

// =============================================================================
// COLUMN NAMES
// =============================================================================

const (
	ColPANumber      = "PA Number"
	ColClaimNumber   = "Claim Number"
	ColActivity      = "Activity"
	ColPartner       = "Partner"
	ColPartnerType   = "Partner Type"
	ColRegion        = "Region"
	ColCountry       = "Country"
	ColCountryName   = "Country Name"
	ColProgram       = "Program"
	ColAcctCategory  = "Accounting Category"
	ColCostCenter    = "Cost Center"
	ColDRAccount     = "DR Account"
	ColCRAccount     = "CR Account"
	ColCompanyCode   = "Company Code"
	ColLocationCode  = "Location Code"
	ColCurrency      = "Partner Local Currency"
	ColBudgetFund    = "APPROVAL_BUDGET_FUND"
	ColBudgetName    = "APPROVAL_BUDGET_NAME"
	ColStatus        = "Status"
	ColClaimStatus   = "Claim Status"
	ColPAStatus      = "PA Status"
	ColStartDate     = "Activity Start Date"
	ColEndDate       = "Activity End Date"
	ColApprovedPA    = "Approved PA in Local Currency"
	ColClaimAmount   = "Claim Approved Amount (Local)"
	ColClaimApproved = "Claim Approved in Local Currency"
	ColPaymentAmount = "Convert to Partner Currency - Payment Amount"

	// Derived by the pipeline, in derivation order.
	ColSettlementStatus = "Claim Invoice or Credit Memo Settlement Status"
	ColSalesChannel     = "Sales Channel"
	ColProjectCode      = "Project Code"
	ColDaysToAccrue     = "Days to Accrue"
	ColProcessed        = "Invoice or Credit Memo Processed in Oracle?"
	ColProcessedAmount  = "Invoice or Credit Memo Processed Amount (Local Currency)"
	ColTotalPAAccrual   = "Total PA Accrual (Local Currency)"
	ColReductionFactor  = "Accrual Reduction Factor"
	ColTotalUnprocessed = "Total Unprocessed Claim Accrual (Local Currency)"
	ColPADailyRate      = "PA Daily Accrual Rate"
	ColUnprocessedRate  = "Unprocessed Claim Daily Accrual Rate"
	ColSummaryFlag      = "Summary Row for Repeating PA Numbers"
	ColIntercompany     = "Intercompany Code"
	ColProductCode      = "Product Code"
)

// NoClaim is the sentinel carried by "Claim Approved in Local Currency" when
// a PA has no claim submitted against it yet.
const NoClaim = "NOCLAIM"

// Multiple is written into claim-level cells of a summary row.
const Multiple = "MULTIPLE"

// NotApplicable is written where a column has no meaning for a row.
const NotApplicable = "N/A"

// =============================================================================
// NORMALIZED STATUS SETS
// =============================================================================
// All comparisons run over upper-cased, space-stripped values (see Normalize).

const (
	ProgramAllianceCoop   = "ALLIANCECOOP"
	PAStatusApproved      = "APPROVED"
	PAStatusPending       = "PENDINGAPPROVAL"
	PAStatusClosed        = "CLOSED"
	FlagNo                = "NO"
	FlagSummary           = "YES-SUMMARY"
	FlagClosed            = "YES-CLOSED"
	FlagRepeated          = "YES-REPEATED"
	ProcessedYes          = "YES"
	ProcessedNo           = "NO"
	SummaryNumberSuffix   = ".S"
	AcctSalesExpense      = "SALESEXPENSE"
	SalesChannelDefault   = "00"
	SalesChannelOEM       = "31"
	SalesChannelStandard  = "41"
	APACOEMDRAccount      = "262555"
	ConstantCode          = "000" // Intercompany Code and Product Code
)

// processedSettlementStatuses mark a claim invoice or credit memo as already
// processed in the ERP.
var processedSettlementStatuses = map[string]struct{}{
	"PAID":                     {},
	"CREDITMEMOISSUED":         {},
	"SETTLEDTHROUGHCREDITMEMO": {},
	"CLAIMCANCELLED":           {},
	"PROCESSEDBUTNOTYETDUE":    {},
}

// paAccrualClaimStatuses are the claim statuses under which a PA-level
// accrual is taken.
var paAccrualClaimStatuses = map[string]struct{}{
	"HOLD":             {},
	"REVISE/RESUBMIT":  {},
	"SUBMITTED":        {},
	"":                 {},
}

// unprocessedAccrualClaimStatuses are the claim statuses under which an
// unprocessed-claim accrual is taken.
var unprocessedAccrualClaimStatuses = map[string]struct{}{
	"PENDINGPAYMENT":    {},
	"PAYMENTPROCESSING": {},
	"PAID":              {},
}

// Normalize upper-cases a value and strips every space so business rules are
// insensitive to casing and spacing in the source spreadsheets.
func Normalize(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// =============================================================================
// CANONICAL OUTPUT COLUMNS
// =============================================================================

// ReportColumns is the canonical Accruals Report column set, in output order.
// The assembler subsets the derived table to exactly these columns before the
// monthly schedule columns are appended.
var ReportColumns = []string{
	ColPANumber,
	ColClaimNumber,
	ColPartner,
	ColPartnerType,
	ColProgram,
	ColActivity,
	ColRegion,
	ColCountry,
	ColCurrency,
	ColClaimStatus,
	ColPAStatus,
	ColSettlementStatus,
	ColStartDate,
	ColEndDate,
	ColDaysToAccrue,
	ColApprovedPA,
	ColClaimAmount,
	ColClaimApproved,
	ColProcessed,
	ColProcessedAmount,
	ColTotalPAAccrual,
	ColReductionFactor,
	ColTotalUnprocessed,
	ColPADailyRate,
	ColUnprocessedRate,
	ColSummaryFlag,
	ColCompanyCode,
	ColCostCenter,
	ColSalesChannel,
	ColProjectCode,
	ColIntercompany,
	ColProductCode,
	ColDRAccount,
	ColCRAccount,
}

// CurrencyColumns are the fixed monetary columns of the final report. The
// writer applies currency formatting to these plus every month, quarter, and
// total column reported by the assembler.
var CurrencyColumns = []string{
	ColApprovedPA,
	ColClaimAmount,
	ColProcessedAmount,
	ColTotalPAAccrual,
	ColTotalUnprocessed,
	ColPADailyRate,
	ColUnprocessedRate,
}

// summaryPAColumns are PA-level: a summary row copies them from the first
// member of its group.
var summaryPAColumns = []string{
	ColPartner,
	ColPartnerType,
	ColProgram,
	ColActivity,
	ColRegion,
	ColCountry,
	ColCurrency,
	ColPAStatus,
	ColStartDate,
	ColEndDate,
	ColDaysToAccrue,
	ColApprovedPA,
	ColCompanyCode,
	ColCostCenter,
	ColSalesChannel,
	ColProjectCode,
	ColDRAccount,
	ColCRAccount,
	ColBudgetFund,
	ColBudgetName,
}

// summaryClaimColumns are claim-level: a summary row rolls several claims
// together, so these cells read MULTIPLE.
var summaryClaimColumns = []string{
	ColClaimStatus,
	ColStatus,
	ColSettlementStatus,
	ColProcessed,
	ColClaimAmount,
	ColClaimApproved,
}
