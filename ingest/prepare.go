/*
prepare.go - Per-report normalization and the base-report join

PURPOSE:
  Each source report arrives with its own quirks: legacy column names,
  blank regions, numeric codes stored as numbers, denied claims that must
  never reach the engine. This file normalizes each report and joins them
  into the base report.

REPORTS:
  Activity Lifecycle   the claim rows themselves (one row per claim)
  GBD Payment Tracker  settlement status and payment per claim number
  Country Codes        country reference (company and location codes)
  Activities Table     activity reference (accounts, cost centers, factors)

JOIN ORDER:
  lifecycle <- tracker (Claim Number) <- countries (Country) <- activities
  (Activity), all left joins. A key absent from either side surfaces as a
  JoinKeyError per the engine's error contract.
*/
package ingest

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/mdf-accruals/accruals"
	"github.com/warp/mdf-accruals/table"
)

// Report names, used as keys for uploaded workbooks and in messages.
const (
	ReportActivityLifecycle = "Activity Lifecycle"
	ReportPaymentTracker    = "GBD Payment Tracker"
	ReportCountryCodes      = "Country Codes"
	ReportActivitiesTable   = "Activities Table"
)

// ReportNames lists the four source reports in preparation and join order.
var ReportNames = []string{
	ReportActivityLifecycle,
	ReportPaymentTracker,
	ReportCountryCodes,
	ReportActivitiesTable,
}

// JoinKeys joins each subsequent prepared report onto the lifecycle.
var JoinKeys = []string{accruals.ColClaimNumber, accruals.ColCountry, accruals.ColActivity}

// Specs declares the cell typing for each source report.
var Specs = map[string]SheetSpec{
	ReportActivityLifecycle: {
		DateColumns:   []string{accruals.ColStartDate, accruals.ColEndDate},
		NumberColumns: []string{accruals.ColApprovedPA, accruals.ColClaimAmount},
	},
	ReportPaymentTracker: {
		NumberColumns: []string{"Payment Amount (Partner Currency)"},
	},
	ReportCountryCodes: {
		NumberColumns: []string{accruals.ColCompanyCode, accruals.ColLocationCode},
	},
	ReportActivitiesTable: {
		NumberColumns: append([]string{accruals.ColCostCenter, "DR Entry", "CR Entry"},
			accruals.FactorRegions...),
	},
}

// =============================================================================
// COLUMN MAPS
// =============================================================================

var lifecycleRename = map[string]string{
	"Activity Name": accruals.ColActivity,
	"Partner Name":  accruals.ColPartner,
}

var lifecycleKeep = []string{
	accruals.ColPANumber,
	accruals.ColClaimNumber,
	accruals.ColActivity,
	accruals.ColPartner,
	accruals.ColPartnerType,
	accruals.ColRegion,
	accruals.ColCountry,
	accruals.ColProgram,
	accruals.ColClaimStatus,
	accruals.ColPAStatus,
	accruals.ColStartDate,
	accruals.ColEndDate,
	accruals.ColApprovedPA,
	accruals.ColClaimAmount,
	accruals.ColCurrency,
	accruals.ColBudgetFund,
	accruals.ColBudgetName,
}

var lifecycleImpute = map[string]table.Value{
	accruals.ColPartnerType: table.NewString("N/A"),
	accruals.ColCurrency:    table.NewString("USD"),
	accruals.ColBudgetFund:  table.NewString(""),
	accruals.ColBudgetName:  table.NewString(""),
}

var trackerKeep = []string{
	accruals.ColClaimNumber,
	"Payment Amount (Partner Currency)",
	accruals.ColStatus,
}

var trackerImpute = map[string]table.Value{
	"Payment Amount (Partner Currency)": table.NewNumber(decimal.Zero),
}

var trackerRename = map[string]string{
	"Payment Amount (Partner Currency)": accruals.ColPaymentAmount,
}

var countryKeep = []string{
	accruals.ColCountryName,
	"Country Code",
	accruals.ColCompanyCode,
	accruals.ColLocationCode,
	"New Region This Week",
}

var countryRename = map[string]string{
	"Country Code": accruals.ColCountry,
}

var activitiesRename = map[string]string{
	"Activity Name": accruals.ColActivity,
	"DR Entry":      accruals.ColDRAccount,
	"CR Entry":      accruals.ColCRAccount,
}

// =============================================================================
// PREPARER
// =============================================================================

// Preparer normalizes the uploaded reports. It never mutates the raw tables.
type Preparer struct {
	reports map[string]*table.Table
	log     zerolog.Logger
}

func NewPreparer(reports map[string]*table.Table, log zerolog.Logger) *Preparer {
	return &Preparer{reports: reports, log: log}
}

// PrepareAll runs every per-report preparation, keyed by report name.
func (p *Preparer) PrepareAll() (map[string]*table.Table, error) {
	prepared := make(map[string]*table.Table, len(ReportNames))
	steps := []struct {
		name string
		fn   func() (*table.Table, error)
	}{
		{ReportActivityLifecycle, p.PrepareActivityLifecycle},
		{ReportPaymentTracker, p.PreparePaymentTracker},
		{ReportCountryCodes, p.PrepareCountryCodes},
		{ReportActivitiesTable, p.PrepareActivitiesTable},
	}
	for _, step := range steps {
		t, err := step.fn()
		if err != nil {
			return nil, err
		}
		p.log.Debug().Str("report", step.name).Int("rows", t.Len()).Msg("prepared report")
		prepared[step.name] = t
	}
	return prepared, nil
}

// PrepareActivityLifecycle normalizes the claim rows: canonical column
// names, normalized status fields, denied claims dropped, inactive PA
// statuses dropped, region defaulted to NA, and the claim-approved sentinel
// column derived.
func (p *Preparer) PrepareActivityLifecycle() (*table.Table, error) {
	t := rename(p.reports[ReportActivityLifecycle].Clone(), lifecycleRename)
	t, err := t.Select(lifecycleKeep)
	if err != nil {
		return nil, err
	}

	for _, column := range []string{accruals.ColClaimStatus, accruals.ColPAStatus, accruals.ColProgram} {
		if err := normalizeColumn(t, column); err != nil {
			return nil, err
		}
	}

	t = t.Filter(func(r table.Row) bool {
		return r[accruals.ColClaimStatus].String() != "DENIED"
	})
	t = t.Filter(func(r table.Row) bool {
		switch r[accruals.ColPAStatus].String() {
		case accruals.PAStatusApproved, accruals.PAStatusPending, accruals.PAStatusClosed:
			return true
		}
		return false
	})

	impute(t, map[string]table.Value{accruals.ColRegion: table.NewString("NA")})
	impute(t, lifecycleImpute)

	// A blank approved claim amount means no claim was submitted yet; zero
	// stays zero and real amounts pass through.
	t.AddColumn(accruals.ColClaimApproved, table.Missing())
	for i := 0; i < t.Len(); i++ {
		amount := t.Get(i, accruals.ColClaimAmount)
		if amount.IsMissing() {
			t.Set(i, accruals.ColClaimApproved, table.NewString(accruals.NoClaim))
			continue
		}
		t.Set(i, accruals.ColClaimApproved, amount)
	}
	return t, nil
}

// PreparePaymentTracker subsets and renames the tracker, defaulting absent
// payment amounts to zero.
func (p *Preparer) PreparePaymentTracker() (*table.Table, error) {
	t, err := p.reports[ReportPaymentTracker].Select(trackerKeep)
	if err != nil {
		return nil, err
	}
	impute(t, trackerImpute)
	return rename(t, trackerRename), nil
}

// PrepareCountryCodes cleans the country reference and appends placeholder
// rows for countries the lifecycle mentions but the reference lacks, so the
// later left join never drops a claim.
func (p *Preparer) PrepareCountryCodes() (*table.Table, error) {
	t, err := p.reports[ReportCountryCodes].Select(countryKeep)
	if err != nil {
		return nil, err
	}
	t = t.Filter(func(r table.Row) bool {
		return !r[accruals.ColCountryName].IsMissing()
	})

	for i := 0; i < t.Len(); i++ {
		code := t.Get(i, "Country Code")
		if code.Kind() == table.KindString {
			text, _ := code.AsString("Country Code")
			t.Set(i, "Country Code", table.NewString(strings.ReplaceAll(text, ",", "")))
		}
		// Company and location codes arrive numeric; the report carries them
		// as text codes.
		for _, column := range []string{accruals.ColCompanyCode, accruals.ColLocationCode} {
			if cell := t.Get(i, column); cell.Kind() == table.KindNumber {
				t.Set(i, column, table.NewString(cell.String()))
			}
		}
	}

	known := make(map[string]struct{}, t.Len())
	for i := 0; i < t.Len(); i++ {
		known[t.Get(i, "Country Code").String()] = struct{}{}
	}
	lifecycle, err := p.PrepareActivityLifecycle()
	if err != nil {
		return nil, err
	}
	for i := 0; i < lifecycle.Len(); i++ {
		country := lifecycle.Get(i, accruals.ColCountry).String()
		if _, ok := known[country]; ok || country == "" {
			continue
		}
		known[country] = struct{}{}
		row := make(table.Row)
		for _, column := range countryKeep {
			row[column] = table.NewString("")
		}
		row["Country Code"] = table.NewString(country)
		row["New Region This Week"] = table.NewString(country)
		t.Append(row)
	}

	t = rename(t, countryRename)
	t = dropDuplicateRows(t)
	t.SortRows(func(a, b table.Row) bool {
		return a[accruals.ColCountryName].String() > b[accruals.ColCountryName].String()
	})
	return t, nil
}

// PrepareActivitiesTable stringifies the account and cost-center codes and
// renames the entry columns.
func (p *Preparer) PrepareActivitiesTable() (*table.Table, error) {
	t := p.reports[ReportActivitiesTable].Clone()
	for i := 0; i < t.Len(); i++ {
		for _, column := range []string{accruals.ColCostCenter, "DR Entry", "CR Entry"} {
			cell := t.Get(i, column)
			if cell.Kind() != table.KindNumber {
				continue
			}
			code := cell.String()
			if column == accruals.ColCostCenter {
				for len(code) < 3 {
					code = "0" + code
				}
			}
			t.Set(i, column, table.NewString(code))
		}
	}
	return rename(t, activitiesRename), nil
}

// PAToClaimFactors subsets the prepared activity reference to the factor
// columns and builds the engine's factor table.
func PAToClaimFactors(activities *table.Table) (*accruals.FactorTable, error) {
	subset, err := activities.Select(append([]string{accruals.ColActivity}, accruals.FactorRegions...))
	if err != nil {
		return nil, err
	}
	return accruals.FactorTableFromTable(subset)
}

// JoinPreparedReports left-joins reports[1:] onto reports[0] using keys[i]
// for reports[i+1].
func JoinPreparedReports(reports []*table.Table, keys []string) (*table.Table, error) {
	base := reports[0]
	for i, report := range reports[1:] {
		joined, err := table.LeftJoin(base, report, keys[i])
		if err != nil {
			return nil, err
		}
		base = joined
	}
	return base, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func rename(t *table.Table, mapping map[string]string) *table.Table {
	columns := t.Columns()
	renamed := make([]string, len(columns))
	for i, c := range columns {
		if to, ok := mapping[c]; ok {
			renamed[i] = to
		} else {
			renamed[i] = c
		}
	}
	out := table.New(renamed...)
	for i := 0; i < t.Len(); i++ {
		row := make(table.Row, len(columns))
		src := t.Row(i)
		for j, c := range columns {
			row[renamed[j]] = src[c]
		}
		out.Append(row)
	}
	return out
}

func impute(t *table.Table, values map[string]table.Value) {
	for i := 0; i < t.Len(); i++ {
		for column, fill := range values {
			if t.Get(i, column).IsMissing() {
				t.Set(i, column, fill)
			}
		}
	}
}

func normalizeColumn(t *table.Table, column string) error {
	for i := 0; i < t.Len(); i++ {
		cell := t.Get(i, column)
		if cell.IsMissing() {
			continue
		}
		text, err := cell.AsString(column)
		if err != nil {
			return err
		}
		t.Set(i, column, table.NewString(accruals.Normalize(text)))
	}
	return nil
}

func dropDuplicateRows(t *table.Table) *table.Table {
	columns := t.Columns()
	seen := make(map[string]struct{}, t.Len())
	return t.Filter(func(r table.Row) bool {
		var b strings.Builder
		for _, c := range columns {
			b.WriteString(r[c].String())
			b.WriteByte('\x1f')
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}
