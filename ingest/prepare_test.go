package ingest_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mdf-accruals/accruals"
	"github.com/warp/mdf-accruals/ingest"
	"github.com/warp/mdf-accruals/table"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

var lifecycleColumns = []string{
	accruals.ColPANumber,
	accruals.ColClaimNumber,
	"Activity Name",
	"Partner Name",
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

func lifecycleRawRow(claim string) table.Row {
	return table.Row{
		accruals.ColPANumber:    table.NewString("P-100"),
		accruals.ColClaimNumber: table.NewString(claim),
		"Activity Name":         table.NewString("Partner Campaign"),
		"Partner Name":          table.NewString("Globex"),
		accruals.ColPartnerType: table.NewString("Reseller"),
		accruals.ColRegion:      table.NewString("NA"),
		accruals.ColCountry:     table.NewString("US"),
		accruals.ColProgram:     table.NewString("Alliance Coop"),
		accruals.ColClaimStatus: table.NewString("Submitted"),
		accruals.ColPAStatus:    table.NewString("Approved"),
		accruals.ColStartDate:   table.NewDate(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
		accruals.ColEndDate:     table.NewDate(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)),
		accruals.ColApprovedPA:  table.NewNumberFromInt(1000),
		accruals.ColClaimAmount: table.NewNumberFromInt(300),
		accruals.ColCurrency:    table.NewString("USD"),
		accruals.ColBudgetFund:  table.NewString("FY24 Alliance Fund"),
		accruals.ColBudgetName:  table.NewString("Alliance Fund"),
	}
}

func newPreparer(reports map[string]*table.Table) *ingest.Preparer {
	return ingest.NewPreparer(reports, zerolog.Nop())
}

func lifecycleTable(rows ...table.Row) *table.Table {
	t := table.New(lifecycleColumns...)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

// =============================================================================
// ACTIVITY LIFECYCLE
// =============================================================================

func TestPrepareActivityLifecycle_RenamesAndNormalizes(t *testing.T) {
	// GIVEN: A raw lifecycle row with legacy column names and mixed-case
	//        statuses
	// WHEN: Preparing
	// THEN: Columns carry canonical names and statuses normalize

	raw := lifecycleRawRow("C-1")
	raw[accruals.ColClaimStatus] = table.NewString(" sub mitted ")

	p := newPreparer(map[string]*table.Table{ingest.ReportActivityLifecycle: lifecycleTable(raw)})
	out, err := p.PrepareActivityLifecycle()
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.True(t, out.HasColumn(accruals.ColActivity))
	assert.True(t, out.HasColumn(accruals.ColPartner))
	assert.False(t, out.HasColumn("Activity Name"))
	assert.Equal(t, "SUBMITTED", out.Get(0, accruals.ColClaimStatus).String())
}

func TestPrepareActivityLifecycle_DropsDeniedAndInactive(t *testing.T) {
	// GIVEN: A denied claim, a rejected PA, and a live claim
	// WHEN: Preparing
	// THEN: Only the live claim survives

	denied := lifecycleRawRow("C-1")
	denied[accruals.ColClaimStatus] = table.NewString("Denied")
	rejected := lifecycleRawRow("C-2")
	rejected[accruals.ColPAStatus] = table.NewString("Rejected")
	live := lifecycleRawRow("C-3")

	p := newPreparer(map[string]*table.Table{
		ingest.ReportActivityLifecycle: lifecycleTable(denied, rejected, live),
	})
	out, err := p.PrepareActivityLifecycle()
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "C-3", out.Get(0, accruals.ColClaimNumber).String())
}

func TestPrepareActivityLifecycle_ImputesRegionAndSentinel(t *testing.T) {
	// GIVEN: A row with no region and no claim amount
	// WHEN: Preparing
	// THEN: Region defaults to NA and the claim-approved sentinel reads NOCLAIM

	raw := lifecycleRawRow("C-1")
	raw[accruals.ColRegion] = table.Missing()
	raw[accruals.ColClaimAmount] = table.Missing()

	p := newPreparer(map[string]*table.Table{ingest.ReportActivityLifecycle: lifecycleTable(raw)})
	out, err := p.PrepareActivityLifecycle()
	require.NoError(t, err)

	assert.Equal(t, "NA", out.Get(0, accruals.ColRegion).String())
	assert.Equal(t, accruals.NoClaim, out.Get(0, accruals.ColClaimApproved).String())
}

func TestPrepareActivityLifecycle_ClaimAmountPassesThrough(t *testing.T) {
	raw := lifecycleRawRow("C-1")

	p := newPreparer(map[string]*table.Table{ingest.ReportActivityLifecycle: lifecycleTable(raw)})
	out, err := p.PrepareActivityLifecycle()
	require.NoError(t, err)

	amount, err := out.Get(0, accruals.ColClaimApproved).AsNumber(accruals.ColClaimApproved)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(300)))
}

// =============================================================================
// PAYMENT TRACKER
// =============================================================================

func TestPreparePaymentTracker_RenameAndImpute(t *testing.T) {
	// GIVEN: A tracker row without a payment amount
	// WHEN: Preparing
	// THEN: The amount imputes to zero under the canonical column name

	raw := table.New(accruals.ColClaimNumber, "Payment Amount (Partner Currency)", accruals.ColStatus, "Noise")
	raw.Append(table.Row{
		accruals.ColClaimNumber: table.NewString("C-1"),
		accruals.ColStatus:      table.NewString("Paid"),
		"Noise":                 table.NewString("dropped"),
	})

	p := newPreparer(map[string]*table.Table{ingest.ReportPaymentTracker: raw})
	out, err := p.PreparePaymentTracker()
	require.NoError(t, err)

	assert.False(t, out.HasColumn("Noise"))
	amount, err := out.Get(0, accruals.ColPaymentAmount).AsNumber(accruals.ColPaymentAmount)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

// =============================================================================
// COUNTRY CODES
// =============================================================================

func countryRaw() *table.Table {
	t := table.New("Country Name", "Country Code", accruals.ColCompanyCode, accruals.ColLocationCode, "New Region This Week")
	t.Append(table.Row{
		"Country Name":          table.NewString("United States"),
		"Country Code":          table.NewString("US"),
		accruals.ColCompanyCode: table.NewNumberFromInt(100),
		accruals.ColLocationCode: table.NewNumberFromInt(77),
		"New Region This Week":  table.NewString("NA"),
	})
	return t
}

func TestPrepareCountryCodes_StringifiesAndAppendsUnknowns(t *testing.T) {
	// GIVEN: A country reference missing Brazil, which the lifecycle mentions
	// WHEN: Preparing
	// THEN: Numeric codes stringify and a Brazil placeholder row appears

	lifecycleRow := lifecycleRawRow("C-1")
	lifecycleRow[accruals.ColCountry] = table.NewString("BR")

	p := newPreparer(map[string]*table.Table{
		ingest.ReportCountryCodes:      countryRaw(),
		ingest.ReportActivityLifecycle: lifecycleTable(lifecycleRow),
	})
	out, err := p.PrepareCountryCodes()
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.True(t, out.HasColumn(accruals.ColCountry))

	byCountry := map[string]int{}
	for i := 0; i < out.Len(); i++ {
		byCountry[out.Get(i, accruals.ColCountry).String()] = i
	}
	us, ok := byCountry["US"]
	require.True(t, ok)
	assert.Equal(t, "100", out.Get(us, accruals.ColCompanyCode).String())
	assert.Equal(t, table.KindString, out.Get(us, accruals.ColCompanyCode).Kind())

	br, ok := byCountry["BR"]
	require.True(t, ok)
	assert.Equal(t, "", out.Get(br, "Country Name").String())
}

func TestPrepareCountryCodes_DropsBlankNamesAndDuplicates(t *testing.T) {
	raw := countryRaw()
	raw.Append(table.Row{"Country Code": table.NewString("XX")}) // no name
	// Exact duplicate of the US row
	raw.Append(raw.Row(0).Clone())

	lifecycleRow := lifecycleRawRow("C-1")
	p := newPreparer(map[string]*table.Table{
		ingest.ReportCountryCodes:      raw,
		ingest.ReportActivityLifecycle: lifecycleTable(lifecycleRow),
	})
	out, err := p.PrepareCountryCodes()
	require.NoError(t, err)

	assert.Equal(t, 1, out.Len())
}

// =============================================================================
// ACTIVITIES TABLE
// =============================================================================

func TestPrepareActivitiesTable_PadsAndRenames(t *testing.T) {
	// GIVEN: An activity reference with numeric codes
	// WHEN: Preparing
	// THEN: The cost center left-pads to three digits and entry columns rename

	raw := table.New("Activity Name", accruals.ColAcctCategory, accruals.ColCostCenter,
		"DR Entry", "CR Entry", "APAC", "EMEA", "LATAM", "NA")
	raw.Append(table.Row{
		"Activity Name":          table.NewString("Partner Campaign"),
		accruals.ColAcctCategory: table.NewString("Marketing Expense"),
		accruals.ColCostCenter:   table.NewNumberFromInt(7),
		"DR Entry":               table.NewNumberFromInt(100200),
		"CR Entry":               table.NewNumberFromInt(200300),
		"NA":                     table.NewNumberFromFloat(0.5),
	})

	p := newPreparer(map[string]*table.Table{ingest.ReportActivitiesTable: raw})
	out, err := p.PrepareActivitiesTable()
	require.NoError(t, err)

	assert.Equal(t, "007", out.Get(0, accruals.ColCostCenter).String())
	assert.Equal(t, "100200", out.Get(0, accruals.ColDRAccount).String())
	assert.Equal(t, "200300", out.Get(0, accruals.ColCRAccount).String())
	assert.True(t, out.HasColumn(accruals.ColActivity))

	// The factor columns feed the engine's factor table
	factors, err := ingest.PAToClaimFactors(out)
	require.NoError(t, err)
	factor, err := factors.Lookup("Partner Campaign", "NA")
	require.NoError(t, err)
	assert.True(t, factor.Equal(decimal.NewFromFloat(0.5)))
}

// =============================================================================
// JOIN
// =============================================================================

func TestJoinPreparedReports_ChainsLeftJoins(t *testing.T) {
	// GIVEN: A lifecycle row plus tracker and country tables
	// WHEN: Joining in report order
	// THEN: Tracker and country columns land on the lifecycle row

	lifecycle := table.New(accruals.ColClaimNumber, accruals.ColCountry)
	lifecycle.Append(table.Row{
		accruals.ColClaimNumber: table.NewString("C-1"),
		accruals.ColCountry:     table.NewString("US"),
	})

	tracker := table.New(accruals.ColClaimNumber, accruals.ColStatus)
	tracker.Append(table.Row{
		accruals.ColClaimNumber: table.NewString("C-1"),
		accruals.ColStatus:      table.NewString("Paid"),
	})

	countries := table.New(accruals.ColCountry, accruals.ColCompanyCode)
	countries.Append(table.Row{
		accruals.ColCountry:     table.NewString("US"),
		accruals.ColCompanyCode: table.NewString("100"),
	})

	out, err := ingest.JoinPreparedReports(
		[]*table.Table{lifecycle, tracker, countries},
		[]string{accruals.ColClaimNumber, accruals.ColCountry},
	)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "Paid", out.Get(0, accruals.ColStatus).String())
	assert.Equal(t, "100", out.Get(0, accruals.ColCompanyCode).String())
}
