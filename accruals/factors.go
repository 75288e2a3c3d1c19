/*
factors.go - PA-to-claims reduction factor table

PURPOSE:
  The factor table maps Activity x Region to the reduction factor applied to
  approved PA amounts. It is built from the {Activity, APAC, EMEA, LATAM, NA}
  columns of the prepared activity reference table.

LOOKUP CONTRACT:
  An activity absent from the table, or a region column that does not exist,
  is a reportable lookup failure (FactorLookupError), never a silent default.
*/
package accruals

import (
	"github.com/shopspring/decimal"

	"github.com/warp/mdf-accruals/table"
)

// FactorRegions is the fixed region column set of the factor table.
var FactorRegions = []string{"APAC", "EMEA", "LATAM", "NA"}

// FactorTable holds reduction factors keyed by activity and region.
type FactorTable struct {
	regions map[string]struct{}
	factors map[string]map[string]decimal.Decimal
}

// NewFactorTable creates an empty factor table over the standard regions.
func NewFactorTable() *FactorTable {
	f := &FactorTable{
		regions: make(map[string]struct{}, len(FactorRegions)),
		factors: make(map[string]map[string]decimal.Decimal),
	}
	for _, r := range FactorRegions {
		f.regions[r] = struct{}{}
	}
	return f
}

// Add records the factors for one activity.
func (f *FactorTable) Add(activity string, byRegion map[string]decimal.Decimal) {
	row := make(map[string]decimal.Decimal, len(byRegion))
	for region, factor := range byRegion {
		row[region] = factor
	}
	f.factors[activity] = row
}

// Lookup returns the reduction factor for an activity/region pair. Absent
// activities and unknown regions fail with a FactorLookupError.
func (f *FactorTable) Lookup(activity, region string) (decimal.Decimal, error) {
	if _, ok := f.regions[region]; !ok {
		return decimal.Zero, &FactorLookupError{Activity: activity, Region: region}
	}
	byRegion, ok := f.factors[activity]
	if !ok {
		return decimal.Zero, &FactorLookupError{Activity: activity, Region: region}
	}
	factor, ok := byRegion[region]
	if !ok {
		return decimal.Zero, &FactorLookupError{Activity: activity, Region: region}
	}
	return factor, nil
}

// FactorTableFromTable builds a FactorTable from a prepared table holding the
// Activity column plus one column per region. Absent columns fail with a
// ColumnSubsetError; region cells that are not numeric fail with a
// TypeMismatchError.
func FactorTableFromTable(t *table.Table) (*FactorTable, error) {
	needed := append([]string{ColActivity}, FactorRegions...)
	for _, c := range needed {
		if !t.HasColumn(c) {
			return nil, &table.ColumnSubsetError{Column: c}
		}
	}

	out := NewFactorTable()
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		activity, err := row[ColActivity].AsString(ColActivity)
		if err != nil {
			return nil, err
		}
		byRegion := make(map[string]decimal.Decimal, len(FactorRegions))
		for _, region := range FactorRegions {
			if row[region].IsMissing() {
				continue
			}
			factor, err := row[region].AsNumber(region)
			if err != nil {
				return nil, err
			}
			byRegion[region] = factor
		}
		out.Add(activity, byRegion)
	}
	return out, nil
}
