/*
overrides.go - Edge-case override engine

PURPOSE:
  A handful of partners and regions book their claims against different
  company codes, cost centers, or channels than the standard derivation
  produces. Those corrections are data, not code: each OverrideSet is a list
  of rules keyed on normalized dimension values, applied row by row.

APPLICATION ORDER:
  The six standard sets apply strictly in order: China, Wipro, Accenture,
  Odine, LATAM, Nokia. A later set overwriting a column set by an earlier one
  is intentional precedence.

MATCH MODES:
  Exact        rule value == normalized cell value
  CellContains rule value is a substring of the cell (budget fund matching)
  CellWithin   the cell is a substring of the rule value (activity matching)

IDEMPOTENCE:
  Rules only write constant values and never key on a column they write, so
  re-applying a set to an already-overridden row is a no-op.
*/
package accruals

import (
	"fmt"
	"strings"

	"github.com/warp/mdf-accruals/table"
)

// =============================================================================
// OVERRIDE MODEL
// =============================================================================

type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchCellContains
	MatchCellWithin
)

// OverrideKey names one column of a set's lookup key and how its cell is
// compared against rule values.
type OverrideKey struct {
	Column string
	Mode   MatchMode
}

// OverrideRule pairs one key tuple with the column values it forces. Values
// positionally match the set's Keys.
type OverrideRule struct {
	Values []string
	Set    map[string]string
}

// OverrideSet is one named collection of override rules sharing a key shape.
type OverrideSet struct {
	Name  string
	Keys  []OverrideKey
	Rules []OverrideRule
}

func (s OverrideSet) matches(parts, values []string) bool {
	for k, key := range s.Keys {
		switch key.Mode {
		case MatchCellContains:
			if !strings.Contains(parts[k], values[k]) {
				return false
			}
		case MatchCellWithin:
			if !strings.Contains(values[k], parts[k]) {
				return false
			}
		default:
			if parts[k] != values[k] {
				return false
			}
		}
	}
	return true
}

// Apply rewrites every matching row in place, in rule order. Cells for
// undeclared columns are left untouched. Missing key cells never match; key
// cells of any other non-text kind abort with a TypeMismatchError.
func (s OverrideSet) Apply(t *table.Table) error {
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		parts := make([]string, len(s.Keys))
		skip := false
		for k, key := range s.Keys {
			cell := row[key.Column]
			if cell.IsMissing() {
				skip = true
				break
			}
			raw, err := cell.AsString(key.Column)
			if err != nil {
				return fmt.Errorf("override set %s, row %d: %w", s.Name, i, err)
			}
			parts[k] = Normalize(raw)
		}
		if skip {
			continue
		}
		for _, rule := range s.Rules {
			if !s.matches(parts, rule.Values) {
				continue
			}
			for column, value := range rule.Set {
				t.Set(i, column, table.NewString(value))
			}
		}
	}
	return nil
}

// =============================================================================
// STANDARD SETS
// =============================================================================

// DefaultOverrideSets returns the six standing override sets in their fixed
// application order.
func DefaultOverrideSets() []OverrideSet {
	return []OverrideSet{
		{
			// Chinese entities book against dedicated company codes that
			// depend on the settlement currency.
			Name: "China",
			Keys: []OverrideKey{
				{Column: ColCountry, Mode: MatchExact},
				{Column: ColCurrency, Mode: MatchExact},
			},
			Rules: []OverrideRule{
				{Values: []string{"CN", "CNY"}, Set: map[string]string{ColCompanyCode: "168"}},
				{Values: []string{"CN", "USD"}, Set: map[string]string{ColCompanyCode: "169"}},
				{Values: []string{"HK", "HKD"}, Set: map[string]string{ColCompanyCode: "171"}},
			},
		},
		{
			Name: "Wipro",
			Keys: []OverrideKey{
				{Column: ColPartner, Mode: MatchExact},
			},
			Rules: []OverrideRule{
				{
					Values: []string{"WIPROLIMITED"},
					Set: map[string]string{
						ColCompanyCode: "921",
						ColCostCenter:  "479",
						ColProjectCode: "0012",
					},
				},
				{
					Values: []string{"WIPROTECHNOLOGIES"},
					Set: map[string]string{
						ColCompanyCode: "921",
						ColProjectCode: "0012",
					},
				},
			},
		},
		{
			Name: "Accenture",
			Keys: []OverrideKey{
				{Column: ColPartner, Mode: MatchExact},
			},
			Rules: []OverrideRule{
				{
					Values: []string{"ACCENTUREPLC"},
					Set: map[string]string{
						ColCompanyCode: "804",
						ColProjectCode: "0008",
					},
				},
				{
					Values: []string{"ACCENTUREFEDERALSERVICES"},
					Set: map[string]string{
						ColCompanyCode: "805",
						ColProjectCode: "0008",
						ColSalesChannel: "41",
					},
				},
			},
		},
		{
			// Odine claims move cost centers only for specific budget years,
			// so the fund key matches by substring.
			Name: "Odine",
			Keys: []OverrideKey{
				{Column: ColPartner, Mode: MatchExact},
				{Column: ColBudgetFund, Mode: MatchCellContains},
			},
			Rules: []OverrideRule{
				{
					Values: []string{"ODINESOLUTIONS", "CY24"},
					Set: map[string]string{
						ColCostCenter:  "353",
						ColProjectCode: "0031",
					},
				},
				{
					Values: []string{"ODINESOLUTIONS", "CY25"},
					Set: map[string]string{
						ColCostCenter:  "489",
						ColProjectCode: "0031",
					},
				},
			},
		},
		{
			Name: "LATAM",
			Keys: []OverrideKey{
				{Column: ColRegion, Mode: MatchExact},
				{Column: ColCurrency, Mode: MatchExact},
			},
			Rules: []OverrideRule{
				{
					Values: []string{"LATAM", "BRL"},
					Set: map[string]string{
						ColCompanyCode:  "205",
						ColSalesChannel: "41",
					},
				},
				{
					Values: []string{"LATAM", "MXN"},
					Set: map[string]string{
						ColCompanyCode:  "207",
						ColSalesChannel: "41",
					},
				},
			},
		},
		{
			// Nokia joint campaigns are keyed by activity; the rule carries
			// the full campaign name and the row's activity matches within it.
			Name: "Nokia",
			Keys: []OverrideKey{
				{Column: ColRegion, Mode: MatchExact},
				{Column: ColActivity, Mode: MatchCellWithin},
			},
			Rules: []OverrideRule{
				{
					Values: []string{"EMEA", "NOKIAJOINTMARKETINGCAMPAIGNFY25"},
					Set: map[string]string{
						ColCompanyCode: "402",
						ColCostCenter:  "479",
						ColProjectCode: "0017",
					},
				},
				{
					Values: []string{"APAC", "NOKIAPARTNERSUMMITFY25"},
					Set: map[string]string{
						ColCompanyCode: "411",
						ColProjectCode: "0017",
					},
				},
			},
		},
	}
}
