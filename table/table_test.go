package table_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mdf-accruals/table"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func str(s string) table.Value  { return table.NewString(s) }
func num(n float64) table.Value { return table.NewNumberFromFloat(n) }

// =============================================================================
// VALUE TESTS
// =============================================================================

func TestValue_ZeroValueIsMissing(t *testing.T) {
	// GIVEN: A zero Value
	// THEN: It reads as Missing and renders empty

	var v table.Value
	assert.True(t, v.IsMissing())
	assert.Equal(t, table.KindMissing, v.Kind())
	assert.Equal(t, "", v.String())
}

func TestValue_TypedAccessors(t *testing.T) {
	// GIVEN: Cells of each kind
	// WHEN: Reading them through the matching accessor
	// THEN: The stored content comes back unchanged

	s, err := str("hello").AsString("Col")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	n, err := table.NewNumber(decimal.RequireFromString("12.34")).AsNumber("Col")
	require.NoError(t, err)
	assert.True(t, n.Equal(decimal.RequireFromString("12.34")))
}

func TestValue_AccessorMismatch_NamesColumn(t *testing.T) {
	// GIVEN: A text cell
	// WHEN: Reading it as a number
	// THEN: The error matches ErrTypeMismatch and names the column

	_, err := str("not a number").AsNumber("Approved PA")

	assert.ErrorIs(t, err, table.ErrTypeMismatch)
	var mismatch *table.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "Approved PA", mismatch.Column)
	assert.Equal(t, table.KindNumber, mismatch.Want)
	assert.Equal(t, table.KindString, mismatch.Got)
}

// =============================================================================
// TABLE SHAPE TESTS
// =============================================================================

func TestTable_AppendFillsAbsentColumnsWithMissing(t *testing.T) {
	// GIVEN: A table of two columns
	// WHEN: Appending a row carrying only one of them
	// THEN: The other cell is Missing, not absent

	tbl := table.New("A", "B")
	tbl.Append(table.Row{"A": str("x")})

	assert.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.Get(0, "A").Equal(str("x")))
	assert.True(t, tbl.Get(0, "B").IsMissing())
}

func TestTable_SetIgnoresUndeclaredColumns(t *testing.T) {
	// GIVEN: A one-column table
	// WHEN: Writing to a column it never declared
	// THEN: The table shape stays unchanged

	tbl := table.New("A")
	tbl.Append(table.Row{"A": str("x")})

	tbl.Set(0, "Ghost", str("y"))

	assert.Equal(t, []string{"A"}, tbl.Columns())
	assert.True(t, tbl.Get(0, "Ghost").IsMissing())
}

func TestTable_Select_MissingColumnFails(t *testing.T) {
	// GIVEN: A table without column "C"
	// WHEN: Selecting {A, C}
	// THEN: The error matches ErrColumnSubset and names C

	tbl := table.New("A", "B")
	_, err := tbl.Select([]string{"A", "C"})

	assert.ErrorIs(t, err, table.ErrColumnSubset)
	var subset *table.ColumnSubsetError
	require.ErrorAs(t, err, &subset)
	assert.Equal(t, "C", subset.Column)
}

func TestTable_CloneIsIndependent(t *testing.T) {
	// GIVEN: A cloned table
	// WHEN: Mutating the clone
	// THEN: The original is untouched

	tbl := table.New("A")
	tbl.Append(table.Row{"A": str("original")})

	clone := tbl.Clone()
	clone.Set(0, "A", str("changed"))

	assert.Equal(t, "original", tbl.Get(0, "A").String())
	assert.Equal(t, "changed", clone.Get(0, "A").String())
}

func TestConcatColumns_PositionalGlue(t *testing.T) {
	// GIVEN: Two tables with equal row counts
	// WHEN: Concatenating them side by side
	// THEN: Rows pair by position and duplicate names keep the left cell

	a := table.New("A", "Shared")
	a.Append(table.Row{"A": str("a0"), "Shared": str("left")})
	b := table.New("B", "Shared")
	b.Append(table.Row{"B": str("b0"), "Shared": str("right")})

	out, err := table.ConcatColumns(a, b)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "Shared", "B"}, out.Columns())
	assert.Equal(t, "left", out.Get(0, "Shared").String())
	assert.Equal(t, "b0", out.Get(0, "B").String())
}

func TestConcatColumns_RowCountMismatchFails(t *testing.T) {
	a := table.New("A")
	a.Append(table.Row{"A": str("x")})
	b := table.New("B")

	_, err := table.ConcatColumns(a, b)
	assert.True(t, errors.Is(err, table.ErrRowShape))
}

func TestTable_FillMissing(t *testing.T) {
	// GIVEN: A row with a Missing cell
	// WHEN: Filling with zero
	// THEN: Only the Missing cell changes

	tbl := table.New("A", "B")
	tbl.Append(table.Row{"A": num(5)})
	tbl.FillMissing(num(0))

	assert.True(t, tbl.Get(0, "A").Equal(num(5)))
	assert.True(t, tbl.Get(0, "B").Equal(num(0)))
}

// =============================================================================
// JOIN TESTS
// =============================================================================

func joinLeft() *table.Table {
	left := table.New("Claim Number", "Partner")
	left.Append(table.Row{"Claim Number": str("C-1"), "Partner": str("Globex")})
	left.Append(table.Row{"Claim Number": str("C-2"), "Partner": str("Initech")})
	return left
}

func TestLeftJoin_UnmatchedLeftRowSurvivesWithMissing(t *testing.T) {
	// GIVEN: A right table matching only C-1
	// WHEN: Left joining on Claim Number
	// THEN: C-2 survives with Missing right-side cells

	right := table.New("Claim Number", "Status")
	right.Append(table.Row{"Claim Number": str("C-1"), "Status": str("Paid")})

	out, err := table.LeftJoin(joinLeft(), right, "Claim Number")
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "Paid", out.Get(0, "Status").String())
	assert.True(t, out.Get(1, "Status").IsMissing())
}

func TestLeftJoin_MultipleMatchesExpand(t *testing.T) {
	// GIVEN: Two right rows for C-1
	// WHEN: Left joining
	// THEN: C-1 expands to two rows, in right-table order

	right := table.New("Claim Number", "Status")
	right.Append(table.Row{"Claim Number": str("C-1"), "Status": str("Paid")})
	right.Append(table.Row{"Claim Number": str("C-1"), "Status": str("Pending")})

	out, err := table.LeftJoin(joinLeft(), right, "Claim Number")
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, "Paid", out.Get(0, "Status").String())
	assert.Equal(t, "Pending", out.Get(1, "Status").String())
	assert.Equal(t, "Initech", out.Get(2, "Partner").String())
}

func TestLeftJoin_MissingKeyColumnFails(t *testing.T) {
	// GIVEN: A right table without the key
	// WHEN: Joining
	// THEN: The error matches ErrJoinKey and names the side

	right := table.New("Status")

	_, err := table.LeftJoin(joinLeft(), right, "Claim Number")

	assert.ErrorIs(t, err, table.ErrJoinKey)
	var keyErr *table.JoinKeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "right", keyErr.Side)
}

func TestLeftJoin_DropsDuplicateRightColumns(t *testing.T) {
	// GIVEN: A right table re-declaring Partner
	// WHEN: Joining
	// THEN: The left Partner cell wins and no duplicate column appears

	right := table.New("Claim Number", "Partner")
	right.Append(table.Row{"Claim Number": str("C-1"), "Partner": str("Shadow")})

	out, err := table.LeftJoin(joinLeft(), right, "Claim Number")
	require.NoError(t, err)

	assert.Equal(t, []string{"Claim Number", "Partner"}, out.Columns())
	assert.Equal(t, "Globex", out.Get(0, "Partner").String())
}
