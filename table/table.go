/*
table.go - Table and Row operations

PURPOSE:
  A Table is an ordered set of named columns over a slice of rows. It is the
  unit of work for the whole pipeline: ingest produces one, every engine
  stage transforms one, export consumes one.

DESIGN PRINCIPLES:
  1. Determinism: columns iterate in declared order, rows in append order.
     Two runs over identical inputs produce identical tables.
  2. No hidden coercion: absent cells are Missing, never "".
  3. Single-threaded: a Table is owned by one run; no locking.

SEE ALSO:
  - value.go: Cell representation
  - join.go:  Left joins between prepared reports
*/
package table

import "sort"

// Row maps column name to cell value. Rows are owned by their Table; callers
// mutate cells through the Row they were handed.
type Row map[string]Value

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// =============================================================================
// TABLE
// =============================================================================

type Table struct {
	columns []string
	colSet  map[string]struct{}
	rows    []Row
}

// New creates an empty table with the given column order.
func New(columns ...string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		colSet:  make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		t.colSet[c] = struct{}{}
	}
	return t
}

func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.colSet[name]
	return ok
}

// Row returns the i-th row. The caller may mutate cells of declared columns.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Append adds a row, keeping only declared columns and filling absent ones
// with Missing.
func (t *Table) Append(r Row) {
	row := make(Row, len(t.columns))
	for _, c := range t.columns {
		if v, ok := r[c]; ok {
			row[c] = v
		} else {
			row[c] = Missing()
		}
	}
	t.rows = append(t.rows, row)
}

// AddColumn declares a new column and fills every existing row with fill.
// Re-declaring an existing column only refills it.
func (t *Table) AddColumn(name string, fill Value) {
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
		t.colSet[name] = struct{}{}
	}
	for _, r := range t.rows {
		r[name] = fill
	}
}

// Get returns the cell at (i, column). Undeclared columns read as Missing.
func (t *Table) Get(i int, column string) Value {
	if !t.HasColumn(column) {
		return Missing()
	}
	return t.rows[i][column]
}

// Set writes the cell at (i, column). Undeclared columns are ignored, matching
// override semantics where only columns present on the report are touched.
func (t *Table) Set(i int, column string, v Value) {
	if !t.HasColumn(column) {
		return
	}
	t.rows[i][column] = v
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.columns...)
	out.rows = make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		out.rows = append(out.rows, r.Clone())
	}
	return out
}

// =============================================================================
// SHAPE OPERATIONS
// =============================================================================

// Select returns a new table restricted to columns, in the given order.
// Fails with a ColumnSubsetError on the first absent column.
func (t *Table) Select(columns []string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, &ColumnSubsetError{Column: c}
		}
	}
	out := New(columns...)
	for _, r := range t.rows {
		out.Append(r)
	}
	return out, nil
}

// Reorder rearranges the column order in place. The new order must name
// exactly the declared columns.
func (t *Table) Reorder(columns []string) error {
	if len(columns) != len(t.columns) {
		return ErrRowShape
	}
	for _, c := range columns {
		if !t.HasColumn(c) {
			return &ColumnSubsetError{Column: c}
		}
	}
	t.columns = append([]string(nil), columns...)
	return nil
}

// AppendTable concatenates o's rows onto t. Both tables must declare the same
// column set; o's rows are copied.
func (t *Table) AppendTable(o *Table) error {
	if len(t.columns) != len(o.columns) {
		return ErrRowShape
	}
	for _, c := range o.columns {
		if !t.HasColumn(c) {
			return &ColumnSubsetError{Column: c}
		}
	}
	for _, r := range o.rows {
		t.rows = append(t.rows, r.Clone())
	}
	return nil
}

// ConcatColumns glues two tables side by side by row position. Both tables
// must have the same number of rows; duplicate column names keep a's cell.
func ConcatColumns(a, b *Table) (*Table, error) {
	if a.Len() != b.Len() {
		return nil, ErrRowShape
	}
	columns := a.Columns()
	for _, c := range b.columns {
		if _, dup := a.colSet[c]; !dup {
			columns = append(columns, c)
		}
	}
	out := New(columns...)
	for i := range a.rows {
		row := make(Row, len(columns))
		for _, c := range b.columns {
			row[c] = b.rows[i][c]
		}
		for _, c := range a.columns {
			row[c] = a.rows[i][c]
		}
		out.Append(row)
	}
	return out, nil
}

// Filter returns a new table holding the rows for which keep returns true,
// preserving order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.columns...)
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// SortRows stably sorts rows in place.
func (t *Table) SortRows(less func(a, b Row) bool) {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return less(t.rows[i], t.rows[j])
	})
}

// FillMissing replaces every Missing cell with fill.
func (t *Table) FillMissing(fill Value) {
	for _, r := range t.rows {
		for _, c := range t.columns {
			if r[c].IsMissing() {
				r[c] = fill
			}
		}
	}
}
