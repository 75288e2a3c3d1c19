/*
Package ingest prepares the source reports for the accruals engine.

PURPOSE:
  Reads the uploaded workbooks (activity lifecycle, payment tracker, country
  reference, activity reference) into typed tables, normalizes each one, and
  joins them into the base report the engine consumes.

KEY CONCEPTS IN THIS FILE (reader.go):
  - SheetSpec: which columns of a sheet carry dates or amounts
  - ReadWorkbook / ReadSheet: XLSX -> table.Table with typed cells

CELL TYPING:
  excelize hands back formatted strings; the reader coerces them using the
  SheetSpec. Blank cells become Missing. A non-blank cell that fails to
  parse as its declared type aborts the read with the cell reference - bad
  source data is a gate here, not something to paper over.

SEE ALSO:
  - prepare.go: per-report normalization and the base-report join
*/
package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/mdf-accruals/table"
)

// SheetSpec declares per-column typing for one sheet. Columns listed in
// neither set read as text.
type SheetSpec struct {
	DateColumns   []string
	NumberColumns []string
}

// dateLayouts covers the formats the source systems emit.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
}

// ReadWorkbook opens path and reads its first sheet.
func ReadWorkbook(path string, spec SheetSpec) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return ReadSheet(f, sheet, spec)
}

// ReadSheet reads one sheet into a table. The first row is the header.
func ReadSheet(f *excelize.File, sheet string, spec SheetSpec) (*table.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	header := rows[0]
	columns := make([]string, 0, len(header))
	for _, h := range header {
		columns = append(columns, strings.TrimSpace(h))
	}

	dates := toSet(spec.DateColumns)
	numbers := toSet(spec.NumberColumns)

	out := table.New(columns...)
	for rowIdx, raw := range rows[1:] {
		row := make(table.Row, len(columns))
		for colIdx, column := range columns {
			var cell string
			if colIdx < len(raw) {
				cell = strings.TrimSpace(raw[colIdx])
			}
			value, err := coerce(cell, column, dates, numbers)
			if err != nil {
				return nil, fmt.Errorf("sheet %s, row %d: %w", sheet, rowIdx+2, err)
			}
			row[column] = value
		}
		out.Append(row)
	}
	return out, nil
}

func coerce(cell, column string, dates, numbers map[string]struct{}) (table.Value, error) {
	if cell == "" {
		return table.Missing(), nil
	}
	if _, ok := dates[column]; ok {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, cell); err == nil {
				return table.NewDate(t), nil
			}
		}
		return table.Value{}, fmt.Errorf("column %q: cannot parse date %q", column, cell)
	}
	if _, ok := numbers[column]; ok {
		d, err := decimal.NewFromString(strings.ReplaceAll(cell, ",", ""))
		if err != nil {
			return table.Value{}, fmt.Errorf("column %q: cannot parse amount %q", column, cell)
		}
		return table.NewNumber(d), nil
	}
	return table.NewString(cell), nil
}

func toSet(columns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}
