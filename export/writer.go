/*
Package export writes the finished accruals report to an XLSX workbook.

PURPOSE:
  The downstream Record-to-Report consumers expect a formatted workbook:
  currency columns with a two-decimal thousands format, a bold header row,
  and columns wide enough to read without resizing.

FORMATTING:
  - Currency columns (the fixed monetary columns plus every month, quarter,
    and total column) get the "#,##0.00" number format
  - Header cells are bold on a light fill
  - Column width is the longest rendered cell plus padding

SEE ALSO:
  - accruals/columns.go: CurrencyColumns and the canonical column order
*/
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/mdf-accruals/table"
)

// currencyFormat is the number format applied to monetary cells.
const currencyFormat = "#,##0.00"

// widthPadding keeps column contents off the cell borders.
const widthPadding = 2

// Writer persists one report table to a workbook on disk.
type Writer struct {
	report *table.Table
	name   string
}

// NewWriter wraps a report; name is the output path without the .xlsx
// extension.
func NewWriter(report *table.Table, name string) *Writer {
	return &Writer{report: report, name: name}
}

// Write creates the workbook with a single sheet and returns its path.
// currencyColumns name the columns that receive currency formatting.
func (w *Writer) Write(sheet string, currencyColumns []string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return "", fmt.Errorf("header style: %w", err)
	}
	numFmt := currencyFormat
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return "", fmt.Errorf("currency style: %w", err)
	}

	currency := make(map[string]struct{}, len(currencyColumns))
	for _, c := range currencyColumns {
		currency[c] = struct{}{}
	}

	columns := w.report.Columns()
	widths := make([]int, len(columns))
	for colIdx, column := range columns {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			return "", err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return "", err
		}
		widths[colIdx] = len(column)
	}

	for rowIdx := 0; rowIdx < w.report.Len(); rowIdx++ {
		row := w.report.Row(rowIdx)
		for colIdx, column := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return "", err
			}
			value := row[column]
			if err := setCell(f, sheet, cell, value); err != nil {
				return "", err
			}
			if rendered := len(value.String()); rendered > widths[colIdx] {
				widths[colIdx] = rendered
			}
		}
	}

	lastRow := w.report.Len() + 1
	for colIdx, column := range columns {
		name, err := excelize.ColumnNumberToName(colIdx + 1)
		if err != nil {
			return "", err
		}
		if err := f.SetColWidth(sheet, name, name, float64(widths[colIdx]+widthPadding)); err != nil {
			return "", err
		}
		if _, ok := currency[column]; !ok {
			continue
		}
		top, err := excelize.CoordinatesToCellName(colIdx+1, 2)
		if err != nil {
			return "", err
		}
		bottom, err := excelize.CoordinatesToCellName(colIdx+1, lastRow)
		if err != nil {
			return "", err
		}
		if err := f.SetCellStyle(sheet, top, bottom, currencyStyle); err != nil {
			return "", err
		}
	}

	path := w.name + ".xlsx"
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// setCell writes one cell with its native type so spreadsheet formulas and
// formats keep working.
func setCell(f *excelize.File, sheet, cell string, v table.Value) error {
	switch v.Kind() {
	case table.KindNumber:
		n, err := v.AsNumber("")
		if err != nil {
			return err
		}
		amount, _ := n.Float64()
		return f.SetCellValue(sheet, cell, amount)
	case table.KindDate:
		d, err := v.AsDate("")
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, d.Format("2006-01-02"))
	default:
		return f.SetCellValue(sheet, cell, v.String())
	}
}
