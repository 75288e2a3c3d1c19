package export_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/mdf-accruals/export"
	"github.com/warp/mdf-accruals/table"
)

func TestWriter_WritesHeaderAndTypedCells(t *testing.T) {
	// GIVEN: A small report with text, number, and date cells
	// WHEN: Writing the workbook
	// THEN: The sheet carries the header row and rendered cell values

	report := table.New("Partner", "Amount", "Start")
	report.Append(table.Row{
		"Partner": table.NewString("Globex"),
		"Amount":  table.NewNumberFromFloat(1234.5),
		"Start":   table.NewDate(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)),
	})

	name := filepath.Join(t.TempDir(), "report")
	path, err := export.NewWriter(report, name).Write("Accruals", []string{"Amount"})
	require.NoError(t, err)
	assert.Equal(t, name+".xlsx", path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Accruals")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Partner", "Amount", "Start"}, rows[0])
	assert.Equal(t, "Globex", rows[1][0])
	assert.Equal(t, "2024-01-15", rows[1][2])

	// The currency column carries the two-decimal thousands format
	amount, err := f.GetCellValue("Accruals", "B2")
	require.NoError(t, err)
	assert.Equal(t, "1,234.50", amount)
}

func TestWriter_MissingCellsRenderEmpty(t *testing.T) {
	report := table.New("A", "B")
	report.Append(table.Row{"A": table.NewString("x")})

	name := filepath.Join(t.TempDir(), "report")
	path, err := export.NewWriter(report, name).Write("Sheet", nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	b, err := f.GetCellValue("Sheet", "B2")
	require.NoError(t, err)
	assert.Equal(t, "", b)
}
