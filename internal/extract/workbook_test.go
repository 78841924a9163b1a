package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook builds a single-sheet .xlsx file the way the desktop
// database exports one table per file.
func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, name+".xlsx")))
}

func TestWorkbookExtractorAvailable(t *testing.T) {
	assert.False(t, NewWorkbookExtractor("").Available())
	assert.False(t, NewWorkbookExtractor("/no/such/dir").Available())
	assert.True(t, NewWorkbookExtractor(t.TempDir()).Available())
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, WorkbookCustomers, [][]interface{}{
		{"ID", "Company ", "City"},
		{"1", "Acme Corporation", "Seattle"},
		{"2", " Widgets Ltd ", ""},
	})

	table, err := NewWorkbookExtractor(dir).ExtractCustomers()
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Company", "City"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Acme Corporation", table.Rows[0].String("Company"))

	// Cell values are trimmed, empty cells are absent.
	assert.Equal(t, "Widgets Ltd", table.Rows[1].String("Company"))
	assert.False(t, table.Rows[1].Has("City"))
}

func TestReadTableSkipsBlankRows(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, WorkbookOrders, [][]interface{}{
		{"", "", ""},
		{"Order ID", "Customer"},
		{"301", "42"},
		{"", ""},
		{"302", "43"},
	})

	table, err := NewWorkbookExtractor(dir).ExtractOrders()
	require.NoError(t, err)

	// The first non-empty row is the header.
	assert.Equal(t, []string{"Order ID", "Customer"}, table.Columns)
	assert.Len(t, table.Rows, 2)
}

func TestReadTableMissingFile(t *testing.T) {
	_, err := NewWorkbookExtractor(t.TempDir()).ExtractEmployees()
	require.Error(t, err)
	assert.True(t, IsTableMissing(err))
}

func TestReadTableInvalidWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, WorkbookOrderDetails+".xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))

	_, err := NewWorkbookExtractor(dir).ExtractOrderDetails()
	require.Error(t, err)
	assert.False(t, IsTableMissing(err))
}

func TestReadTableHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, WorkbookCustomers, [][]interface{}{
		{"ID", "Company"},
	})

	table, err := NewWorkbookExtractor(dir).ExtractCustomers()
	require.NoError(t, err)
	assert.True(t, table.Empty())
}
