package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"starload/pkg/errors"
)

// Workbook table names as exported from the desktop database. Each logical
// table lives in its own .xlsx file under the configured directory.
const (
	WorkbookCustomers    = "Customers"
	WorkbookEmployees    = "Employees"
	WorkbookOrders       = "Orders"
	WorkbookOrderDetails = "Order Details"
)

// WorkbookExtractor reads the secondary source: per-table workbook exports
// of the file-based desktop database.
type WorkbookExtractor struct {
	dir string
}

// NewWorkbookExtractor creates an extractor rooted at dir. An empty dir
// means the secondary source is not configured.
func NewWorkbookExtractor(dir string) *WorkbookExtractor {
	return &WorkbookExtractor{dir: dir}
}

// Available reports whether the secondary source directory is configured
// and reachable. An unavailable secondary source degrades the run to
// SQL-only, it does not fail it.
func (w *WorkbookExtractor) Available() bool {
	if w.dir == "" {
		return false
	}
	info, err := os.Stat(w.dir)
	return err == nil && info.IsDir()
}

// ExtractCustomers returns the raw secondary customer table.
func (w *WorkbookExtractor) ExtractCustomers() (*Table, error) {
	return w.readTable(WorkbookCustomers)
}

// ExtractEmployees returns the raw secondary employee table.
func (w *WorkbookExtractor) ExtractEmployees() (*Table, error) {
	return w.readTable(WorkbookEmployees)
}

// ExtractOrders returns the raw secondary order table.
func (w *WorkbookExtractor) ExtractOrders() (*Table, error) {
	return w.readTable(WorkbookOrders)
}

// ExtractOrderDetails returns the raw line-items table used to derive
// order totals.
func (w *WorkbookExtractor) ExtractOrderDetails() (*Table, error) {
	return w.readTable(WorkbookOrderDetails)
}

// readTable loads <dir>/<name>.xlsx: first sheet, first non-empty row as
// header, remaining non-empty rows as data. All cells arrive as strings.
func (w *WorkbookExtractor) readTable(name string) (*Table, error) {
	path := filepath.Join(w.dir, name+".xlsx")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeTableMissing, fmt.Sprintf("Workbook not found: %s", name)).
			WithContext("path", path).
			WithSuggestions("Re-export the table from the desktop database")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeWorkbookInvalid, fmt.Sprintf("Failed to open workbook %s", name)).
			WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeWorkbookInvalid, fmt.Sprintf("Workbook %s has no sheets", name))
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeWorkbookInvalid, fmt.Sprintf("Failed to read rows from %s", name))
	}

	table := &Table{Name: name}
	for _, record := range records {
		if emptyRecord(record) {
			continue
		}
		if table.Columns == nil {
			table.Columns = trimRecord(record)
			continue
		}

		row := make(Row, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(record) {
				if v := strings.TrimSpace(record[i]); v != "" {
					row[col] = v
				}
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if table.Columns == nil {
		return nil, errors.New(errors.ErrCodeWorkbookInvalid, fmt.Sprintf("No header row in workbook %s", name))
	}
	return table, nil
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimRecord(record []string) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

// IsTableMissing reports whether err marks an individual missing workbook,
// which callers treat as an empty contribution rather than a failure.
func IsTableMissing(err error) bool {
	return errors.GetErrorCode(err) == errors.ErrCodeTableMissing
}
