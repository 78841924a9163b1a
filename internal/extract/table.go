package extract

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Row is an untyped source record: column name to raw value. No shape is
// guaranteed at this stage; any column may be absent or nil.
type Row map[string]interface{}

// Table is the in-memory tabular form of one logical source entity.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Has reports whether the row holds a usable value for the column:
// present, non-nil, and not an all-whitespace string.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the cell as a trimmed string, "" when absent.
func (r Row) String(col string) string {
	if !r.Has(col) {
		return ""
	}
	return strings.TrimSpace(cast.ToString(r[col]))
}

// Int returns the cell coerced to int, 0 when absent or unparseable.
func (r Row) Int(col string) int {
	if !r.Has(col) {
		return 0
	}
	n, err := cast.ToIntE(r[col])
	if err != nil {
		return 0
	}
	return n
}

// Float returns the cell coerced to float64, 0 when absent or unparseable.
func (r Row) Float(col string) float64 {
	if !r.Has(col) {
		return 0
	}
	f, err := cast.ToFloat64E(r[col])
	if err != nil {
		return 0
	}
	return f
}

// Time returns the cell as a time, nil when absent or unparseable.
// Workbook cells arrive as strings in a handful of layouts; database
// cells arrive as time.Time already.
func (r Row) Time(col string) *time.Time {
	if !r.Has(col) {
		return nil
	}
	switch v := r[col].(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		return v
	default:
		return parseTime(cast.ToString(v))
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}
