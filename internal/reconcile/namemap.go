package reconcile

import (
	"strings"

	"starload/internal/extract"
	"starload/pkg/models"
)

// NameMap carries the secondary source's raw numeric ids mapped to their
// display names. The fact loader consults it when an exact surrogate-key
// lookup misses and falls back to name matching. It is built once per run
// and never mutated afterwards.
type NameMap struct {
	customers map[int]string // raw id -> company name
	employees map[int]string // raw id -> "first last"
}

// BuildNameMap derives the lookup structure from the raw secondary
// customer and employee tables. Rows without a positive numeric id or
// without a usable name are left out; the fallback simply cannot resolve
// those.
func BuildNameMap(customers, employees *extract.Table) *NameMap {
	m := &NameMap{
		customers: make(map[int]string),
		employees: make(map[int]string),
	}

	if !customers.Empty() {
		if mapped, err := MapColumns(customers, models.SourceSecondary, EntityCustomers); err == nil {
			for _, row := range mapped.Rows {
				id := row.Int("CustomerID")
				name := row.String("CompanyName")
				if id > 0 && name != "" {
					m.customers[id] = name
				}
			}
		}
	}

	if !employees.Empty() {
		if mapped, err := MapColumns(employees, models.SourceSecondary, EntityEmployees); err == nil {
			for _, row := range mapped.Rows {
				id := row.Int("EmployeeID")
				name := strings.TrimSpace(row.String("FirstName") + " " + row.String("LastName"))
				if id > 0 && name != "" {
					m.employees[id] = name
				}
			}
		}
	}

	return m
}

// CustomerName returns the display name for a raw secondary customer id.
func (m *NameMap) CustomerName(rawID int) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.customers[rawID]
	return name, ok
}

// EmployeeName returns the "first last" display name for a raw secondary
// employee id.
func (m *NameMap) EmployeeName(rawID int) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.employees[rawID]
	return name, ok
}

// Len reports the mapped entry counts, for run logging.
func (m *NameMap) Len() (customers, employees int) {
	if m == nil {
		return 0, 0
	}
	return len(m.customers), len(m.employees)
}
