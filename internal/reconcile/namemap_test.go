package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"starload/internal/extract"
)

func TestBuildNameMap(t *testing.T) {
	customers := &extract.Table{
		Name:    "Customers",
		Columns: []string{"ID", "Company"},
		Rows: []extract.Row{
			{"ID": "42", "Company": "Acme Corp"},
			{"ID": "0", "Company": "Ghost Inc"},
			{"ID": "7"},
		},
	}
	employees := &extract.Table{
		Name:    "Employees",
		Columns: []string{"ID", "First Name", "Last Name"},
		Rows: []extract.Row{
			{"ID": "3", "First Name": "Jan", "Last Name": "Kowalski"},
			{"ID": "4", "Last Name": "Nowak"},
		},
	}

	m := BuildNameMap(customers, employees)

	name, ok := m.CustomerName(42)
	assert.True(t, ok)
	assert.Equal(t, "Acme Corp", name)

	// Zero ids and nameless rows contribute nothing.
	_, ok = m.CustomerName(0)
	assert.False(t, ok)
	_, ok = m.CustomerName(7)
	assert.False(t, ok)

	name, ok = m.EmployeeName(3)
	assert.True(t, ok)
	assert.Equal(t, "Jan Kowalski", name)

	// A lone last name is still a usable display name.
	name, ok = m.EmployeeName(4)
	assert.True(t, ok)
	assert.Equal(t, "Nowak", name)

	nc, ne := m.Len()
	assert.Equal(t, 1, nc)
	assert.Equal(t, 2, ne)
}

func TestBuildNameMapEmptyInputs(t *testing.T) {
	m := BuildNameMap(nil, nil)

	_, ok := m.CustomerName(1)
	assert.False(t, ok)

	nc, ne := m.Len()
	assert.Zero(t, nc)
	assert.Zero(t, ne)
}

func TestNameMapNilReceiver(t *testing.T) {
	var m *NameMap

	_, ok := m.CustomerName(1)
	assert.False(t, ok)
	_, ok = m.EmployeeName(1)
	assert.False(t, ok)

	nc, ne := m.Len()
	assert.Zero(t, nc)
	assert.Zero(t, ne)
}
