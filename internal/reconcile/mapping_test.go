package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starload/internal/extract"
	"starload/pkg/errors"
	"starload/pkg/models"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "state/province", normalizeHeader("State/Province"))
	assert.Equal(t, "zip/postalcode", normalizeHeader("ZIP/Postal Code"))
	assert.Equal(t, "businessphone", normalizeHeader("Business Phone"))
	assert.Equal(t, "customerid", normalizeHeader("CustomerID"))
}

func TestMapColumnsRenamesSecondaryHeaders(t *testing.T) {
	raw := &extract.Table{
		Name:    "Customers",
		Columns: []string{"ID", "Company", "Business Phone", "ZIP/Postal Code", "Country/Region"},
		Rows: []extract.Row{
			{"ID": "7", "Company": "Acme", "Business Phone": "555-0100", "ZIP/Postal Code": "62701", "Country/Region": "USA"},
		},
	}

	mapped, err := MapColumns(raw, models.SourceSecondary, EntityCustomers)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"CustomerID", "CompanyName", "Phone", "PostalCode", "Country"}, mapped.Columns)
	require.Len(t, mapped.Rows, 1)
	assert.Equal(t, "7", mapped.Rows[0].String("CustomerID"))
	assert.Equal(t, "555-0100", mapped.Rows[0].String("Phone"))
	assert.Equal(t, "USA", mapped.Rows[0].String("Country"))
}

func TestMapColumnsIgnoresUnmappedColumns(t *testing.T) {
	raw := &extract.Table{
		Name:    "Customers",
		Columns: []string{"CustomerID", "Fax", "HomePage"},
		Rows:    []extract.Row{{"CustomerID": "ALFKI", "Fax": "030-0076545"}},
	}

	mapped, err := MapColumns(raw, models.SourceSQL, EntityCustomers)
	require.NoError(t, err)

	assert.Equal(t, []string{"CustomerID"}, mapped.Columns)
	assert.False(t, mapped.Rows[0].Has("Fax"))
}

func TestMapColumnsNoMatchFails(t *testing.T) {
	raw := &extract.Table{
		Name:    "Customers",
		Columns: []string{"Alpha", "Beta"},
		Rows:    []extract.Row{{"Alpha": "1"}},
	}

	_, err := MapColumns(raw, models.SourceSQL, EntityCustomers)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMissingColumn, errors.GetErrorCode(err))
}

func TestMapColumnsNoMatchAllowedWhenEmpty(t *testing.T) {
	raw := &extract.Table{
		Name:    "Customers",
		Columns: []string{"Alpha", "Beta"},
	}

	mapped, err := MapColumns(raw, models.SourceSQL, EntityCustomers)
	require.NoError(t, err)
	assert.Empty(t, mapped.Rows)
}

func TestMapColumnsUnknownEntity(t *testing.T) {
	raw := &extract.Table{Name: "X", Columns: []string{"A"}}
	_, err := MapColumns(raw, models.SourceSQL, Entity("territories"))
	assert.Error(t, err)
}
