package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starload/pkg/models"
)

func TestExportOrders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fact_orders_transformed.csv")

	orderDate := time.Date(1996, time.July, 4, 0, 0, 0, 0, time.UTC)
	shipped := time.Date(1996, time.July, 16, 0, 0, 0, 0, time.UTC)
	delay := -16

	orders := []models.Order{
		{
			OrderID: 10248, CustomerID: "VINET", EmployeeID: 5,
			OrderDate: &orderDate, ShippedDate: &shipped,
			ShipVia: 3, Freight: 32.38, ShipName: "Vins et alcools Chevalier",
			TotalAmount: 440.0, IsDelivered: true, DeliveryDelay: &delay,
			Source: models.SourceSQL,
		},
		{
			OrderID: 301, CustomerID: "ACC-42", EmployeeID: 1003,
			OrderDate: &orderDate, TotalAmount: 55.0,
			Source: models.SourceSecondary,
		},
	}

	n, err := ExportOrders(path, orders)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportHeader, records[0])

	first := records[1]
	assert.Equal(t, "10248", first[0])
	assert.Equal(t, "VINET", first[1])
	assert.Equal(t, "1996-07-04", first[3])
	assert.Equal(t, "1996-07-16", first[5])
	assert.Equal(t, "32.38", first[7])
	assert.Equal(t, "true", first[15])
	assert.Equal(t, "-16", first[16])
	assert.Equal(t, "SQL", first[17])

	// Absent optionals export as empty cells.
	second := records[2]
	assert.Equal(t, "ACC-42", second[1])
	assert.Equal(t, "", second[5])
	assert.Equal(t, "false", second[15])
	assert.Equal(t, "", second[16])
	assert.Equal(t, "Secondary", second[17])
}

func TestExportOrdersEmptySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	n, err := ExportOrders(path, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "OrderID,CustomerID")
}

func TestExportOrdersUnwritablePath(t *testing.T) {
	_, err := ExportOrders(string([]byte{0}), nil)
	assert.Error(t, err)
}
