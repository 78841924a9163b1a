package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"starload/pkg/errors"
	"starload/pkg/models"
)

var exportHeader = []string{
	"OrderID", "CustomerID", "EmployeeID", "OrderDate", "RequiredDate",
	"ShippedDate", "ShipVia", "Freight", "ShipName", "ShipAddress",
	"ShipCity", "ShipRegion", "ShipPostalCode", "ShipCountry",
	"TotalAmount", "IsDelivered", "DeliveryDelayDays", "SourceSystem",
}

// ExportOrders writes the transformed orders to a CSV file, creating the
// parent directory when needed. It returns the number of data rows written.
func ExportOrders(path string, orders []models.Order) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeFileNotFound, "Failed to create export directory").
				WithContext("path", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeFileNotFound, "Failed to create export file").
			WithContext("path", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write export header: %w", err)
	}

	for _, o := range orders {
		if err := w.Write(exportRecord(o)); err != nil {
			return 0, fmt.Errorf("failed to write order %d: %w", o.OrderID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush export: %w", err)
	}
	return len(orders), nil
}

func exportRecord(o models.Order) []string {
	return []string{
		strconv.Itoa(o.OrderID),
		o.CustomerID,
		exportInt(o.EmployeeID),
		exportDate(o.OrderDate),
		exportDate(o.RequiredDate),
		exportDate(o.ShippedDate),
		strconv.Itoa(o.ShipVia),
		strconv.FormatFloat(o.Freight, 'f', 2, 64),
		o.ShipName,
		o.ShipAddress,
		o.ShipCity,
		o.ShipRegion,
		o.ShipPostalCode,
		o.ShipCountry,
		strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
		strconv.FormatBool(o.IsDelivered),
		exportIntPtr(o.DeliveryDelay),
		string(o.Source),
	}
}

func exportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func exportInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func exportIntPtr(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
