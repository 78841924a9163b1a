package reconcile

import (
	"fmt"

	"starload/internal/extract"
	"starload/pkg/models"
)

// The reconciler maps both sources into one canonical shape, remaps
// identifiers into a shared key space, and derives the computed fact
// fields. It is symmetric across sources: the emitted shape differs only
// in Source and in which fields were defaulted.

const unknown = "Unknown"

// defaultShipVia is the numeric ship-method used when the source omits one.
const defaultShipVia = 1

// Stats reports how a transform treated its input rows.
type Stats struct {
	Input   int
	Dropped int // rows with a null identifier after remapping
}

// Customers transforms a raw customer table into canonical dimension rows.
// Rows whose identifier is null after remapping are dropped; other missing
// fields are retained with defaults.
func Customers(raw *extract.Table, source models.Source) ([]models.Customer, Stats, error) {
	stats := Stats{}
	if raw.Empty() {
		return nil, stats, nil
	}

	mapped, err := MapColumns(raw, source, EntityCustomers)
	if err != nil {
		return nil, stats, err
	}

	out := make([]models.Customer, 0, len(mapped.Rows))
	for _, row := range mapped.Rows {
		stats.Input++

		id, ok := customerID(row, source)
		if !ok {
			stats.Dropped++
			continue
		}

		c := models.Customer{
			CustomerID:   id,
			CompanyName:  textOrUnknown(row, "CompanyName"),
			ContactName:  contactName(row, source),
			ContactTitle: textOrUnknown(row, "ContactTitle"),
			Address:      textOrUnknown(row, "Address"),
			City:         textOrUnknown(row, "City"),
			Region:       textOrUnknown(row, "Region"),
			PostalCode:   textOrUnknown(row, "PostalCode"),
			Country:      textOrUnknown(row, "Country"),
			Phone:        textOrUnknown(row, "Phone"),
			Source:       source,
		}
		out = append(out, c)
	}
	return out, stats, nil
}

// Employees transforms a raw employee table into canonical dimension rows.
func Employees(raw *extract.Table, source models.Source) ([]models.Employee, Stats, error) {
	stats := Stats{}
	if raw.Empty() {
		return nil, stats, nil
	}

	mapped, err := MapColumns(raw, source, EntityEmployees)
	if err != nil {
		return nil, stats, err
	}

	out := make([]models.Employee, 0, len(mapped.Rows))
	for _, row := range mapped.Rows {
		stats.Input++

		id, ok := employeeID(row, source)
		if !ok {
			stats.Dropped++
			continue
		}

		e := models.Employee{
			EmployeeID:      id,
			LastName:        textOrUnknown(row, "LastName"),
			FirstName:       textOrUnknown(row, "FirstName"),
			Title:           textOrUnknown(row, "Title"),
			TitleOfCourtesy: row.String("TitleOfCourtesy"),
			BirthDate:       row.Time("BirthDate"),
			HireDate:        row.Time("HireDate"),
			Address:         textOrUnknown(row, "Address"),
			City:            textOrUnknown(row, "City"),
			Region:          textOrUnknown(row, "Region"),
			PostalCode:      textOrUnknown(row, "PostalCode"),
			Country:         textOrUnknown(row, "Country"),
			HomePhone:       textOrUnknown(row, "HomePhone"),
			Source:          source,
		}

		// The desktop export carries no courtesy title or manager chain.
		if e.TitleOfCourtesy == "" {
			if source == models.SourceSecondary {
				e.TitleOfCourtesy = "Mr."
			} else {
				e.TitleOfCourtesy = unknown
			}
		}
		if source == models.SourceSQL && row.Has("ReportsTo") {
			reportsTo := row.Int("ReportsTo")
			e.ReportsTo = &reportsTo
		}

		out = append(out, e)
	}
	return out, stats, nil
}

// Orders transforms a raw order table into canonical fact rows. details
// may be nil; when the order level carries no TotalAmount the total is
// derived from the line items, defaulting to 0 when those are unavailable.
func Orders(raw, details *extract.Table, source models.Source) ([]models.Order, Stats, error) {
	stats := Stats{}
	if raw.Empty() {
		return nil, stats, nil
	}

	mapped, err := MapColumns(raw, source, EntityOrders)
	if err != nil {
		return nil, stats, err
	}

	totals := lineItemTotals(details, source)

	out := make([]models.Order, 0, len(mapped.Rows))
	for _, row := range mapped.Rows {
		stats.Input++

		orderID := row.Int("OrderID")
		if orderID == 0 {
			stats.Dropped++
			continue
		}

		o := models.Order{
			OrderID:        orderID,
			CustomerID:     orderCustomerRef(row, source),
			EmployeeID:     orderEmployeeRef(row, source),
			OrderDate:      row.Time("OrderDate"),
			RequiredDate:   row.Time("RequiredDate"),
			ShippedDate:    row.Time("ShippedDate"),
			ShipVia:        defaultShipVia,
			Freight:        row.Float("Freight"),
			ShipName:       textOrUnknown(row, "ShipName"),
			ShipAddress:    textOrUnknown(row, "ShipAddress"),
			ShipCity:       textOrUnknown(row, "ShipCity"),
			ShipRegion:     textOrUnknown(row, "ShipRegion"),
			ShipPostalCode: textOrUnknown(row, "ShipPostalCode"),
			ShipCountry:    textOrUnknown(row, "ShipCountry"),
			Source:         source,
		}

		if v := row.Int("ShipVia"); v != 0 {
			o.ShipVia = v
		}

		if row.Has("TotalAmount") {
			o.TotalAmount = row.Float("TotalAmount")
		} else {
			o.TotalAmount = totals[orderID] // 0 when line items are unavailable
		}

		o.IsDelivered = o.ShippedDate != nil
		if o.ShippedDate != nil && o.RequiredDate != nil {
			days := int(o.ShippedDate.Sub(*o.RequiredDate).Hours() / 24)
			o.DeliveryDelay = &days
		}

		out = append(out, o)
	}
	return out, stats, nil
}

// lineItemTotals sums quantity * unitPrice * (1 - discount) grouped by
// order id over the line-items table.
func lineItemTotals(details *extract.Table, source models.Source) map[int]float64 {
	totals := make(map[int]float64)
	if details.Empty() {
		return totals
	}

	mapped, err := MapColumns(details, source, EntityOrderDetails)
	if err != nil {
		return totals
	}

	for _, row := range mapped.Rows {
		orderID := row.Int("OrderID")
		if orderID == 0 {
			continue
		}
		totals[orderID] += row.Float("Quantity") * row.Float("UnitPrice") * (1 - row.Float("Discount"))
	}
	return totals
}

// customerID remaps a customer identifier into the shared key space.
// SQL ids pass through as strings; secondary numeric ids gain the ACC-
// prefix. Zero or non-numeric secondary ids are absent, not identifiers.
func customerID(row extract.Row, source models.Source) (string, bool) {
	if source == models.SourceSQL {
		id := row.String("CustomerID")
		return id, id != ""
	}
	n := row.Int("CustomerID")
	if n <= 0 {
		return "", false
	}
	return fmt.Sprintf("ACC-%d", n), true
}

// employeeID remaps an employee identifier. Secondary ids shift into the
// disjoint 1000+ band.
func employeeID(row extract.Row, source models.Source) (int, bool) {
	n := row.Int("EmployeeID")
	if n <= 0 {
		return 0, false
	}
	if source == models.SourceSecondary {
		return 1000 + n, true
	}
	return n, true
}

// orderCustomerRef remaps the fact row's customer reference. An absent
// reference yields "" and downstream must not attempt resolution for it.
func orderCustomerRef(row extract.Row, source models.Source) string {
	id, ok := customerID(row, source)
	if !ok {
		return ""
	}
	return id
}

// orderEmployeeRef remaps the fact row's employee reference, 0 when absent.
func orderEmployeeRef(row extract.Row, source models.Source) int {
	id, ok := employeeID(row, source)
	if !ok {
		return 0
	}
	return id
}

func textOrUnknown(row extract.Row, col string) string {
	if v := row.String(col); v != "" {
		return v
	}
	return unknown
}

// contactName uses the source's contact column when present, otherwise
// joins the secondary export's split first/last name columns.
func contactName(row extract.Row, source models.Source) string {
	if v := row.String("ContactName"); v != "" {
		return v
	}
	first := row.String("ContactFirstName")
	last := row.String("ContactLastName")
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return unknown
}
