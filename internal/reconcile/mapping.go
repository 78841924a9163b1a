package reconcile

import (
	"fmt"
	"strings"

	"starload/internal/extract"
	"starload/pkg/errors"
	"starload/pkg/models"
)

// Entity names the logical tables the reconciler understands.
type Entity string

const (
	EntityCustomers    Entity = "customers"
	EntityEmployees    Entity = "employees"
	EntityOrders       Entity = "orders"
	EntityOrderDetails Entity = "order_details"
)

// columnMappings is the fixed rawColumn -> canonicalColumn table per
// (source, entity). Raw names are matched after normalization (embedded
// spaces stripped, lowercased) to absorb naming drift between file
// exports. Canonical columns with no mapped raw column are synthesized
// as absent and later defaulted by the reconciler.
var columnMappings = map[models.Source]map[Entity]map[string]string{
	models.SourceSQL: {
		EntityCustomers: {
			"customerid":   "CustomerID",
			"companyname":  "CompanyName",
			"contactname":  "ContactName",
			"contacttitle": "ContactTitle",
			"address":      "Address",
			"city":         "City",
			"region":       "Region",
			"postalcode":   "PostalCode",
			"country":      "Country",
			"phone":        "Phone",
		},
		EntityEmployees: {
			"employeeid":      "EmployeeID",
			"lastname":        "LastName",
			"firstname":       "FirstName",
			"title":           "Title",
			"titleofcourtesy": "TitleOfCourtesy",
			"birthdate":       "BirthDate",
			"hiredate":        "HireDate",
			"address":         "Address",
			"city":            "City",
			"region":          "Region",
			"postalcode":      "PostalCode",
			"country":         "Country",
			"homephone":       "HomePhone",
			"reportsto":       "ReportsTo",
		},
		EntityOrders: {
			"orderid":        "OrderID",
			"customerid":     "CustomerID",
			"employeeid":     "EmployeeID",
			"orderdate":      "OrderDate",
			"requireddate":   "RequiredDate",
			"shippeddate":    "ShippedDate",
			"shipvia":        "ShipVia",
			"freight":        "Freight",
			"shipname":       "ShipName",
			"shipaddress":    "ShipAddress",
			"shipcity":       "ShipCity",
			"shipregion":     "ShipRegion",
			"shippostalcode": "ShipPostalCode",
			"shipcountry":    "ShipCountry",
			"totalamount":    "TotalAmount",
		},
		EntityOrderDetails: {
			"orderid":   "OrderID",
			"quantity":  "Quantity",
			"unitprice": "UnitPrice",
			"discount":  "Discount",
		},
	},
	models.SourceSecondary: {
		EntityCustomers: {
			"id":             "CustomerID",
			"company":        "CompanyName",
			"lastname":       "ContactLastName",
			"firstname":      "ContactFirstName",
			"businessphone":  "Phone",
			"address":        "Address",
			"city":           "City",
			"state/province": "Region",
			"zip/postalcode": "PostalCode",
			"country/region": "Country",
		},
		EntityEmployees: {
			"id":             "EmployeeID",
			"lastname":       "LastName",
			"firstname":      "FirstName",
			"jobtitle":       "Title",
			"businessphone":  "HomePhone",
			"address":        "Address",
			"city":           "City",
			"state/province": "Region",
			"zip/postalcode": "PostalCode",
			"country/region": "Country",
		},
		EntityOrders: {
			"orderid":            "OrderID",
			"customer":           "CustomerID",
			"customerid":         "CustomerID",
			"employee":           "EmployeeID",
			"employeeid":         "EmployeeID",
			"orderdate":          "OrderDate",
			"requireddate":       "RequiredDate",
			"shippeddate":        "ShippedDate",
			"shipvia":            "ShipVia",
			"shippingfee":        "Freight",
			"shipname":           "ShipName",
			"shipaddress":        "ShipAddress",
			"shipcity":           "ShipCity",
			"shipstate/province": "ShipRegion",
			"shipzip/postalcode": "ShipPostalCode",
			"shipcountry/region": "ShipCountry",
		},
		// The export's own autonumber "ID" column is the detail-row id,
		// never the order reference; only "Order ID" maps.
		EntityOrderDetails: {
			"orderid":   "OrderID",
			"quantity":  "Quantity",
			"unitprice": "UnitPrice",
			"discount":  "Discount",
		},
	},
}

// normalizeHeader strips embedded spaces and lowercases a raw column name
// before lookup in the mapping table.
func normalizeHeader(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// MapColumns renames a raw table's columns into canonical names for the
// given (source, entity). It fails with a validation error when the
// extracted column set matches nothing in the mapping, rather than
// silently producing all-null columns.
func MapColumns(t *extract.Table, source models.Source, entity Entity) (*extract.Table, error) {
	mapping, ok := columnMappings[source][entity]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("No column mapping for %s/%s", source, entity))
	}

	matched := 0
	canonical := make([]string, 0, len(t.Columns))
	rawToCanonical := make(map[string]string, len(t.Columns))
	seen := make(map[string]bool, len(t.Columns))

	for _, raw := range t.Columns {
		target, found := mapping[normalizeHeader(raw)]
		if !found || seen[target] {
			continue
		}
		matched++
		seen[target] = true
		canonical = append(canonical, target)
		rawToCanonical[raw] = target
	}

	if matched == 0 && len(t.Rows) > 0 {
		return nil, errors.New(errors.ErrCodeMissingColumn,
			fmt.Sprintf("Extracted %s columns match no mapping for source %s", entity, source)).
			WithContext("columns", strings.Join(t.Columns, ",")).
			WithSuggestions("Verify the export matches the expected table layout")
	}

	mapped := &extract.Table{Name: t.Name, Columns: canonical}
	for _, row := range t.Rows {
		out := make(extract.Row, len(canonical))
		for raw, target := range rawToCanonical {
			if v, ok := row[raw]; ok {
				out[target] = v
			}
		}
		mapped.Rows = append(mapped.Rows, out)
	}
	return mapped, nil
}
