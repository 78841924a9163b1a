package extract

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"starload/pkg/errors"
)

// SQLConfig holds the connection settings for the relational source.
type SQLConfig struct {
	Server            string
	Port              int
	Database          string
	Username          string
	Password          string
	TrustedConnection bool
	Timeout           time.Duration
}

// SQLExtractor pulls raw, untransformed rows from the SQL Server source.
// The connection is opened for the extraction step and closed afterwards;
// it is not held across the transform phase.
type SQLExtractor struct {
	db        *sql.DB
	config    SQLConfig
	connected bool
}

// NewSQLExtractor creates an extractor for the given source.
func NewSQLExtractor(config SQLConfig) *SQLExtractor {
	return &SQLExtractor{config: config}
}

// Connect establishes the source connection, retrying transient failures.
func (e *SQLExtractor) Connect(ctx context.Context) error {
	if e.connected {
		return nil
	}

	return errors.RetryWithBackoff(ctx, func(ctx context.Context) error {
		db, err := sql.Open("sqlserver", BuildDSN(
			e.config.Server, e.config.Port, e.config.Database,
			e.config.Username, e.config.Password, e.config.TrustedConnection,
		))
		if err != nil {
			return errors.ConnectionError("Failed to open source connection", err).
				WithContext("server", e.config.Server).
				WithContext("database", e.config.Database)
		}

		db.SetMaxOpenConns(4)
		db.SetConnMaxLifetime(10 * time.Minute)

		pingCtx, cancel := e.getContext(ctx)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return errors.ConnectionError("Failed to connect to source database", err).
				WithContext("server", e.config.Server).
				AsRecoverable()
		}

		e.db = db
		e.connected = true
		return nil
	})
}

// Close releases the source connection.
func (e *SQLExtractor) Close() error {
	if !e.connected {
		return nil
	}
	e.connected = false
	return e.db.Close()
}

const sqlCustomersQuery = `
    SELECT CustomerID, CompanyName, ContactName, ContactTitle,
           Address, City, Region, PostalCode, Country, Phone
    FROM Customers
    WHERE CustomerID IS NOT NULL`

const sqlEmployeesQuery = `
    SELECT EmployeeID, LastName, FirstName, Title, TitleOfCourtesy,
           BirthDate, HireDate, Address, City, Region, PostalCode,
           Country, HomePhone, ReportsTo
    FROM Employees
    WHERE EmployeeID IS NOT NULL`

// The order total is folded in at extraction time by joining the
// line-items table, matching the shape the reconciler expects.
const sqlOrdersQuery = `
    SELECT o.OrderID, o.CustomerID, o.EmployeeID,
           o.OrderDate, o.RequiredDate, o.ShippedDate,
           o.ShipVia, o.Freight, o.ShipName, o.ShipAddress,
           o.ShipCity, o.ShipRegion, o.ShipPostalCode, o.ShipCountry,
           SUM(od.Quantity * od.UnitPrice * (1 - od.Discount)) AS TotalAmount
    FROM Orders o
    LEFT JOIN [Order Details] od ON o.OrderID = od.OrderID
    WHERE o.OrderID IS NOT NULL
    GROUP BY o.OrderID, o.CustomerID, o.EmployeeID, o.OrderDate,
             o.RequiredDate, o.ShippedDate, o.ShipVia, o.Freight,
             o.ShipName, o.ShipAddress, o.ShipCity, o.ShipRegion,
             o.ShipPostalCode, o.ShipCountry
    ORDER BY o.OrderID`

// ExtractCustomers returns the raw customer table.
func (e *SQLExtractor) ExtractCustomers(ctx context.Context) (*Table, error) {
	return e.queryTable(ctx, "Customers", sqlCustomersQuery)
}

// ExtractEmployees returns the raw employee table.
func (e *SQLExtractor) ExtractEmployees(ctx context.Context) (*Table, error) {
	return e.queryTable(ctx, "Employees", sqlEmployeesQuery)
}

// ExtractOrders returns the raw order table with TotalAmount precomputed
// from the line-items join.
func (e *SQLExtractor) ExtractOrders(ctx context.Context) (*Table, error) {
	return e.queryTable(ctx, "Orders", sqlOrdersQuery)
}

// ExtractAuxiliary pulls the remaining source tables the contract exposes.
// They are not transformed; a failure on any one is reported per table and
// does not fail the extraction.
func (e *SQLExtractor) ExtractAuxiliary(ctx context.Context) (map[string]*Table, map[string]error) {
	names := []string{"EmployeeTerritories", "Region", "Territories"}
	tables := make(map[string]*Table, len(names))
	failures := make(map[string]error)

	for _, name := range names {
		t, err := e.queryTable(ctx, name, fmt.Sprintf("SELECT * FROM %s", name))
		if err != nil {
			failures[name] = err
			continue
		}
		tables[name] = t
	}
	return tables, failures
}

func (e *SQLExtractor) queryTable(ctx context.Context, name, query string) (*Table, error) {
	if !e.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to source database").
			WithSuggestions("Call Connect() before extracting")
	}

	queryCtx, cancel := e.getContext(ctx)
	defer cancel()

	rows, err := e.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, errors.ExtractionError(fmt.Sprintf("Failed to extract %s", name), name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.ExtractionError(fmt.Sprintf("Failed to read columns for %s", name), name, err)
	}

	table := &Table{Name: name, Columns: cols}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		valuePtrs := make([]interface{}, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.ExtractionError(fmt.Sprintf("Failed to scan row from %s", name), name, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			// Text columns surface as []byte through database/sql.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.ExtractionError(fmt.Sprintf("Row iteration failed for %s", name), name, err)
	}
	return table, nil
}

func (e *SQLExtractor) getContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// BuildDSN assembles a sqlserver connection string. Trusted connections
// omit credentials and rely on integrated security.
func BuildDSN(server string, port int, database, username, password string, trusted bool) string {
	host := server
	if port != 0 {
		host = fmt.Sprintf("%s:%d", server, port)
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   host,
	}
	q := url.Values{}
	q.Set("database", database)
	if trusted {
		q.Set("trusted_connection", "yes")
	} else {
		u.User = url.UserPassword(username, password)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
