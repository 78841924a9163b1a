package warehouse

import (
	"context"
	"fmt"
)

// The schema manager converges the warehouse to the four-table star
// layout. Convergence is best-effort: a table that cannot be created is
// assumed to already exist, and constraint or index failures are
// warnings, never fatal.

// SchemaReport describes what a convergence pass did.
type SchemaReport struct {
	Created  []string
	Existing []string
	Warnings []string
}

var tableDDL = []struct {
	name string
	ddl  string
}{
	{"DimDate", `
        CREATE TABLE DimDate (
            DateKey INT PRIMARY KEY,
            Date DATE NOT NULL,
            Year INT NOT NULL,
            Quarter INT NOT NULL,
            Month INT NOT NULL,
            Day INT NOT NULL,
            MonthName VARCHAR(20),
            DayOfWeek VARCHAR(20),
            IsWeekend BIT,
            UNIQUE(Date)
        )`},
	{"DimCustomer", `
        CREATE TABLE DimCustomer (
            CustomerKey INT IDENTITY(1,1) PRIMARY KEY,
            CustomerID VARCHAR(20) NOT NULL,
            CompanyName VARCHAR(100) NOT NULL,
            ContactName VARCHAR(100),
            ContactTitle VARCHAR(100),
            Address VARCHAR(200),
            City VARCHAR(50),
            Region VARCHAR(50),
            PostalCode VARCHAR(20),
            Country VARCHAR(50),
            Phone VARCHAR(30),
            SourceSystem VARCHAR(20),
            UNIQUE(CustomerID, SourceSystem)
        )`},
	{"DimEmployee", `
        CREATE TABLE DimEmployee (
            EmployeeKey INT IDENTITY(1,1) PRIMARY KEY,
            EmployeeID INT NOT NULL,
            LastName VARCHAR(50) NOT NULL,
            FirstName VARCHAR(50) NOT NULL,
            Title VARCHAR(100),
            TitleOfCourtesy VARCHAR(25),
            BirthDate DATE,
            HireDate DATE,
            Address VARCHAR(200),
            City VARCHAR(50),
            Region VARCHAR(50),
            PostalCode VARCHAR(20),
            Country VARCHAR(50),
            HomePhone VARCHAR(30),
            ReportsTo INT,
            SourceSystem VARCHAR(20),
            UNIQUE(EmployeeID, SourceSystem)
        )`},
	{"FactOrders", `
        CREATE TABLE FactOrders (
            FactOrderKey INT IDENTITY(1,1) PRIMARY KEY,
            OrderID INT NOT NULL,
            CustomerKey INT,
            EmployeeKey INT,
            OrderDateKey INT,
            OrderDate DATE,
            RequiredDate DATE,
            ShippedDate DATE,
            ShipVia INT,
            Freight DECIMAL(10,2),
            ShipName VARCHAR(100),
            ShipAddress VARCHAR(200),
            ShipCity VARCHAR(50),
            ShipRegion VARCHAR(50),
            ShipPostalCode VARCHAR(20),
            ShipCountry VARCHAR(50),
            TotalAmount DECIMAL(10,2),
            IsDelivered BIT,
            DeliveryDelayDays INT,
            SourceSystem VARCHAR(20)
        )`},
}

var foreignKeyDDL = []struct {
	name string
	ddl  string
}{
	{"FK_FactOrders_DimCustomer", `
        ALTER TABLE FactOrders ADD CONSTRAINT FK_FactOrders_DimCustomer
        FOREIGN KEY (CustomerKey) REFERENCES DimCustomer(CustomerKey)`},
	{"FK_FactOrders_DimEmployee", `
        ALTER TABLE FactOrders ADD CONSTRAINT FK_FactOrders_DimEmployee
        FOREIGN KEY (EmployeeKey) REFERENCES DimEmployee(EmployeeKey)`},
	{"FK_FactOrders_DimDate", `
        ALTER TABLE FactOrders ADD CONSTRAINT FK_FactOrders_DimDate
        FOREIGN KEY (OrderDateKey) REFERENCES DimDate(DateKey)`},
}

var indexDDL = []struct {
	name string
	ddl  string
}{
	{"IX_FactOrders_OrderDateKey", "CREATE INDEX IX_FactOrders_OrderDateKey ON FactOrders(OrderDateKey)"},
	{"IX_FactOrders_CustomerKey", "CREATE INDEX IX_FactOrders_CustomerKey ON FactOrders(CustomerKey)"},
	{"IX_FactOrders_EmployeeKey", "CREATE INDEX IX_FactOrders_EmployeeKey ON FactOrders(EmployeeKey)"},
	{"IX_DimDate_Date", "CREATE INDEX IX_DimDate_Date ON DimDate(Date)"},
	{"IX_DimDate_Year", "CREATE INDEX IX_DimDate_Year ON DimDate(Year)"},
	{"IX_DimDate_Year_Month", "CREATE INDEX IX_DimDate_Year_Month ON DimDate(Year, Month)"},
}

// EnsureSchema converges the warehouse schema: each table is created only
// when the existence check says it is missing, then foreign keys and
// indexes are applied best-effort. Safe to call before every run.
func (s *Service) EnsureSchema(ctx context.Context) (*SchemaReport, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to warehouse")
	}

	report := &SchemaReport{}

	for _, table := range tableDDL {
		exists, err := s.tableExists(ctx, table.name)
		if err != nil {
			// Assume the table is already there; convergence is
			// best-effort and the loaders will surface a real outage.
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("existence check for %s failed: %v", table.name, err))
			continue
		}
		if exists {
			report.Existing = append(report.Existing, table.name)
			continue
		}

		execCtx, cancel := s.getContext(ctx)
		_, err = s.db.ExecContext(execCtx, table.ddl)
		cancel()
		if err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("create %s failed (assuming it exists): %v", table.name, err))
			continue
		}
		report.Created = append(report.Created, table.name)
	}

	s.ensureForeignKeys(ctx, report)
	s.ensureIndexes(ctx, report)

	return report, nil
}

func (s *Service) tableExists(ctx context.Context, name string) (bool, error) {
	queryCtx, cancel := s.getContext(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(queryCtx,
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1", name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ensureForeignKeys applies the fact-table constraints. A failure usually
// means the constraint already exists under another definition or a
// creation race; either way it is informational.
func (s *Service) ensureForeignKeys(ctx context.Context, report *SchemaReport) {
	for _, fk := range foreignKeyDDL {
		var count int
		queryCtx, cancel := s.getContext(ctx)
		err := s.db.QueryRowContext(queryCtx,
			"SELECT COUNT(*) FROM sys.foreign_keys WHERE name = @p1", fk.name,
		).Scan(&count)
		cancel()
		if err == nil && count > 0 {
			continue
		}

		execCtx, cancel := s.getContext(ctx)
		_, err = s.db.ExecContext(execCtx, fk.ddl)
		cancel()
		if err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("foreign key %s not applied: %v", fk.name, err))
		}
	}
}

func (s *Service) ensureIndexes(ctx context.Context, report *SchemaReport) {
	for _, ix := range indexDDL {
		var count int
		queryCtx, cancel := s.getContext(ctx)
		err := s.db.QueryRowContext(queryCtx,
			"SELECT COUNT(*) FROM sys.indexes WHERE name = @p1", ix.name,
		).Scan(&count)
		cancel()
		if err == nil && count > 0 {
			continue
		}

		execCtx, cancel := s.getContext(ctx)
		_, err = s.db.ExecContext(execCtx, ix.ddl)
		cancel()
		if err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("index %s not applied: %v", ix.name, err))
		}
	}
}
