package warehouse

import (
	"context"
	"fmt"

	"starload/pkg/errors"
	"starload/pkg/models"
)

// maxRowErrorLogs caps per-row failure logging so a broken batch does not
// flood the terminal.
const maxRowErrorLogs = 5

// DimensionResult reports what a dimension load did with its input rows.
type DimensionResult struct {
	Inserted int
	Skipped  int // natural key already present in the warehouse
	Failed   int
}

const (
	existingCustomersSQL = "SELECT CustomerID, SourceSystem FROM DimCustomer"
	existingEmployeesSQL = "SELECT EmployeeID, SourceSystem FROM DimEmployee"

	insertCustomerSQL = `
        INSERT INTO DimCustomer
        (CustomerID, CompanyName, ContactName, ContactTitle, Address,
         City, Region, PostalCode, Country, Phone, SourceSystem)
        VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11)`

	insertEmployeeSQL = `
        INSERT INTO DimEmployee
        (EmployeeID, LastName, FirstName, Title, TitleOfCourtesy,
         BirthDate, HireDate, Address, City, Region, PostalCode,
         Country, HomePhone, ReportsTo, SourceSystem)
        VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10,
                @p11, @p12, @p13, @p14, @p15)`
)

// LoadCustomers inserts the canonical customer rows whose
// (CustomerID, SourceSystem) pair is not yet in DimCustomer. Existing
// pairs are skipped, which makes re-runs of the same batch no-ops.
func (s *Service) LoadCustomers(ctx context.Context, customers []models.Customer) (DimensionResult, error) {
	if !s.connected {
		return DimensionResult{}, fmt.Errorf("not connected to warehouse")
	}

	existing, err := s.existingPairs(ctx, existingCustomersSQL)
	if err != nil {
		return DimensionResult{}, err
	}

	return s.insertBatch(ctx, existing, len(customers),
		func(i int) string {
			return pairKey(customers[i].CustomerID, customers[i].Source)
		},
		func(ctx context.Context, i int) error {
			c := customers[i]
			_, err := s.db.ExecContext(ctx, insertCustomerSQL,
				c.CustomerID, c.CompanyName, c.ContactName, c.ContactTitle,
				c.Address, c.City, c.Region, c.PostalCode, c.Country,
				c.Phone, string(c.Source))
			return err
		},
		"customer"), nil
}

// LoadEmployees inserts the canonical employee rows whose
// (EmployeeID, SourceSystem) pair is not yet in DimEmployee.
func (s *Service) LoadEmployees(ctx context.Context, employees []models.Employee) (DimensionResult, error) {
	if !s.connected {
		return DimensionResult{}, fmt.Errorf("not connected to warehouse")
	}

	existing, err := s.existingPairs(ctx, existingEmployeesSQL)
	if err != nil {
		return DimensionResult{}, err
	}

	return s.insertBatch(ctx, existing, len(employees),
		func(i int) string {
			return pairKey(fmt.Sprintf("%d", employees[i].EmployeeID), employees[i].Source)
		},
		func(ctx context.Context, i int) error {
			e := employees[i]
			_, err := s.db.ExecContext(ctx, insertEmployeeSQL,
				e.EmployeeID, e.LastName, e.FirstName, e.Title,
				e.TitleOfCourtesy, e.BirthDate, e.HireDate, e.Address,
				e.City, e.Region, e.PostalCode, e.Country, e.HomePhone,
				e.ReportsTo, string(e.Source))
			return err
		},
		"employee"), nil
}

// existingPairs reads every (natural key, source system) pair the target
// table already holds. The full set is read once up front; membership
// tests are then local for the whole batch.
func (s *Service) existingPairs(ctx context.Context, query string) (map[string]bool, error) {
	queryCtx, cancel := s.getContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to read existing dimension keys", query, err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var id, source string
		if err := rows.Scan(&id, &source); err != nil {
			return nil, errors.SQLError("Failed to scan dimension key", query, err)
		}
		existing[id+"|"+source] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.SQLError("Failed to read existing dimension keys", query, err)
	}
	return existing, nil
}

// insertBatch runs the skip-existing insert loop shared by both dimension
// loaders. keyAt yields row i's "id|source" membership key and insertAt
// performs its insert. A row failure is counted and logged, never fatal.
func (s *Service) insertBatch(
	ctx context.Context,
	existing map[string]bool,
	count int,
	keyAt func(int) string,
	insertAt func(context.Context, int) error,
	label string,
) DimensionResult {
	result := DimensionResult{}

	for i := 0; i < count; i++ {
		key := keyAt(i)
		if existing[key] {
			result.Skipped++
			continue
		}

		execCtx, cancel := s.getContext(ctx)
		err := insertAt(execCtx, i)
		cancel()
		if err != nil {
			result.Failed++
			if result.Failed <= maxRowErrorLogs {
				s.logf("failed to insert %s %s: %v", label, key, err)
			}
			if result.Failed == maxRowErrorLogs+1 {
				s.logf("further %s insert failures suppressed", label)
			}
			continue
		}

		existing[key] = true
		result.Inserted++
	}

	return result
}

func pairKey(id string, source models.Source) string {
	return id + "|" + string(source)
}
