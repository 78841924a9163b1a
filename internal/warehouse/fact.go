package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"starload/internal/reconcile"
	"starload/pkg/errors"
	"starload/pkg/models"
)

// FactResult reports what a fact load did with its input rows.
type FactResult struct {
	Inserted         int
	Skipped          int // (OrderID, SourceSystem) already present
	SkippedNoDate    int // no order date, no grain
	Failed           int
	NullCustomerKeys int // inserted with an unresolved customer reference
	NullEmployeeKeys int // inserted with an unresolved employee reference
}

const (
	existingOrdersSQL = "SELECT OrderID, SourceSystem FROM FactOrders"

	insertFactSQL = `
        INSERT INTO FactOrders
        (OrderID, CustomerKey, EmployeeKey, OrderDateKey, OrderDate,
         RequiredDate, ShippedDate, ShipVia, Freight, ShipName,
         ShipAddress, ShipCity, ShipRegion, ShipPostalCode, ShipCountry,
         TotalAmount, IsDelivered, DeliveryDelayDays, SourceSystem)
        VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10,
                @p11, @p12, @p13, @p14, @p15, @p16, @p17, @p18, @p19)`

	customerKeyExactSQL = `
        SELECT TOP 1 CustomerKey FROM DimCustomer
        WHERE CustomerID = @p1 AND SourceSystem = @p2`
	// Fuzzy lookups deliberately carry no SourceSystem filter: the point
	// of the name fallback is reaching a dimension row the other source
	// loaded under a different identifier.
	customerKeyFuzzySQL = `
        SELECT TOP 1 CustomerKey FROM DimCustomer
        WHERE CompanyName LIKE '%' + @p1 + '%'`

	employeeKeyExactSQL = `
        SELECT TOP 1 EmployeeKey FROM DimEmployee
        WHERE EmployeeID = @p1 AND SourceSystem = @p2`
	employeeKeyFuzzySQL = `
        SELECT TOP 1 EmployeeKey FROM DimEmployee
        WHERE FirstName + ' ' + LastName LIKE '%' + @p1 + '%'
           OR LastName + ', ' + FirstName LIKE '%' + @p1 + '%'`
)

// LoadFacts inserts the canonical orders not yet present in FactOrders.
// Dimension references resolve through exact surrogate-key lookups; for
// the secondary source an exact miss falls back to a substring name match
// through names. A reference that still cannot be resolved loads as a
// NULL key rather than dropping the measure row. Orders without an order
// date are skipped: the grain requires one.
func (s *Service) LoadFacts(ctx context.Context, orders []models.Order, names *reconcile.NameMap) (FactResult, error) {
	result := FactResult{}
	if !s.connected {
		return result, fmt.Errorf("not connected to warehouse")
	}

	existing, err := s.existingPairs(ctx, existingOrdersSQL)
	if err != nil {
		return result, err
	}

	for _, o := range orders {
		if o.OrderDate == nil {
			result.SkippedNoDate++
			continue
		}

		key := fmt.Sprintf("%d|%s", o.OrderID, o.Source)
		if existing[key] {
			result.Skipped++
			continue
		}

		customerKey := s.resolveCustomerKey(ctx, o, names)
		employeeKey := s.resolveEmployeeKey(ctx, o, names)
		if customerKey == nil {
			result.NullCustomerKeys++
		}
		if employeeKey == nil {
			result.NullEmployeeKeys++
		}

		dateKey := DateKey(*o.OrderDate)

		execCtx, cancel := s.getContext(ctx)
		_, err := s.db.ExecContext(execCtx, insertFactSQL,
			o.OrderID, customerKey, employeeKey, dateKey, o.OrderDate,
			o.RequiredDate, o.ShippedDate, o.ShipVia, o.Freight,
			o.ShipName, o.ShipAddress, o.ShipCity, o.ShipRegion,
			o.ShipPostalCode, o.ShipCountry, o.TotalAmount,
			o.IsDelivered, o.DeliveryDelay, string(o.Source))
		cancel()
		if err != nil {
			result.Failed++
			if result.Failed <= maxRowErrorLogs {
				s.logf("failed to insert order %d (%s): %v", o.OrderID, o.Source, err)
			}
			if result.Failed == maxRowErrorLogs+1 {
				s.logf("further order insert failures suppressed")
			}
			continue
		}

		existing[key] = true
		result.Inserted++
	}

	return result, nil
}

// resolveCustomerKey finds the DimCustomer surrogate for an order's
// customer reference, nil when absent or unresolvable.
func (s *Service) resolveCustomerKey(ctx context.Context, o models.Order, names *reconcile.NameMap) *int {
	if o.CustomerID == "" {
		return nil
	}

	if key, ok := s.lookupKey(ctx, customerKeyExactSQL, o.CustomerID, string(o.Source)); ok {
		return key
	}

	if o.Source != models.SourceSecondary {
		return nil
	}

	rawID, ok := parseAccountID(o.CustomerID)
	if !ok {
		return nil
	}
	name, ok := names.CustomerName(rawID)
	if !ok {
		return nil
	}

	// First substring match wins; ambiguity is tolerated.
	if key, ok := s.lookupKey(ctx, customerKeyFuzzySQL, name); ok {
		return key
	}
	return nil
}

// resolveEmployeeKey finds the DimEmployee surrogate for an order's
// employee reference, nil when absent or unresolvable.
func (s *Service) resolveEmployeeKey(ctx context.Context, o models.Order, names *reconcile.NameMap) *int {
	if o.EmployeeID == 0 {
		return nil
	}

	if key, ok := s.lookupKey(ctx, employeeKeyExactSQL, o.EmployeeID, string(o.Source)); ok {
		return key
	}

	if o.Source != models.SourceSecondary || o.EmployeeID <= 1000 {
		return nil
	}

	name, ok := names.EmployeeName(o.EmployeeID - 1000)
	if !ok {
		return nil
	}

	if key, ok := s.lookupKey(ctx, employeeKeyFuzzySQL, name); ok {
		return key
	}
	return nil
}

// lookupKey runs a single-key lookup. A miss is an expected outcome; any
// other error is logged and treated as a miss so one bad lookup cannot
// fail the batch.
func (s *Service) lookupKey(ctx context.Context, query string, args ...interface{}) (*int, bool) {
	queryCtx, cancel := s.getContext(ctx)
	defer cancel()

	var key int
	err := s.db.QueryRowContext(queryCtx, query, args...).Scan(&key)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logf("dimension key lookup failed: %v",
				errors.SQLError("Key lookup failed", query, err))
		}
		return nil, false
	}
	return &key, true
}

// parseAccountID recovers the raw numeric id from a namespaced secondary
// customer identifier.
func parseAccountID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "ACC-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
