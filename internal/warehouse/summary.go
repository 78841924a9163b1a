package warehouse

import (
	"context"
	"fmt"

	"starload/internal/extract"
	"starload/pkg/errors"
)

// TableCount is a warehouse table name and its row count.
type TableCount struct {
	Table string
	Rows  int
}

var summaryTables = []string{"DimDate", "DimCustomer", "DimEmployee", "FactOrders"}

// RowCounts reports row counts for the star-schema tables, in a fixed
// order suitable for the status display.
func (s *Service) RowCounts(ctx context.Context) ([]TableCount, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to warehouse")
	}

	counts := make([]TableCount, 0, len(summaryTables))
	for _, table := range summaryTables {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)

		queryCtx, cancel := s.getContext(ctx)
		var count int
		err := s.db.QueryRowContext(queryCtx, query).Scan(&count)
		cancel()
		if err != nil {
			return nil, errors.SQLError(
				fmt.Sprintf("Failed to count rows in %s", table), query, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: count})
	}
	return counts, nil
}

const reportingRowsSQL = `
    SELECT TOP (@p1)
        f.OrderID,
        c.CompanyName,
        e.FirstName + ' ' + e.LastName AS Employee,
        f.OrderDate,
        f.TotalAmount,
        f.IsDelivered,
        f.DeliveryDelayDays,
        f.SourceSystem
    FROM FactOrders f
    LEFT JOIN DimCustomer c ON f.CustomerKey = c.CustomerKey
    LEFT JOIN DimEmployee e ON f.EmployeeKey = e.EmployeeKey
    ORDER BY f.OrderDate DESC`

// ReportingRows returns the most recent fact rows joined with their
// dimension names, for the status report and the CSV export.
func (s *Service) ReportingRows(ctx context.Context, limit int) (*extract.Table, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to warehouse")
	}
	if limit <= 0 {
		limit = 100
	}

	queryCtx, cancel := s.getContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, reportingRowsSQL, limit)
	if err != nil {
		return nil, errors.SQLError("Failed to query reporting rows", reportingRowsSQL, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.SQLError("Failed to read reporting columns", reportingRowsSQL, err)
	}

	table := &extract.Table{Name: "Report", Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.SQLError("Failed to scan reporting row", reportingRowsSQL, err)
		}

		row := make(extract.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			if values[i] != nil {
				row[col] = values[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.SQLError("Failed to read reporting rows", reportingRowsSQL, err)
	}

	return table, nil
}
