package warehouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowCounts(t *testing.T) {
	s, mock := newTestService(t)

	for i, table := range summaryTables {
		mock.ExpectQuery(fmt.Sprintf("FROM %s", table)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(100 * (i + 1)))
	}

	counts, err := s.RowCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 4)

	assert.Equal(t, "DimDate", counts[0].Table)
	assert.Equal(t, 100, counts[0].Rows)
	assert.Equal(t, "FactOrders", counts[3].Table)
	assert.Equal(t, 400, counts[3].Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowCountsQueryFailure(t *testing.T) {
	s, mock := newTestService(t)

	mock.ExpectQuery("FROM DimDate").
		WillReturnError(fmt.Errorf("invalid object name 'DimDate'"))

	_, err := s.RowCounts(context.Background())
	assert.Error(t, err)
}

func TestReportingRows(t *testing.T) {
	s, mock := newTestService(t)

	orderDate := time.Date(1998, time.May, 6, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"OrderID", "CompanyName", "Employee", "OrderDate",
		"TotalAmount", "IsDelivered", "DeliveryDelayDays", "SourceSystem",
	}).
		AddRow(11077, "Rattlesnake Canyon Grocery", "Nancy Davolio", orderDate, 1255.72, true, -3, "SQL").
		AddRow(310, "Acme Corporation", nil, orderDate, 500.0, false, nil, "Secondary")

	mock.ExpectQuery("FROM FactOrders f").
		WithArgs(2).
		WillReturnRows(rows)

	table, err := s.ReportingRows(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, 11077, table.Rows[0].Int("OrderID"))
	assert.Equal(t, "Rattlesnake Canyon Grocery", table.Rows[0].String("CompanyName"))
	assert.Equal(t, "-3", table.Rows[0].String("DeliveryDelayDays"))

	// NULL joins surface as absent cells, not empty strings.
	assert.False(t, table.Rows[1].Has("Employee"))
	assert.False(t, table.Rows[1].Has("DeliveryDelayDays"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRowsDefaultLimit(t *testing.T) {
	s, mock := newTestService(t)

	mock.ExpectQuery("FROM FactOrders f").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"OrderID"}))

	table, err := s.ReportingRows(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
