package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starload/internal/extract"
	"starload/internal/reconcile"
	"starload/pkg/models"
)

func TestParseTimeout(t *testing.T) {
	assert.Equal(t, 45*time.Second, parseTimeout("45s"))
	assert.Equal(t, 2*time.Minute, parseTimeout("2m"))
	assert.Equal(t, 30*time.Second, parseTimeout(""))
	assert.Equal(t, 30*time.Second, parseTimeout("soon"))
	assert.Equal(t, 30*time.Second, parseTimeout("-5s"))
}

func TestWarehouseConfig(t *testing.T) {
	cfg := WarehouseConfig(models.SourceDB{
		Server:            "dw.example.com",
		Port:              1433,
		Database:          "NorthwindDW",
		TrustedConnection: true,
		Timeout:           "1m",
	})

	assert.Equal(t, "dw.example.com", cfg.Server)
	assert.Equal(t, 1433, cfg.Port)
	assert.Equal(t, "NorthwindDW", cfg.Database)
	assert.True(t, cfg.TrustedConnection)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

func TestExtractSecondarySkipByRequest(t *testing.T) {
	r := NewRunner(models.Config{}, Options{SkipSecondary: true}, nil)
	report := &RunReport{}

	raw := r.extractSecondary(report)

	assert.Nil(t, raw.customers)
	assert.False(t, report.SecondaryUsed)
	assert.Equal(t, "skipped by request", report.SecondaryNote)
}

func TestExtractSecondaryUnconfiguredDirDegrades(t *testing.T) {
	r := NewRunner(models.Config{
		Secondary: models.Secondary{Dir: "/no/such/dir"},
	}, Options{}, nil)
	report := &RunReport{}

	raw := r.extractSecondary(report)

	assert.Nil(t, raw.orders)
	assert.False(t, report.SecondaryUsed)
	assert.NotEmpty(t, report.SecondaryNote)
}

func TestExtractSecondaryMissingTablesTreatedAsEmpty(t *testing.T) {
	r := NewRunner(models.Config{
		Secondary: models.Secondary{Dir: t.TempDir()},
	}, Options{}, nil)
	report := &RunReport{}

	raw := r.extractSecondary(report)

	assert.True(t, raw.customers.Empty())
	assert.True(t, raw.orders.Empty())
	assert.False(t, report.SecondaryUsed)
}

func TestReconcileMergesBothSources(t *testing.T) {
	r := NewRunner(models.Config{}, Options{}, nil)
	report := &RunReport{
		CustomerStats: make(map[models.Source]reconcile.Stats),
		EmployeeStats: make(map[models.Source]reconcile.Stats),
		OrderStats:    make(map[models.Source]reconcile.Stats),
	}

	primary := rawTables{
		customers: &extract.Table{
			Columns: []string{"CustomerID", "CompanyName"},
			Rows:    []extract.Row{{"CustomerID": "ALFKI", "CompanyName": "Alfreds Futterkiste"}},
		},
		orders: &extract.Table{
			Columns: []string{"OrderID", "CustomerID"},
			Rows:    []extract.Row{{"OrderID": 10248, "CustomerID": "ALFKI"}},
		},
	}
	secondary := rawTables{
		customers: &extract.Table{
			Columns: []string{"ID", "Company"},
			Rows:    []extract.Row{{"ID": "42", "Company": "Acme Corporation"}},
		},
		orders: &extract.Table{
			Columns: []string{"Order ID", "Customer"},
			Rows:    []extract.Row{{"Order ID": "301", "Customer": "42"}},
		},
	}

	require.NoError(t, r.reconcile(primary, secondary, report))

	require.Len(t, report.Customers, 2)
	assert.Equal(t, "ALFKI", report.Customers[0].CustomerID)
	assert.Equal(t, "ACC-42", report.Customers[1].CustomerID)

	require.Len(t, report.Orders, 2)
	assert.Equal(t, models.SourceSQL, report.Orders[0].Source)
	assert.Equal(t, models.SourceSecondary, report.Orders[1].Source)
}

func TestReconcileEmptySourcesCompleteWithWarning(t *testing.T) {
	r := NewRunner(models.Config{}, Options{}, nil)
	report := &RunReport{
		CustomerStats: make(map[models.Source]reconcile.Stats),
		EmployeeStats: make(map[models.Source]reconcile.Stats),
		OrderStats:    make(map[models.Source]reconcile.Stats),
	}

	// Zero surviving orders is an empty load, not a failure.
	require.NoError(t, r.reconcile(rawTables{}, rawTables{}, report))
	assert.Empty(t, report.Orders)
}
