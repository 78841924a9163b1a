package pipeline

import (
	"context"
	"time"

	"starload/internal/extract"
	"starload/internal/reconcile"
	"starload/internal/ui"
	"starload/internal/warehouse"
	"starload/pkg/errors"
	"starload/pkg/models"
)

// Options controls a single pipeline run.
type Options struct {
	DryRun        bool   // extract and transform, never touch the warehouse
	SkipSecondary bool   // force a SQL-only run
	ExportPath    string // flat-file export of the transformed orders, "" disables
}

// RunReport aggregates what one pipeline run did, stage by stage.
type RunReport struct {
	SecondaryUsed bool
	SecondaryNote string // why the secondary source was left out, "" when used

	CustomerStats map[models.Source]reconcile.Stats
	EmployeeStats map[models.Source]reconcile.Stats
	OrderStats    map[models.Source]reconcile.Stats

	Customers []models.Customer
	Employees []models.Employee
	Orders    []models.Order

	Schema   *warehouse.SchemaReport
	DateRows int
	DimCust  warehouse.DimensionResult
	DimEmp   warehouse.DimensionResult
	Facts    warehouse.FactResult
	Counts   []warehouse.TableCount
	Exported int
	Elapsed  time.Duration
}

// Runner wires the extractors, the reconciler, and the warehouse loaders
// into the full load sequence.
type Runner struct {
	config models.Config
	opts   Options
	ui     *ui.UI
}

// NewRunner creates a pipeline runner for the given configuration.
func NewRunner(config models.Config, opts Options, u *ui.UI) *Runner {
	if u == nil {
		u = ui.NewUI(false, true)
	}
	return &Runner{config: config, opts: opts, ui: u}
}

// Run executes the pipeline: extract both sources, reconcile them into
// the canonical shape, then converge the schema and load dimensions and
// facts. The primary source and the warehouse are mandatory; the
// secondary source degrades the run to SQL-only when unavailable.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{
		CustomerStats: make(map[models.Source]reconcile.Stats),
		EmployeeStats: make(map[models.Source]reconcile.Stats),
		OrderStats:    make(map[models.Source]reconcile.Stats),
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	raw, err := r.extractPrimary(ctx)
	if err != nil {
		return nil, err
	}

	secondary := r.extractSecondary(report)

	if err := r.reconcile(raw, secondary, report); err != nil {
		return nil, err
	}

	names := reconcile.BuildNameMap(secondary.customers, secondary.employees)

	if r.opts.DryRun {
		r.ui.Info("Dry run: skipping warehouse load")
		report.Elapsed = time.Since(start)
		return report, nil
	}

	if err := r.load(ctx, report, names); err != nil {
		return nil, err
	}

	if r.opts.ExportPath != "" {
		n, err := ExportOrders(r.opts.ExportPath, report.Orders)
		if err != nil {
			r.ui.Warning("Export failed: " + err.Error())
		} else {
			report.Exported = n
			r.ui.VerbosePrintf("Exported %d rows to %s\n", n, r.opts.ExportPath)
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// validate rejects configurations that cannot possibly run before any
// connection is attempted.
func (r *Runner) validate() error {
	if r.config.Source.Server == "" || r.config.Source.Database == "" {
		return errors.ConfigError("Source connection is not configured", "source").
			WithSuggestions("Run 'starload setup' or edit the config file")
	}
	if r.opts.DryRun {
		return nil
	}
	if err := warehouse.ValidateConfig(WarehouseConfig(r.config.Warehouse)); err != nil {
		return errors.ConfigError(err.Error(), "warehouse").
			WithSuggestions("Run 'starload setup' or edit the config file")
	}
	return nil
}

// rawTables carries one source's untransformed extraction output.
type rawTables struct {
	customers *extract.Table
	employees *extract.Table
	orders    *extract.Table
	details   *extract.Table
}

func (r *Runner) extractPrimary(ctx context.Context) (rawTables, error) {
	var raw rawTables

	ext := extract.NewSQLExtractor(sqlConfig(r.config.Source))
	if err := ext.Connect(ctx); err != nil {
		return raw, err
	}
	defer ext.Close()

	var err error
	if raw.customers, err = ext.ExtractCustomers(ctx); err != nil {
		return raw, err
	}
	if raw.employees, err = ext.ExtractEmployees(ctx); err != nil {
		return raw, err
	}
	if raw.orders, err = ext.ExtractOrders(ctx); err != nil {
		return raw, err
	}

	r.ui.VerbosePrintf("Extracted %d customers, %d employees, %d orders from %s\n",
		len(raw.customers.Rows), len(raw.employees.Rows), len(raw.orders.Rows),
		r.config.Source.Database)

	// Reference tables are read for visibility only; they never load.
	if r.ui.Verbose {
		aux, failures := ext.ExtractAuxiliary(ctx)
		for name, t := range aux {
			r.ui.VerbosePrintf("Auxiliary table %s: %d rows\n", name, len(t.Rows))
		}
		for name, err := range failures {
			r.ui.Warning("Auxiliary table " + name + " unavailable: " + err.Error())
		}
	}
	return raw, nil
}

// extractSecondary pulls the workbook exports. Any failure here is a
// degradation, not an error: the run proceeds on the primary source alone.
func (r *Runner) extractSecondary(report *RunReport) rawTables {
	var raw rawTables

	if r.opts.SkipSecondary {
		report.SecondaryNote = "skipped by request"
		return raw
	}

	ext := extract.NewWorkbookExtractor(r.config.Secondary.Dir)
	if !ext.Available() {
		report.SecondaryNote = "secondary directory not configured or not reachable"
		r.ui.Warning("Secondary source unavailable, continuing with SQL only")
		return raw
	}

	read := func(name string, fn func() (*extract.Table, error)) *extract.Table {
		t, err := fn()
		if err != nil {
			if extract.IsTableMissing(err) {
				r.ui.Warning("Secondary table " + name + " not exported, treating as empty")
				return nil
			}
			r.ui.Warning("Secondary table " + name + " unreadable: " + err.Error())
			return nil
		}
		return t
	}

	raw.customers = read(extract.WorkbookCustomers, ext.ExtractCustomers)
	raw.employees = read(extract.WorkbookEmployees, ext.ExtractEmployees)
	raw.orders = read(extract.WorkbookOrders, ext.ExtractOrders)
	raw.details = read(extract.WorkbookOrderDetails, ext.ExtractOrderDetails)

	report.SecondaryUsed = !raw.customers.Empty() || !raw.employees.Empty() || !raw.orders.Empty()
	if !report.SecondaryUsed && report.SecondaryNote == "" {
		report.SecondaryNote = "secondary source contributed no rows"
	}
	return raw
}

func (r *Runner) reconcile(primary, secondary rawTables, report *RunReport) error {
	type entityTransform struct {
		source models.Source
		raw    rawTables
	}
	inputs := []entityTransform{
		{models.SourceSQL, primary},
		{models.SourceSecondary, secondary},
	}

	for _, in := range inputs {
		customers, stats, err := reconcile.Customers(in.raw.customers, in.source)
		if err != nil {
			return err
		}
		report.Customers = append(report.Customers, customers...)
		report.CustomerStats[in.source] = stats

		employees, stats, err := reconcile.Employees(in.raw.employees, in.source)
		if err != nil {
			return err
		}
		report.Employees = append(report.Employees, employees...)
		report.EmployeeStats[in.source] = stats

		orders, stats, err := reconcile.Orders(in.raw.orders, in.raw.details, in.source)
		if err != nil {
			return err
		}
		report.Orders = append(report.Orders, orders...)
		report.OrderStats[in.source] = stats
	}

	// Empty sources are a legal, if suspicious, run: warn and carry on
	// with an empty load so the summary still prints.
	if len(report.Orders) == 0 {
		r.ui.Warning("No orders survived reconciliation; continuing with an empty load")
	}
	return nil
}

func (r *Runner) load(ctx context.Context, report *RunReport, names *reconcile.NameMap) error {
	wh := warehouse.NewService(WarehouseConfig(r.config.Warehouse))
	wh.SetLogf(r.ui.VerbosePrintf)

	if err := wh.Connect(); err != nil {
		return err
	}
	defer wh.Close()

	schema, err := wh.EnsureSchema(ctx)
	if err != nil {
		return err
	}
	report.Schema = schema
	for _, w := range schema.Warnings {
		r.ui.Warning(w)
	}

	report.DateRows, err = wh.PopulateDateDimension(ctx,
		r.config.DateDim.StartYear, r.config.DateDim.EndYear)
	if err != nil {
		return err
	}

	if report.DimCust, err = wh.LoadCustomers(ctx, report.Customers); err != nil {
		return err
	}
	if report.DimEmp, err = wh.LoadEmployees(ctx, report.Employees); err != nil {
		return err
	}
	if report.Facts, err = wh.LoadFacts(ctx, report.Orders, names); err != nil {
		return err
	}

	// Final counts are informational; a failure here does not undo the load.
	if counts, err := wh.RowCounts(ctx); err == nil {
		report.Counts = counts
	} else {
		r.ui.Warning("Could not read final row counts: " + err.Error())
	}
	return nil
}

func sqlConfig(db models.SourceDB) extract.SQLConfig {
	return extract.SQLConfig{
		Server:            db.Server,
		Port:              db.Port,
		Database:          db.Database,
		Username:          db.Username,
		Password:          db.Password,
		TrustedConnection: db.TrustedConnection,
		Timeout:           parseTimeout(db.Timeout),
	}
}

// WarehouseConfig converts the YAML connection block into the warehouse
// service configuration. Shared with the schema and status commands.
func WarehouseConfig(db models.SourceDB) warehouse.Config {
	return warehouse.Config{
		Server:            db.Server,
		Port:              db.Port,
		Database:          db.Database,
		Username:          db.Username,
		Password:          db.Password,
		TrustedConnection: db.TrustedConnection,
		Timeout:           parseTimeout(db.Timeout),
	}
}

func parseTimeout(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
