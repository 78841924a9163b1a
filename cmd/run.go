package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"starload/internal/config"
	"starload/internal/pipeline"
	"starload/internal/reconcile"
	"starload/internal/ui"
	"starload/pkg/models"
)

var (
	flagDryRun        bool
	flagSkipSecondary bool
	flagExport        string
	flagNoExport      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full extract-transform-load pipeline",
	Long: "Extracts both sources, reconciles them into the canonical shape, " +
		"converges the warehouse schema, and loads dimensions and facts. " +
		"Re-running the same batch inserts nothing new.",
	Run: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "extract and transform without touching the warehouse")
	runCmd.Flags().BoolVar(&flagSkipSecondary, "skip-secondary", false, "load from the SQL source only")
	runCmd.Flags().StringVar(&flagExport, "export", "", "CSV export path for the transformed orders (default from config)")
	runCmd.Flags().BoolVar(&flagNoExport, "no-export", false, "disable the CSV export")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	u := ui.NewUI(flagVerbose, flagQuiet)
	ui.ShowHeader("Warehouse Load")

	exportPath := cfg.Export.Path
	if flagExport != "" {
		exportPath = flagExport
	}
	if flagNoExport || flagDryRun {
		exportPath = ""
	}

	runner := pipeline.NewRunner(*cfg, pipeline.Options{
		DryRun:        flagDryRun,
		SkipSecondary: flagSkipSecondary,
		ExportPath:    exportPath,
	}, u)

	start := time.Now()
	report, err := runner.Run(context.Background())
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	printRunReport(u, report)
	ui.ShowSuccess(fmt.Sprintf("Pipeline finished in %s", ui.FormatElapsed(start)))
}

func printRunReport(u *ui.UI, report *pipeline.RunReport) {
	if report.SecondaryNote != "" {
		u.Warning("Secondary source: " + report.SecondaryNote)
	}

	u.Println()
	ui.RenderTable(
		[]string{"Entity", "Reconciled", "Dropped"},
		[][]string{
			{"Customers", fmt.Sprintf("%d", len(report.Customers)), fmt.Sprintf("%d", droppedTotal(report.CustomerStats))},
			{"Employees", fmt.Sprintf("%d", len(report.Employees)), fmt.Sprintf("%d", droppedTotal(report.EmployeeStats))},
			{"Orders", fmt.Sprintf("%d", len(report.Orders)), fmt.Sprintf("%d", droppedTotal(report.OrderStats))},
		},
	)

	if report.Schema == nil {
		return
	}

	if len(report.Schema.Created) > 0 {
		u.Info(fmt.Sprintf("Created tables: %v", report.Schema.Created))
	}
	if report.DateRows > 0 {
		u.Info(fmt.Sprintf("Generated %d date dimension rows", report.DateRows))
	}

	u.Println()
	ui.RenderTable(
		[]string{"Target", "Inserted", "Skipped", "Failed"},
		[][]string{
			{"DimCustomer", color.GreenString("%d", report.DimCust.Inserted), fmt.Sprintf("%d", report.DimCust.Skipped), failedCell(report.DimCust.Failed)},
			{"DimEmployee", color.GreenString("%d", report.DimEmp.Inserted), fmt.Sprintf("%d", report.DimEmp.Skipped), failedCell(report.DimEmp.Failed)},
			{"FactOrders", color.GreenString("%d", report.Facts.Inserted), fmt.Sprintf("%d", report.Facts.Skipped+report.Facts.SkippedNoDate), failedCell(report.Facts.Failed)},
		},
	)

	if report.Facts.SkippedNoDate > 0 {
		u.Warning(fmt.Sprintf("%d orders skipped for missing order date", report.Facts.SkippedNoDate))
	}
	if report.Facts.NullCustomerKeys > 0 || report.Facts.NullEmployeeKeys > 0 {
		u.Info(fmt.Sprintf("Unresolved references: %d customer, %d employee",
			report.Facts.NullCustomerKeys, report.Facts.NullEmployeeKeys))
	}
	if report.Exported > 0 {
		u.Info(fmt.Sprintf("Exported %d transformed orders", report.Exported))
	}

	if len(report.Counts) > 0 {
		u.Println()
		rows := make([][]string, 0, len(report.Counts))
		for _, c := range report.Counts {
			rows = append(rows, []string{c.Table, fmt.Sprintf("%d", c.Rows)})
		}
		ui.RenderTable([]string{"Table", "Rows"}, rows)
	}
}

func failedCell(n int) string {
	if n > 0 {
		return color.RedString("%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func droppedTotal(stats map[models.Source]reconcile.Stats) int {
	total := 0
	for _, s := range stats {
		total += s.Dropped
	}
	return total
}
