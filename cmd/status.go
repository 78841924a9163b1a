package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"starload/internal/config"
	"starload/internal/pipeline"
	"starload/internal/ui"
	"starload/internal/warehouse"
)

var flagReportRows int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show warehouse row counts and recent orders",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&flagReportRows, "report", 0, "also show the N most recent fact rows")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	u := ui.NewUI(flagVerbose, flagQuiet)
	ui.ShowHeader("Warehouse Status")

	wh := warehouse.NewService(pipeline.WarehouseConfig(cfg.Warehouse))
	if err := wh.Connect(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	defer wh.Close()

	ctx := context.Background()

	counts, err := wh.RowCounts(ctx)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Table, fmt.Sprintf("%d", c.Rows)})
	}
	ui.RenderTable([]string{"Table", "Rows"}, rows)

	if flagReportRows <= 0 {
		return
	}

	report, err := wh.ReportingRows(ctx, flagReportRows)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	u.Println()
	ui.ShowInfo(fmt.Sprintf("Most recent %d orders", len(report.Rows)))

	out := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		record := make([]string, len(report.Columns))
		for i, col := range report.Columns {
			record[i] = row.String(col)
		}
		out = append(out, record)
	}
	ui.RenderTable(report.Columns, out)
}
