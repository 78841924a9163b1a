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

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Converge the warehouse schema without loading data",
	Long: "Creates the star-schema tables, foreign keys, and indexes that are " +
		"missing. Existing objects are left untouched.",
	Run: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	u := ui.NewUI(flagVerbose, flagQuiet)
	ui.ShowHeader("Schema Convergence")

	wh := warehouse.NewService(pipeline.WarehouseConfig(cfg.Warehouse))
	wh.SetLogf(u.VerbosePrintf)

	u.StartProgress("Connecting to warehouse")
	if err := wh.Connect(); err != nil {
		u.StopProgress(false, "Connection failed")
		ui.ShowError(err)
		os.Exit(1)
	}
	u.StopProgress(true, "Connected")
	defer wh.Close()

	report, err := wh.EnsureSchema(context.Background())
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	for _, name := range report.Created {
		u.Success("Created " + name)
	}
	for _, name := range report.Existing {
		u.Info(name + " already exists")
	}
	for _, w := range report.Warnings {
		u.Warning(w)
	}

	ui.ShowSuccess(fmt.Sprintf("Schema converged: %d created, %d existing",
		len(report.Created), len(report.Existing)))
}
