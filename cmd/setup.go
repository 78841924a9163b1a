package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"starload/internal/config"
	"starload/internal/pipeline"
	"starload/internal/ui"
	"starload/internal/warehouse"
	"starload/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration setup",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Setting up Starload...")
	fmt.Println()

	// Check if config already exists
	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		survey.AskOne(prompt, &overwrite)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := &models.Config{}

	fmt.Println("Source Database (SQL Server)")
	fmt.Println("----------------------------")
	cfg.Source = askDatabase("Northwind")

	fmt.Println()
	fmt.Println("Warehouse Database (SQL Server)")
	fmt.Println("-------------------------------")
	cfg.Warehouse = askDatabase("NorthwindDW")

	fmt.Println()
	fmt.Println("Secondary Source")
	fmt.Println("----------------")

	var useSecondary bool
	survey.AskOne(&survey.Confirm{
		Message: "Load the desktop database exports as a second source?",
		Default: true,
	}, &useSecondary)

	if useSecondary {
		survey.AskOne(&survey.Input{
			Message: "Directory holding the exported .xlsx tables:",
		}, &cfg.Secondary.Dir, survey.WithValidator(survey.Required))
	}

	cfg.ApplyDefaults()

	if err := config.Save(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", config.GetConfigFile())

	var testConn bool
	survey.AskOne(&survey.Confirm{
		Message: "Test the warehouse connection now?",
		Default: true,
	}, &testConn)
	if testConn {
		wh := warehouse.NewService(pipeline.WarehouseConfig(cfg.Warehouse))
		if err := wh.TestConnection(); err != nil {
			ui.ShowWarning("Warehouse connection failed: " + err.Error())
		} else {
			ui.ShowSuccess("Warehouse connection OK")
			wh.Close()
		}
	}

	fmt.Println("Run 'starload schema' to create the warehouse tables, then 'starload run'.")
}

func askDatabase(defaultDB string) models.SourceDB {
	db := models.SourceDB{}

	qs := []*survey.Question{
		{
			Name:     "server",
			Prompt:   &survey.Input{Message: "Server:", Default: "localhost"},
			Validate: survey.Required,
		},
		{
			Name:   "port",
			Prompt: &survey.Input{Message: "Port (0 for default instance):", Default: "1433"},
		},
		{
			Name:     "database",
			Prompt:   &survey.Input{Message: "Database:", Default: defaultDB},
			Validate: survey.Required,
		},
	}
	if err := survey.Ask(qs, &db); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var trusted bool
	survey.AskOne(&survey.Confirm{
		Message: "Use integrated security (trusted connection)?",
		Default: true,
	}, &trusted)
	db.TrustedConnection = trusted

	if !trusted {
		credQs := []*survey.Question{
			{
				Name:     "username",
				Prompt:   &survey.Input{Message: "Username:"},
				Validate: survey.Required,
			},
			{
				Name:     "password",
				Prompt:   &survey.Password{Message: "Password:"},
				Validate: survey.Required,
			},
		}
		if err := survey.Ask(credQs, &db); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	return db
}
