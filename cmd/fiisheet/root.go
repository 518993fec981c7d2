package main

import (
	"fmt"
	"os"

	"github.com/nao1215/fiisheet/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fiisheet.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fiisheet",
		Short: "Scrape FII listings into a spreadsheet",
		Long: `fiisheet extracts the listing table of Brazilian real estate funds (FIIs)
and writes it into a spreadsheet tab, replacing the previous contents.

A job picks one acquisition strategy:
  dom     render the page in headless Chrome and copy the first table
  api     page through a JSON search endpoint
  static  fetch the HTML without a browser
  ticker  fetch one JSON document per ticker

The sink is Google Sheets, a local xlsx workbook or a local SQLite file.
Without a configuration file the investidor10 listing is written to the
"investidor10" tab of the spreadsheet named by SHEET_ID.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .fiisheet.yaml in current or home directory)")
	cmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "Log format: text or json")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configError(err)
	})

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewJobsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return exitCode(err)
}
