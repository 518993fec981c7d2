package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/fiisheet/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/fiisheet.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new fiisheet configuration file",
		Long: `Initialize creates a new .fiisheet.yaml configuration file in the current directory.

The generated file includes:
- The sink block for Google Sheets, xlsx or sqlite
- The built-in investidor10 job
- Commented examples for the api, static and ticker strategies

Examples:
  # Create .fiisheet.yaml in current directory
  fiisheet init

  # Create config file at a specific path
  fiisheet init -o ~/.config/fiisheet/config.yaml

  # Force overwrite existing file
  fiisheet init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return configError(fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath))
		}
	}

	content, err := configTemplate.ReadFile("templates/fiisheet.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may end up holding a spreadsheet id and a credentials path.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - The spreadsheet id and service account credentials")
	fmt.Fprintln(out, "  - The jobs and their destination tabs")

	return nil
}
