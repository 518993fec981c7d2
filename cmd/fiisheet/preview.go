package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/fiisheet/internal/report"
	"github.com/spf13/cobra"
)

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <job>",
		Short: "Print the normalized grid of a job without writing it",
		Long: `Preview acquires and normalizes one job, then prints the grid that
"run" would write. The sink is never opened, so no credentials are needed.

Examples:
  # Show the built-in investidor10 listing as a markdown table
  fiisheet preview investidor10

  # Export the grid as CSV
  fiisheet preview investidor10 -f csv > fiis.csv`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return configError(errors.New("preview takes exactly one job name"))
			}
			return nil
		},
		RunE: runPreviewCmd,
	}

	cmd.Flags().StringP("format", "f", report.FormatMarkdown,
		"Output format: text, markdown, json or csv")

	return cmd
}

// runPreviewCmd executes the preview command.
func runPreviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.DryRun = true

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return configError(err)
	}
	writer, err := report.New(format, cmd.OutOrStdout(), getVersion())
	if err != nil {
		return configError(err)
	}

	if err := validate(cfg); err != nil {
		return err
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	runs, err := runJobs(ctx, cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	run := runs[0]
	if !run.Succeeded() {
		return &exitError{code: runsExitCode(runs), err: fmt.Errorf("%s: %w", run.Job, run.Error)}
	}

	_, err = writer.WriteGrid(run)
	return err
}
