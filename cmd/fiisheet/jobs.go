package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewJobsCmd creates the jobs command.
func NewJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the configured jobs",
		Long: `Jobs lists every job of the configuration file with its strategy,
destination tab and source URL. Without a configuration file the built-in
investidor10 job is listed.`,
		Args: cobra.NoArgs,
		RunE: runJobsCmd,
	}
}

// runJobsCmd executes the jobs command.
func runJobsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTRATEGY\tTAB\tURL")
	for _, name := range cfg.File.JobNames() {
		job, err := cfg.File.Job(name)
		if err != nil {
			return configError(err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, job.Strategy, job.Tab, job.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nsink: %s", cfg.File.Sink.SinkType())
	if path := cfg.File.Sink.ResolvedPath(); path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (%s)", path)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
