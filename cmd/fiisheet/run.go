package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nao1215/fiisheet/internal/acquire"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/model"
	"github.com/nao1215/fiisheet/internal/pipeline"
	"github.com/nao1215/fiisheet/internal/report"
	"github.com/nao1215/fiisheet/internal/sink"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [job...]",
		Short: "Acquire the listings and write them to the sink",
		Long: `Run executes the named jobs, or every configured job when none is named.

Each job acquires its table, pads every row to the widest row and replaces
its tab starting at A1. Other tabs are never touched.

Exit status:
  0  every job succeeded
  1  configuration error
  2  no table was found
  3  the table had no rows
  4  unexpected error (network, sink, browser)
With several jobs the highest status observed is returned.

Examples:
  # Run the built-in investidor10 job (needs SHEET_ID and SERVICE_ACCOUNT_JSON)
  fiisheet run

  # Run two configured jobs concurrently
  fiisheet run --batch 2 investidor10 tickers

  # Acquire without writing and print a JSON summary
  fiisheet run --dry-run --format json`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of jobs run concurrently")
	cmd.Flags().BoolP("dry-run", "n", false,
		"Acquire and normalize without writing to the sink")
	cmd.Flags().StringP("format", "f", report.FormatText,
		"Summary format: text, markdown, json or csv")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary to the specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return configError(err)
	}
	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return configError(err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return configError(err)
	}
	outputPath, err := cmd.Flags().GetString("output")
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

	output, closeOutput, err := openOutput(cmd.OutOrStdout(), outputPath)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer, err := report.New(format, output, getVersion())
	if err != nil {
		return configError(err)
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	runs, err := runJobs(ctx, cfg, logger, cmd.ErrOrStderr())
	if err != nil && !isCancelled(err) {
		return err
	}

	if _, werr := writer.WriteSummary(compact(runs)); werr != nil {
		return fmt.Errorf("failed to write summary: %w", werr)
	}
	if err != nil {
		return err
	}
	return runsError(runs)
}

// runJobs opens the sink and runs the selected jobs through the batch
// processor. Progress lines go to progress as jobs finish.
func runJobs(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer, opts ...acquire.Option) ([]*model.Run, error) {
	var sk sink.Sink
	if !cfg.DryRun {
		var err error
		sk, err = sink.New(ctx, cfg.File.Sink, logger)
		if err != nil {
			return nil, configError(fmt.Errorf("failed to open %s sink: %w", cfg.File.Sink.SinkType(), err))
		}
		defer func() {
			if err := sk.Close(); err != nil {
				logger.Error("failed to close sink", "sink", sk.Name(), "error", err)
			}
		}()
	}

	names := cfg.JobNames()
	bp := pipeline.NewBatchProcessor(
		jobFactory(cfg, sk, logger, opts...),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	runs := make([]*model.Run, len(names))
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, names, func(run *model.Run, i int) {
		mu.Lock()
		defer mu.Unlock()
		runs[i] = run
		fmt.Fprintf(progress, "[%d/%d] %s: %s", i+1, len(names), run.Job, run.State)
		if run.Succeeded() {
			fmt.Fprintf(progress, " (%d rows)", run.Rows)
		}
		fmt.Fprintln(progress)
	})
	return runs, err
}

// jobFactory builds the pipeline of a named job.
func jobFactory(cfg *config.Config, sk sink.Sink, logger *slog.Logger, opts ...acquire.Option) pipeline.Factory {
	return func(_ context.Context, name string) (*pipeline.Pipeline, *model.Run, error) {
		job, err := cfg.File.Job(name)
		if err != nil {
			return nil, nil, configError(err)
		}
		run := model.NewRun(name, job.Strategy, job.Tab)

		strategy, err := acquire.New(job, append([]acquire.Option{acquire.WithLogger(logger.With("job", name))}, opts...)...)
		if err != nil {
			return nil, run, err
		}
		return pipeline.NewJobPipeline(strategy, sk, cfg.DryRun, logger.With("job", name)), run, nil
	}
}

// openOutput returns the summary destination: the named file, or def when
// path is empty.
func openOutput(def io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return def, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // best effort close of a written summary
}

// compact drops the runs that never started because of cancellation.
func compact(runs []*model.Run) []*model.Run {
	out := make([]*model.Run, 0, len(runs))
	for _, run := range runs {
		if run != nil {
			out = append(out, run)
		}
	}
	return out
}
