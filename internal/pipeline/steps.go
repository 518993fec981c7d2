package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/fiisheet/internal/acquire"
	"github.com/nao1215/fiisheet/internal/grid"
	"github.com/nao1215/fiisheet/internal/model"
	"github.com/nao1215/fiisheet/internal/sink"
)

// AcquireStep runs the acquisition strategy.
// An empty grid from the strategy is reported as acquire.ErrNoRows.
type AcquireStep struct {
	strategy acquire.Strategy
	logger   *slog.Logger
}

// NewAcquireStep creates an acquisition step for strategy.
func NewAcquireStep(strategy acquire.Strategy, logger *slog.Logger) *AcquireStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcquireStep{strategy: strategy, logger: logger}
}

// Name returns the step name.
func (s *AcquireStep) Name() string {
	return "acquire"
}

// Do executes the acquisition.
func (s *AcquireStep) Do(ctx context.Context, run *model.Run) error {
	run.Transition(model.StateAcquiring)

	g, err := s.strategy.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s acquisition: %w", s.strategy.Name(), err)
	}
	if g.IsEmpty() {
		return fmt.Errorf("%s acquisition: %w", s.strategy.Name(), acquire.ErrNoRows)
	}

	if hp, ok := s.strategy.(acquire.HeaderProvider); ok {
		run.Header = hp.Header()
	}
	run.Grid = g
	run.Transition(model.StateAcquired)

	s.logger.Debug("acquired", "job", run.Job, "rows", g.Len(), "width", g.Width())
	return nil
}

// HeaderStep prepends the declared header row, if any.
type HeaderStep struct{}

// NewHeaderStep creates a header step.
func NewHeaderStep() *HeaderStep {
	return &HeaderStep{}
}

// Name returns the step name.
func (s *HeaderStep) Name() string {
	return "header"
}

// Do prepends run.Header to the grid.
func (s *HeaderStep) Do(_ context.Context, run *model.Run) error {
	run.Transition(model.StateNormalizing)
	run.Grid = run.Grid.Prepend(run.Header)
	return nil
}

// NormalizeStep pads every row to the grid width and records the shape.
type NormalizeStep struct{}

// NewNormalizeStep creates a normalize step.
func NewNormalizeStep() *NormalizeStep {
	return &NormalizeStep{}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Do normalizes run.Grid.
func (s *NormalizeStep) Do(_ context.Context, run *model.Run) error {
	run.Transition(model.StateNormalizing)
	run.Grid = grid.Normalize(run.Grid)
	run.Rows = run.Grid.Len()
	run.Columns = run.Grid.Width()
	run.Range = grid.SpanRange(run.Tab, run.Grid)
	return nil
}

// WriteStep hands the grid to the sink. With dry run set, or without a
// sink, the write is skipped and recorded on the run.
type WriteStep struct {
	sink   sink.Sink
	dryRun bool
	logger *slog.Logger
}

// WriteStepOption configures a WriteStep.
type WriteStepOption func(*WriteStep)

// WithDryRun skips the sink write.
func WithDryRun(dryRun bool) WriteStepOption {
	return func(s *WriteStep) {
		s.dryRun = dryRun
	}
}

// WithWriteLogger sets a custom logger for the write step.
func WithWriteLogger(logger *slog.Logger) WriteStepOption {
	return func(s *WriteStep) {
		s.logger = logger
	}
}

// NewWriteStep creates a write step targeting sk.
func NewWriteStep(sk sink.Sink, opts ...WriteStepOption) *WriteStep {
	s := &WriteStep{sink: sk, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do writes a copy of the grid, so the run's grid is never shared with
// the sink.
func (s *WriteStep) Do(ctx context.Context, run *model.Run) error {
	run.Transition(model.StateWriting)

	if s.dryRun || s.sink == nil {
		run.DryRun = true
		s.logger.Debug("dry run, skipping write", "job", run.Job, "range", run.Range)
		return nil
	}

	if err := s.sink.Replace(ctx, run.Tab, run.Grid.Clone()); err != nil {
		return fmt.Errorf("write %s to %s: %w", run.Range, s.sink.Name(), err)
	}
	s.logger.Debug("written", "job", run.Job, "sink", s.sink.Name(), "range", run.Range)
	return nil
}

// NewJobPipeline builds the standard job pipeline:
// acquire, header, normalize, write.
func NewJobPipeline(strategy acquire.Strategy, sk sink.Sink, dryRun bool, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := New(WithLogger(logger))
	p.AddSteps(
		NewAcquireStep(strategy, logger),
		NewHeaderStep(),
		NewNormalizeStep(),
		NewWriteStep(sk, WithDryRun(dryRun), WithWriteLogger(logger)),
	)
	return p
}
