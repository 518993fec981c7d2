package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/fiisheet/internal/acquire"
	"github.com/nao1215/fiisheet/internal/model"
)

// Step is one stage of a job. Each step receives the run the previous steps
// have filled in.
type Step interface {
	// Do executes the step. A returned error ends the run.
	Do(ctx context.Context, run *model.Run) error

	// Name identifies the step in logs and in Run.Steps.
	Name() string
}

// Pipeline runs the steps of one job in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New returns a Pipeline without steps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends step; steps run in the order added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and leaves the run in a terminal
// state: done when every step succeeded, empty when the acquisition found
// nothing, failed otherwise. It returns the error that ended the run.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"job", run.Job,
				"reason", ctx.Err(),
			)
			run.Fail(model.StateFailed, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"job", run.Job,
		)

		if err := step.Do(ctx, run); err != nil {
			state := model.StateFailed
			if errors.Is(err, acquire.ErrNoData) {
				state = model.StateEmpty
			}
			p.logger.Error("step failed",
				"step", step.Name(),
				"job", run.Job,
				"state", state.String(),
				"error", err,
			)
			logEmpty(p.logger, run.Job, err)
			run.Fail(state, err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"job", run.Job,
			"state", run.State.String(),
		)
		run.Steps = append(run.Steps, step.Name())
	}

	run.Transition(model.StateDone)
	return nil
}

// StepCount returns how many steps are registered.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames lists the step names in run order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// logEmpty logs the page snippet of an acquisition-empty outcome, the
// debug aid for spotting a layout change on the source.
func logEmpty(logger *slog.Logger, job string, err error) {
	var empty *acquire.EmptyError
	if !errors.As(err, &empty) || empty.Snippet == "" {
		return
	}
	logger.Warn("page content at failure",
		"job", job,
		"length", empty.Length,
		"snippet", empty.Snippet,
	)
}
