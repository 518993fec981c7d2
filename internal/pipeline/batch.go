package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/fiisheet/internal/model"
	"golang.org/x/sync/errgroup"
)

// Factory builds the pipeline and the idle run of the named job.
type Factory func(ctx context.Context, job string) (*Pipeline, *model.Run, error)

// BatchProcessor runs jobs on an errgroup bounded by the concurrency limit.
// Inside one job the steps stay sequential.
//
// Design decision:
//  1. A job failure is recorded on its run and never cancels the group
//  2. Each job gets its own pipeline and run from the factory
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	results []*model.Run // indexed like the jobs argument
}

// BatchOption configures NewBatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger for batch events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency caps the jobs running at once. Values below 1 keep the
// default of 1.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor returns a processor building each job with factory.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: 1,
		results:     make([]*model.Run, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every job and returns their runs in job order, failed
// ones included. The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []string) ([]*model.Run, error) {
	bp.logger.Debug("starting batch processing",
		"total_jobs", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.Run, len(jobs))

	err := bp.run(ctx, jobs, func(run *model.Run, i int) {
		bp.mu.Lock()
		bp.results[i] = run
		bp.mu.Unlock()
	})

	bp.logger.Debug("batch processing complete",
		"total_jobs", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback runs every job and calls callback with each
// finished run and the index of its job. The callback is called from the
// goroutine that ran the job, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []string,
	callback func(run *model.Run, index int),
) error {
	return bp.run(ctx, jobs, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, jobs []string, done func(run *model.Run, index int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("running job",
				"job", job,
				"index", i+1,
				"total", len(jobs),
			)

			p, run, err := bp.factory(ctx, job)
			if err != nil {
				// The job could not be built; record it as a failed run
				// and keep going with the others.
				if run == nil {
					run = model.NewRun(job, "", "")
				}
				run.Fail(model.StateFailed, err)
				bp.logger.Warn("job setup failed", "job", job, "error", err)
				done(run, i)
				return nil
			}

			if err := p.Execute(ctx, run); err != nil {
				bp.logger.Warn("job failed",
					"job", job,
					"state", run.State.String(),
					"error", err,
				)
			}
			done(run, i)
			return nil
		})
	}

	return g.Wait()
}
