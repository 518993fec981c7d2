package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nao1215/fiisheet/internal/grid"
	"github.com/nao1215/fiisheet/internal/model"
)

func TestNewBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nil)
		if bp.concurrency != 1 {
			t.Errorf("concurrency = %d, want 1", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nil, WithConcurrency(0))
		if bp.concurrency != 1 {
			t.Errorf("concurrency = %d, want 1", bp.concurrency)
		}
		bp = NewBatchProcessor(nil, WithConcurrency(4))
		if bp.concurrency != 4 {
			t.Errorf("concurrency = %d, want 4", bp.concurrency)
		}
	})
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	sk := &recordingSink{}
	factory := func(_ context.Context, job string) (*Pipeline, *model.Run, error) {
		switch job {
		case "broken":
			return nil, nil, errors.New("unknown job")
		case "empty":
			return NewJobPipeline(&fakeStrategy{}, sk, false, discardLogger()),
				model.NewRun(job, "api", job), nil
		default:
			return NewJobPipeline(&fakeStrategy{g: grid.Grid{{job}}}, sk, false, discardLogger()),
				model.NewRun(job, "api", job), nil
		}
	}

	bp := NewBatchProcessor(factory, WithConcurrency(3), WithBatchLogger(discardLogger()))
	runs, err := bp.ProcessBatch(t.Context(), []string{"one", "broken", "empty", "two"})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	want := []struct {
		job   string
		state model.State
	}{
		{"one", model.StateDone},
		{"broken", model.StateFailed},
		{"empty", model.StateEmpty},
		{"two", model.StateDone},
	}
	if len(runs) != len(want) {
		t.Fatalf("runs = %d, want %d", len(runs), len(want))
	}
	for i, w := range want {
		if runs[i].Job != w.job || runs[i].State != w.state {
			t.Errorf("runs[%d] = %s/%v, want %s/%v", i, runs[i].Job, runs[i].State, w.job, w.state)
		}
	}
	if runs[1].ErrorMessage != "unknown job" {
		t.Errorf("broken run error = %q", runs[1].ErrorMessage)
	}
	if got := len(sk.writes()); got != 2 {
		t.Errorf("writes = %d, want 2", got)
	}
}

func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	factory := func(_ context.Context, job string) (*Pipeline, *model.Run, error) {
		return NewJobPipeline(&fakeStrategy{g: grid.Grid{{job}}}, nil, false, discardLogger()),
			model.NewRun(job, "api", job), nil
	}

	jobs := make([]string, 8)
	for i := range jobs {
		jobs[i] = fmt.Sprintf("job%d", i)
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]string)
	)
	bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(discardLogger()))
	err := bp.ProcessBatchWithCallback(t.Context(), jobs, func(run *model.Run, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = run.Job
	})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback() error = %v", err)
	}
	if len(seen) != len(jobs) {
		t.Fatalf("callbacks = %d, want %d", len(seen), len(jobs))
	}
	for i, job := range jobs {
		if seen[i] != job {
			t.Errorf("index %d = %q, want %q", i, seen[i], job)
		}
	}
}
