package model

import (
	"time"

	"github.com/nao1215/fiisheet/internal/grid"
)

// Run is the record of one job execution.
// The pipeline owns the Run for the duration of the execution; the Grid is
// not modified after it has been handed to the sink.
type Run struct {
	// Job is the name of the configured job.
	Job string `json:"job"`

	// Strategy is the acquisition strategy name (dom, api, static, ticker).
	Strategy string `json:"strategy"`

	// Tab is the destination tab in the sink.
	Tab string `json:"tab"`

	// State is the last state reached.
	State State `json:"state"`

	// Header is the declared header row prepended before normalization.
	// It is empty for strategies whose table already carries a header.
	Header grid.Row `json:"header,omitempty"`

	// Grid is the acquired grid; after the normalize step it is rectangular.
	Grid grid.Grid `json:"-"`

	// Rows is the number of rows written (or that would have been written).
	Rows int `json:"rows"`

	// Columns is the width of the normalized grid.
	Columns int `json:"columns"`

	// Range is the A1 range covered by the write, for example "Fund10!A1:B2".
	Range string `json:"range,omitempty"`

	// DryRun is true when the write step skipped the sink.
	DryRun bool `json:"dry_run,omitempty"`

	// StartedAt is when the run left the idle state.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run reached a terminal state.
	FinishedAt time.Time `json:"finished_at"`

	// Error is the error that ended the run, if any.
	Error error `json:"-"`

	// ErrorMessage mirrors Error for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Steps lists the names of the steps that completed.
	Steps []string `json:"steps"`
}

// NewRun creates an idle run for the given job.
func NewRun(job, strategy, tab string) *Run {
	return &Run{
		Job:      job,
		Strategy: strategy,
		Tab:      tab,
		State:    StateIdle,
		Steps:    make([]string, 0),
	}
}

// Transition moves the run to the given state. Entering a terminal state
// records FinishedAt; leaving idle records StartedAt.
func (r *Run) Transition(s State) {
	if r.State == StateIdle && s != StateIdle && r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.State = s
	if s.Terminal() {
		r.FinishedAt = time.Now()
	}
}

// Fail records err and moves the run to the given terminal state.
func (r *Run) Fail(s State, err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.Transition(s)
}

// Succeeded reports whether the run reached StateDone.
func (r *Run) Succeeded() bool {
	return r.State == StateDone
}

// Duration returns the elapsed time between start and finish.
// It returns zero for runs that have not finished.
func (r *Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
