package model

// State is the position of a run in the orchestration state machine:
//
//	Idle -> Acquiring -> {Empty | Acquired} -> Normalizing -> Writing -> Done
//
// Any step may move the run to Failed. No state is ever retried.
type State int

const (
	// StateIdle is the state of a run that has not started yet.
	StateIdle State = iota

	// StateAcquiring means the acquisition strategy is running.
	StateAcquiring

	// StateEmpty means the strategy returned no table or no rows.
	// It is terminal and fatal, and nothing is written to the sink.
	StateEmpty

	// StateAcquired means the strategy returned a non-empty grid.
	StateAcquired

	// StateNormalizing means header prepending and padding are in progress.
	StateNormalizing

	// StateWriting means the sink replace is in progress.
	StateWriting

	// StateDone means the grid was written (or the write was skipped on a
	// dry run) and the run succeeded.
	StateDone

	// StateFailed means a transport, parse or sink error ended the run.
	StateFailed
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateEmpty:
		return "empty"
	case StateAcquired:
		return "acquired"
	case StateNormalizing:
		return "normalizing"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateEmpty || s == StateFailed
}

// MarshalText encodes the state by name, so JSON reports read "done"
// instead of 6.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
