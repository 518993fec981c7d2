package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/fiisheet/internal/acquire"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/model"
)

// Process exit codes. A higher code takes priority when several jobs fail.
const (
	exitOK            = 0
	exitConfig        = 1
	exitTableNotFound = 2
	exitNoRows        = 3
	exitUnexpected    = 4
)

// errConfiguration marks errors found before any acquisition started.
var errConfiguration = errors.New("configuration error")

// configError wraps err as a configuration error.
func configError(err error) error {
	return fmt.Errorf("%w: %w", errConfiguration, err)
}

// exitError carries the exit code decided from a set of runs.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var ve *config.ValidationError
	switch {
	case errors.Is(err, errConfiguration), errors.As(err, &ve):
		return exitConfig
	case errors.Is(err, acquire.ErrTableNotFound):
		return exitTableNotFound
	case errors.Is(err, acquire.ErrNoRows):
		return exitNoRows
	default:
		return exitUnexpected
	}
}

// runsExitCode returns the highest-priority exit code among runs.
func runsExitCode(runs []*model.Run) int {
	code := exitOK
	for _, run := range runs {
		if run == nil {
			code = max(code, exitUnexpected)
			continue
		}
		if run.Succeeded() {
			continue
		}
		c := exitCode(run.Error)
		if c == exitOK {
			c = exitUnexpected
		}
		code = max(code, c)
	}
	return code
}

// runsError returns an exitError when any run did not succeed.
func runsError(runs []*model.Run) error {
	code := runsExitCode(runs)
	if code == exitOK {
		return nil
	}
	failed := 0
	for _, run := range runs {
		if run == nil || !run.Succeeded() {
			failed++
		}
	}
	return &exitError{
		code: code,
		err:  fmt.Errorf("%d of %d job(s) did not complete", failed, len(runs)),
	}
}
