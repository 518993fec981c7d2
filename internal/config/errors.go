package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors.
// Every one of them is a configuration error from the caller's point of
// view; the CLI maps them to the same exit code.
var (
	// ErrNoJobs is returned when the configuration declares no job.
	ErrNoJobs = errors.New("no jobs configured")

	// ErrUnknownJob is returned when a requested job is not configured.
	ErrUnknownJob = errors.New("unknown job")

	// ErrInvalidStrategy is returned for a strategy other than dom, api,
	// static or ticker.
	ErrInvalidStrategy = errors.New("invalid strategy: must be one of dom, api, static, ticker")

	// ErrMissingURL is returned when a job has no target URL.
	ErrMissingURL = errors.New("missing url")

	// ErrMissingTab is returned when a job has no destination tab.
	ErrMissingTab = errors.New("missing tab")

	// ErrMissingFields is returned when an api or ticker job has no field projection.
	ErrMissingFields = errors.New("missing field list")

	// ErrHeaderWidth is returned when a declared header does not have one
	// entry per projected field.
	ErrHeaderWidth = errors.New("header must have one entry per field")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidBodyFormat is returned for a body format other than form or json.
	ErrInvalidBodyFormat = errors.New("invalid body format: must be form or json")

	// ErrMissingTickers is returned when a ticker job lists no tickers.
	ErrMissingTickers = errors.New("missing ticker list")

	// ErrInvalidTokenSource is returned for a token source other than
	// localStorage or meta.
	ErrInvalidTokenSource = errors.New("invalid token source: must be localStorage or meta")

	// ErrInvalidSinkType is returned for a sink other than sheets, xlsx or sqlite.
	ErrInvalidSinkType = errors.New("invalid sink type: must be sheets, xlsx or sqlite")

	// ErrMissingSpreadsheetID is returned when the sheets sink has no spreadsheet id.
	ErrMissingSpreadsheetID = errors.New("missing spreadsheet id: set sink.spreadsheetId or " + EnvSheetID)

	// ErrMissingCredentials is returned when the sheets sink has no service account.
	ErrMissingCredentials = errors.New("missing credentials: set sink.credentialsFile or " + EnvServiceAccountJSON)

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// ValidationError names the job whose configuration is invalid.
type ValidationError struct {
	Job string
	Err error
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("job %q: %v", e.Job, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
