package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "fiisheet"

	// DefaultUserAgent is a realistic desktop browser string. Listing sites
	// serve degraded markup to clients that look automated, so both the
	// browser session and the HTTP client present themselves as Chrome.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"

	// DefaultNavigationTimeout bounds the initial page load. Reaching it is
	// not fatal; the run continues with whatever has loaded.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultTableTimeout bounds the wait for the first table element.
	DefaultTableTimeout = 15 * time.Second

	// DefaultInteractionTimeout bounds each click and the network settle
	// that follows it.
	DefaultInteractionTimeout = 5 * time.Second

	// DefaultRequestTimeout bounds each HTTP request of the API, static and
	// ticker strategies.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultPageSize is the page length requested from search endpoints.
	DefaultPageSize = 100

	// DefaultMaxPages caps pagination against endpoints that ignore the
	// offset and keep returning full pages.
	DefaultMaxPages = 1000

	// DefaultResultField is the JSON field holding the page records.
	DefaultResultField = "data"

	// DefaultOffsetParam and DefaultLengthParam are the pagination parameter
	// names of DataTables-style search endpoints.
	DefaultOffsetParam = "start"
	DefaultLengthParam = "length"

	// DefaultBatchSize runs jobs one at a time.
	DefaultBatchSize = 1

	// DefaultSinkType writes to Google Sheets.
	DefaultSinkType = SinkSheets

	// DefaultLogFormat is the slog handler used for log output.
	DefaultLogFormat = "text"

	// DefaultTab is the tab used by the built-in job.
	DefaultTab = "investidor10"

	// DefaultTargetURL is the listing page scraped by the built-in job.
	DefaultTargetURL = "https://investidor10.com.br/fiis/"
)

// Environment variables recognised on top of the configuration file.
const (
	EnvServiceAccountJSON = "SERVICE_ACCOUNT_JSON"
	EnvSheetID            = "SHEET_ID"
	EnvSheetTab           = "SHEET_TAB"
)

// Config holds the options given on the command line together with the
// loaded configuration file.
type Config struct {
	// ConfigFilePath is the path given with --config, if any.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat selects the slog handler: "text" or "json".
	LogFormat string

	// BatchSize is the number of jobs run concurrently.
	BatchSize int

	// DryRun skips the sink write.
	DryRun bool

	// Targets are the job names to run. Empty means every configured job.
	Targets []string

	// File is the loaded configuration file (or the built-in default).
	File *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		LogFormat: DefaultLogFormat,
		BatchSize: DefaultBatchSize,
	}
}

// XDGConfigDir returns the XDG config directory for fiisheet.
// On Linux: ~/.config/fiisheet
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGDataDir returns the XDG data directory for fiisheet, where the xlsx
// and sqlite sinks keep their files unless a path is configured.
// On Linux: ~/.local/share/fiisheet
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// JobNames returns the jobs selected by Targets, or every configured job
// in sorted order when Targets is empty.
func (c *Config) JobNames() []string {
	if len(c.Targets) > 0 {
		return c.Targets
	}
	if c.File == nil {
		return nil
	}
	return c.File.JobNames()
}

// Validate checks the command-line options and the selected jobs.
// It runs once before any acquisition starts.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return ErrInvalidLogFormat
	}
	if c.File == nil || len(c.File.Jobs) == 0 {
		return ErrNoJobs
	}
	names := c.JobNames()
	for _, name := range names {
		job, ok := c.File.Jobs[name]
		if !ok {
			return &ValidationError{Job: name, Err: ErrUnknownJob}
		}
		if err := job.Validate(); err != nil {
			return &ValidationError{Job: name, Err: err}
		}
	}
	if c.DryRun {
		return nil
	}
	return c.File.Sink.Validate()
}
