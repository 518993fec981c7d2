package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Sink types.
const (
	SinkSheets = "sheets"
	SinkXLSX   = "xlsx"
	SinkSQLite = "sqlite"
)

// File represents the structure of the fiisheet configuration file.
type File struct {
	// Sink is the destination shared by every job.
	Sink SinkConfig `yaml:"sink"`

	// Defaults applies to every job unless the job overrides it.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Jobs maps job names to their acquisition settings.
	Jobs map[string]JobConfig `yaml:"jobs"`
}

// SinkConfig selects and configures the tabular store.
type SinkConfig struct {
	// Type is sheets, xlsx or sqlite.
	Type string `yaml:"type,omitempty"`

	// SpreadsheetID is the Google Sheets document id (sheets only).
	SpreadsheetID string `yaml:"spreadsheetId,omitempty"`

	// CredentialsFile is a service account JSON key file (sheets only).
	CredentialsFile string `yaml:"credentialsFile,omitempty"`

	// CredentialsJSON holds inline service account JSON taken from the
	// environment. It is never read from the file.
	CredentialsJSON string `yaml:"-"`

	// Path is the workbook or database file (xlsx and sqlite only).
	// Defaults to a file in the XDG data directory.
	Path string `yaml:"path,omitempty"`

	// Clear removes the previous tab contents before writing, so that a
	// smaller run does not leave stale trailing rows behind.
	Clear bool `yaml:"clear,omitempty"`
}

// Defaults are the job settings shared by every job.
type Defaults struct {
	// UserAgent is sent by the browser session and the HTTP clients.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headless runs Chrome without a window. Defaults to true.
	Headless *bool `yaml:"headless,omitempty"`

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`

	// ChromePath is the Chrome binary. Empty uses chromedp's lookup.
	ChromePath string `yaml:"chromePath,omitempty"`
}

// JobNames returns the configured job names in sorted order.
func (f *File) JobNames() []string {
	names := make([]string, 0, len(f.Jobs))
	for name := range f.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Job returns the named job with the file defaults applied.
func (f *File) Job(name string) (JobConfig, error) {
	job, ok := f.Jobs[name]
	if !ok {
		return JobConfig{}, &ValidationError{Job: name, Err: ErrUnknownJob}
	}
	return job.WithDefaults(f.Defaults), nil
}

// SinkType returns the configured sink type or the default.
func (s SinkConfig) SinkType() string {
	if s.Type == "" {
		return DefaultSinkType
	}
	return strings.ToLower(s.Type)
}

// ResolvedPath returns the sink file path, defaulting to the XDG data
// directory for the xlsx and sqlite sinks.
func (s SinkConfig) ResolvedPath() string {
	if s.Path != "" {
		return s.Path
	}
	switch s.SinkType() {
	case SinkXLSX:
		return filepath.Join(XDGDataDir(), AppName+".xlsx")
	case SinkSQLite:
		return filepath.Join(XDGDataDir(), AppName+".db")
	default:
		return ""
	}
}

// Credentials returns the service account JSON, preferring the inline
// environment value over the credentials file.
func (s SinkConfig) Credentials() ([]byte, error) {
	if s.CredentialsJSON != "" {
		return []byte(s.CredentialsJSON), nil
	}
	if s.CredentialsFile == "" {
		return nil, ErrMissingCredentials
	}
	return os.ReadFile(s.CredentialsFile) //nolint:gosec // path comes from the user's configuration
}

// Validate checks that the sink has what it needs to write.
func (s SinkConfig) Validate() error {
	switch s.SinkType() {
	case SinkSheets:
		if s.SpreadsheetID == "" {
			return ErrMissingSpreadsheetID
		}
		if s.CredentialsJSON == "" && s.CredentialsFile == "" {
			return ErrMissingCredentials
		}
	case SinkXLSX, SinkSQLite:
	default:
		return ErrInvalidSinkType
	}
	return nil
}
