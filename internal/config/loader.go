package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for in the
// current and home directories.
const DefaultConfigFile = ".fiisheet.yaml"

// LoadConfigFile loads the sink and job definitions from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Jobs == nil {
		cf.Jobs = make(map[string]JobConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .fiisheet.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .fiisheet.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// DefaultFile returns the configuration used when no file is found: one dom
// job scraping the investidor10 FII listing into the "investidor10" tab.
func DefaultFile() *File {
	return &File{
		Sink: SinkConfig{Type: SinkSheets},
		Jobs: map[string]JobConfig{
			DefaultTab: {
				Strategy: StrategyDOM,
				URL:      DefaultTargetURL,
				Tab:      DefaultTab,
			},
		},
	}
}

// ApplyEnv overlays the environment on the loaded file. SERVICE_ACCOUNT_JSON
// and SHEET_ID fill the sheets sink; SHEET_TAB renames the destination tab
// when exactly one job is selected.
func (f *File) ApplyEnv(getenv func(string) string, selected []string) {
	if v := getenv(EnvServiceAccountJSON); v != "" {
		f.Sink.CredentialsJSON = v
	}
	if v := getenv(EnvSheetID); v != "" {
		f.Sink.SpreadsheetID = v
	}

	tab := getenv(EnvSheetTab)
	if tab == "" {
		return
	}
	if len(selected) == 0 {
		selected = f.JobNames()
	}
	if len(selected) != 1 {
		return
	}
	if job, ok := f.Jobs[selected[0]]; ok {
		job.Tab = tab
		f.Jobs[selected[0]] = job
	}
}
