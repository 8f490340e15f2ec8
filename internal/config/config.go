package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const ConfigFile = "config.json"

// Config is the user-editable configuration record. The field names mirror
// the keys of the config.json file shipped with earlier releases, so existing
// files keep working.
type Config struct {
	GithubToken     string     `json:"Github_Personal_Token"`
	CustomSteamPath string     `json:"Custom_Steam_Path"`
	DebugMode       bool       `json:"Debug_Mode"`
	LoggingFiles    bool       `json:"Logging_Files"`
	AutoUpdate      AutoUpdate `json:"Auto_Update"`
}

// AutoUpdate controls the periodic self-update check.
type AutoUpdate struct {
	Enabled bool `json:"Enabled"`
	// CheckInterval is in hours. Values below 1 are treated as 1.
	CheckInterval int `json:"Check_Interval"`
}

// Default returns the configuration written by Generate.
func Default() *Config {
	return &Config{
		LoggingFiles: true,
		AutoUpdate: AutoUpdate{
			Enabled:       true,
			CheckInterval: 24,
		},
	}
}

// Generate writes a default config.json into dir. An existing file is never
// overwritten.
func Generate(dir string) (created bool, err error) {
	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	// Help keys are written alongside the real settings, matching the
	// file earlier releases generated.
	doc := struct {
		*Config
		TokenHelp string `json:"Help with GitHub Personal Token"`
		PathHelp  string `json:"Help with Custom Steam path"`
	}{
		Config:    Default(),
		TokenHelp: "GitHub Personal Token can be generated in GitHub Settings under Developer settings.",
		PathHelp:  `Use \\ in path. For example: 'C:\\Program Files (x86)\\Steam'`,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", ConfigFile, err)
	}
	return true, nil
}

// Load reads config.json from dir. When the file does not exist, a default
// one is generated and returned.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if _, genErr := Generate(dir); genErr != nil {
				return nil, genErr
			}
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFile, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFile, err)
	}
	if cfg.AutoUpdate.CheckInterval < 1 {
		cfg.AutoUpdate.CheckInterval = 1
	}
	return &cfg, nil
}
