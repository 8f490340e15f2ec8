package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const StateFile = "state.json"

// State holds the small amount of process-wide state that survives across
// runs: when the updater last checked for a release, where Steam was found,
// and whether an update binary is staged for the next start.
type State struct {
	LastUpdateCheck time.Time `json:"last_update_check,omitempty"`
	CachedSteamPath string    `json:"cached_steam_path,omitempty"`
	StagedUpdate    string    `json:"staged_update,omitempty"`
}

// LoadState reads state.json from dir. A missing file yields an empty state,
// not an error.
func LoadState(dir string) (*State, error) {
	path := filepath.Join(dir, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt state file is not worth failing the run over.
		return &State{}, nil
	}
	return &s, nil
}

// Save writes the state to dir.
func (s *State) Save(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, StateFile), data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
