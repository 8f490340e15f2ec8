package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateWritesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	created, err := Generate(dir)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !created {
		t.Fatal("Generate should report creation in an empty directory")
	}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("generated config is not valid JSON: %v", err)
	}
	for _, key := range []string{"Github_Personal_Token", "Custom_Steam_Path", "Debug_Mode", "Logging_Files", "Auto_Update"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("generated config missing key %q", key)
		}
	}
}

func TestGenerateNeverOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(path, []byte(`{"Github_Personal_Token":"mine"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	created, err := Generate(dir)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if created {
		t.Fatal("Generate must not overwrite an existing config")
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "mine") {
		t.Fatalf("existing config was clobbered: %s", data)
	}
}

func TestLoadGeneratesWhenMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.AutoUpdate.Enabled || cfg.AutoUpdate.CheckInterval != 24 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err != nil {
		t.Fatalf("Load should have generated config.json: %v", err)
	}
}

func TestLoadClampsInterval(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `{"Auto_Update":{"Enabled":true,"Check_Interval":0}}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AutoUpdate.CheckInterval != 1 {
		t.Fatalf("CheckInterval = %d, want clamp to 1", cfg.AutoUpdate.CheckInterval)
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	checked := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s := &State{
		LastUpdateCheck: checked,
		CachedSteamPath: "/opt/steam",
	}
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if !loaded.LastUpdateCheck.Equal(checked) {
		t.Fatalf("LastUpdateCheck = %v, want %v", loaded.LastUpdateCheck, checked)
	}
	if loaded.CachedSteamPath != "/opt/steam" {
		t.Fatalf("CachedSteamPath = %q", loaded.CachedSteamPath)
	}
}

func TestLoadStateMissingAndCorrupt(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty state", func(t *testing.T) {
		s, err := LoadState(t.TempDir())
		if err != nil {
			t.Fatalf("LoadState failed: %v", err)
		}
		if !s.LastUpdateCheck.IsZero() || s.CachedSteamPath != "" {
			t.Fatalf("state not empty: %+v", s)
		}
	})

	t.Run("corrupt file yields empty state", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, StateFile), []byte("{corrupt"), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := LoadState(dir)
		if err != nil {
			t.Fatalf("LoadState failed: %v", err)
		}
		if s.CachedSteamPath != "" {
			t.Fatalf("state not empty: %+v", s)
		}
	})
}
