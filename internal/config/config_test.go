package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, Filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// A nonexistent explicit path yields defaults, not an error.
	cfg, err := Load(filepath.Join(t.TempDir(), Filename))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Resolver.Command != "synthmerge" {
		t.Errorf("Resolver.Command = %q, want synthmerge", cfg.Resolver.Command)
	}
	if cfg.Editor != "" {
		t.Errorf("Editor = %q, want empty", cfg.Editor)
	}
	if cfg.Record {
		t.Error("Record = true, want false by default")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
version: 1
resolver:
  command: /opt/synthmerge/bin/synthmerge
  timeout: 5m
editor: emacsclient
record: true
state_db: /tmp/bench.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Resolver.Command != "/opt/synthmerge/bin/synthmerge" {
		t.Errorf("Resolver.Command = %q", cfg.Resolver.Command)
	}
	if time.Duration(cfg.Resolver.Timeout) != 5*time.Minute {
		t.Errorf("Resolver.Timeout = %v, want 5m", time.Duration(cfg.Resolver.Timeout))
	}
	if cfg.Editor != "emacsclient" {
		t.Errorf("Editor = %q, want emacsclient", cfg.Editor)
	}
	if !cfg.Record {
		t.Error("Record = false, want true")
	}
	if cfg.StateDB != "/tmp/bench.db" {
		t.Errorf("StateDB = %q", cfg.StateDB)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "editor: vi\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Resolver.Command != "synthmerge" {
		t.Errorf("Resolver.Command = %q, want default", cfg.Resolver.Command)
	}
	if cfg.Editor != "vi" {
		t.Errorf("Editor = %q, want vi", cfg.Editor)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "state_db: ~/bench/state.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home directory: %v", err)
	}
	want := filepath.Join(home, "bench", "state.db")
	if cfg.StateDB != want {
		t.Errorf("StateDB = %q, want %q", cfg.StateDB, want)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "resolver: [broken\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() succeeded for invalid YAML")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "resolver:\n  timeout: never\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() succeeded for invalid duration")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "version: 1\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	if got := Find(nested); got != filepath.Join(root, Filename) {
		t.Errorf("Find() = %q, want config at root", got)
	}

	if got := Find(t.TempDir()); got != "" {
		t.Errorf("Find() = %q, want empty for no config", got)
	}
}
