// Package config loads the optional .synthbench.yaml project file.
// All settings have working defaults; the file only overrides them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/synthmerge/synthbench/internal/pathutil"
	"github.com/synthmerge/synthbench/internal/resolver"
)

// Filename is the name of the project configuration file.
const Filename = ".synthbench.yaml"

// Config is the harness's own configuration. The resolver's config file
// is a separate, opaque artifact passed through on the command line.
type Config struct {
	Version  int            `yaml:"version"`
	Resolver ResolverConfig `yaml:"resolver"`

	// Editor is the command used to open resolved files for manual
	// inspection. Empty disables inspection.
	Editor string `yaml:"editor"`

	// Record enables writing run results to the state database.
	Record bool `yaml:"record"`

	// StateDB overrides the default state database location.
	StateDB string `yaml:"state_db"`
}

// ResolverConfig describes how to invoke the resolver under test.
type ResolverConfig struct {
	Command string   `yaml:"command"`
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "90s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements custom unmarshaling via time.ParseDuration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Version: 1,
		Resolver: ResolverConfig{
			Command: resolver.DefaultCommand,
		},
	}
}

// Find searches for a .synthbench.yaml starting from startDir and
// walking up to parent directories. Returns "" when none exists.
func Find(startDir string) string {
	dir := startDir
	for {
		path := filepath.Join(dir, Filename)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads the configuration from path. If path is empty, the file is
// searched for from the current directory. A missing file yields the
// defaults, not an error; invalid YAML is an error.
func Load(path string) (Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Default(), nil
		}
		path = Find(cwd)
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	cfg = applyDefaults(cfg)

	// Config values may use ~ for the home directory.
	cfg.StateDB, err = pathutil.ExpandTilde(cfg.StateDB)
	if err != nil {
		return Config{}, err
	}
	cfg.Resolver.Command, err = pathutil.ExpandTilde(cfg.Resolver.Command)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyDefaults fills in missing fields with default values.
func applyDefaults(cfg Config) Config {
	defaults := Default()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Resolver.Command == "" {
		cfg.Resolver.Command = defaults.Resolver.Command
	}

	return cfg
}
