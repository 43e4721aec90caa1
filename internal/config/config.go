// Package config loads piercore's optional YAML configuration, the same
// optional-file-then-defaults shape as the h2 repos' internal/config
// packages: a missing file is not an error, just the Default config, and
// LoadFrom is kept separate from Load so tests can point at a fixture
// instead of the real home directory. cmd/piercorelib reads the file
// through Load; cmd/piercli uses only Default and does not read it.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is piercli's full set of user-overridable defaults.
type Config struct {
	KnownHostsPath string  `yaml:"known_hosts_path"`
	DefaultShell   string  `yaml:"default_shell"`
	LaneWidth      float32 `yaml:"lane_width"`
	RowHeight      float32 `yaml:"row_height"`
	ShowLongEdges  bool    `yaml:"show_long_edges"`
}

// Default returns the built-in configuration used when no config file
// is present or a field is left unset.
func Default() Config {
	return Config{
		KnownHostsPath: defaultKnownHostsPath(),
		DefaultShell:   "/bin/sh",
		LaneWidth:      20,
		RowHeight:      24,
		ShowLongEdges:  true,
	}
}

func defaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".piercore/known_hosts"
	}
	return filepath.Join(home, ".config", "piercore", "known_hosts")
}

// DefaultPath returns the standard config file location,
// ~/.config/piercore/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".piercore/config.yaml"
	}
	return filepath.Join(home, ".config", "piercore", "config.yaml")
}

// Load reads the config file at DefaultPath, falling back to Default
// for any field the file doesn't set and for the whole config when the
// file doesn't exist.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads and merges a config file at path over Default.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var overrides struct {
		KnownHostsPath *string  `yaml:"known_hosts_path"`
		DefaultShell   *string  `yaml:"default_shell"`
		LaneWidth      *float32 `yaml:"lane_width"`
		RowHeight      *float32 `yaml:"row_height"`
		ShowLongEdges  *bool    `yaml:"show_long_edges"`
	}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return cfg, err
	}

	if overrides.KnownHostsPath != nil {
		cfg.KnownHostsPath = *overrides.KnownHostsPath
	}
	if overrides.DefaultShell != nil {
		cfg.DefaultShell = *overrides.DefaultShell
	}
	if overrides.LaneWidth != nil {
		cfg.LaneWidth = *overrides.LaneWidth
	}
	if overrides.RowHeight != nil {
		cfg.RowHeight = *overrides.RowHeight
	}
	if overrides.ShowLongEdges != nil {
		cfg.ShowLongEdges = *overrides.ShowLongEdges
	}
	return cfg, nil
}
