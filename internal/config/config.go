// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the application configuration from YAML, with named
// profiles layered over the defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Defaults Settings `yaml:"defaults"`

	// DenyListFile points to an external deny-list document; empty keeps
	// the built-in entries.
	DenyListFile string `yaml:"deny_list_file"`

	// Validators toggles individual format validators by entity type.
	// Only an explicit false disables one; absent entries stay enabled.
	Validators map[string]bool `yaml:"validators"`

	Context ContextSettings `yaml:"context"`
	Address AddressSettings `yaml:"address"`
	Metrics MetricsSettings `yaml:"metrics"`

	// Profiles for recurring scan scenarios, selected with --profile.
	Profiles map[string]Profile `yaml:"profiles"`
}

// Settings are the per-run options a profile can override.
type Settings struct {
	Format         string  `yaml:"format"` // "text" or "json"
	Language       string  `yaml:"language"`
	MinConfidence  float64 `yaml:"min_confidence"`
	NoColor        bool    `yaml:"no_color"`
	Verbose        bool    `yaml:"verbose"`
	Debug          bool    `yaml:"debug"`
	ShowMatches    bool    `yaml:"show_matches"` // print matched text (off by default, it is PII)
	ShowComponents bool    `yaml:"show_components"`
	FilterDenied   bool    `yaml:"filter_denied"`
	Anonymize      bool    `yaml:"anonymize"`
}

// ContextSettings override the context scoring defaults.
type ContextSettings struct {
	WindowSize      int            `yaml:"window_size"`
	WindowOverrides map[string]int `yaml:"window_overrides"`
	ReviewThreshold float64        `yaml:"review_threshold"`
}

// AddressSettings override the address grouping defaults.
type AddressSettings struct {
	MaxGap          int     `yaml:"max_gap"`
	MinComponents   int     `yaml:"min_components"`
	ReviewThreshold float64 `yaml:"review_threshold"`
	AutoAnonymize   float64 `yaml:"auto_anonymize"`
}

// MetricsSettings control the inference metrics collector.
type MetricsSettings struct {
	RingCapacity     int  `yaml:"ring_capacity"`
	EnablePrometheus bool `yaml:"enable_prometheus"`
}

// Profile is a named settings overlay.
type Profile struct {
	Description string          `yaml:"description"`
	Settings    Settings        `yaml:"settings"`
	Validators  map[string]bool `yaml:"validators"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: Settings{
			Format:        "text",
			MinConfidence: 0.0,
		},
		Validators: map[string]bool{},
		Profiles:   map[string]Profile{},
	}
}

// searchPaths lists where LoadDefault looks, first hit wins.
func searchPaths() []string {
	paths := []string{"piisift.yaml", ".piisift.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "piisift", "config.yaml"))
	}
	return paths
}

// LoadDefault loads the first configuration file found on the search path,
// or the built-in defaults when none exists.
func LoadDefault() (*Config, error) {
	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Load reads one configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// ApplyProfile overlays a named profile onto the defaults. Unknown names
// are an error so typos do not silently scan with the wrong settings.
func (c *Config) ApplyProfile(name string) error {
	if name == "" {
		return nil
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return errors.Errorf("unknown profile %q", name)
	}

	c.Defaults = mergeSettings(c.Defaults, profile.Settings)
	for k, v := range profile.Validators {
		if c.Validators == nil {
			c.Validators = map[string]bool{}
		}
		c.Validators[k] = v
	}
	return nil
}

// mergeSettings overlays non-zero profile values onto the base.
func mergeSettings(base, overlay Settings) Settings {
	out := base
	if overlay.Format != "" {
		out.Format = overlay.Format
	}
	if overlay.Language != "" {
		out.Language = overlay.Language
	}
	if overlay.MinConfidence != 0 {
		out.MinConfidence = overlay.MinConfidence
	}
	out.NoColor = base.NoColor || overlay.NoColor
	out.Verbose = base.Verbose || overlay.Verbose
	out.Debug = base.Debug || overlay.Debug
	out.ShowMatches = base.ShowMatches || overlay.ShowMatches
	out.ShowComponents = base.ShowComponents || overlay.ShowComponents
	out.FilterDenied = base.FilterDenied || overlay.FilterDenied
	out.Anonymize = base.Anonymize || overlay.Anonymize
	return out
}

// EnabledValidators returns the toggle map for the validator registry.
func (c *Config) EnabledValidators() map[string]bool {
	return c.Validators
}
