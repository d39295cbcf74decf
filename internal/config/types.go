// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name, used for config and cache paths.
	AppName = "graft"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// RuntimeNative runs phase scripts in the host system shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs phase scripts in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"
)

// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
var ErrInvalidRuntimeMode = errors.New("invalid runtime mode")

type (
	// RuntimeMode selects the shell used for phase scripts.
	RuntimeMode string

	// Config is graft's resolved process-wide configuration.
	Config struct {
		// Prefix is the root of the installed tree: per-version package
		// directories and the active-version symlink farm live under it.
		Prefix string `mapstructure:"prefix"`

		// Repositories are directories scanned for *.graft recipe files,
		// in priority order (first hit wins on name collision).
		Repositories []string `mapstructure:"repositories"`

		// Mirrors are base URLs tried in order for relative source URLs.
		Mirrors []string `mapstructure:"mirrors"`

		// CacheDir holds downloaded source archives.
		CacheDir string `mapstructure:"cache_dir"`

		// WorkDir holds per-unit build trees.
		WorkDir string `mapstructure:"work_dir"`

		// Jobs is the parallelism passed to phase scripts as GRAFT_JOBS.
		// Zero means the number of CPUs.
		Jobs int `mapstructure:"jobs"`

		// DefaultRuntime selects the phase-script shell.
		DefaultRuntime RuntimeMode `mapstructure:"default_runtime"`

		// AssumeYes answers every confirmation prompt affirmatively.
		AssumeYes bool `mapstructure:"assume_yes"`

		// UI holds presentation settings.
		UI UIConfig `mapstructure:"ui"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// Verbose enables debug-level logging.
		Verbose bool `mapstructure:"verbose"`
	}
)

// Validate checks the RuntimeMode value.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRuntimeMode, m)
	}
}

// DefaultConfig returns the built-in defaults. Paths derive from the user's
// home directory; Load substitutes them before merging file values.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, "."+AppName)

	return &Config{
		Prefix:         filepath.Join(root, "prefix"),
		Repositories:   []string{filepath.Join(root, "repo")},
		Mirrors:        nil,
		CacheDir:       filepath.Join(root, "cache"),
		WorkDir:        filepath.Join(root, "work"),
		Jobs:           0,
		DefaultRuntime: RuntimeNative,
		AssumeYes:      false,
		UI:             UIConfig{Verbose: false},
	}
}

// EffectiveJobs resolves the Jobs setting, mapping zero to the CPU count.
func (c *Config) EffectiveJobs() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}

// ConfigDir returns the graft configuration directory:
// $XDG_CONFIG_HOME/graft, defaulting to ~/.config/graft.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, AppName), nil
}
