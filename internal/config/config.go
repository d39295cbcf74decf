// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"graft-cli/internal/cueutil"
	"graft-cli/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

//go:embed config_schema.cue
var configSchema string

// Load resolves the configuration: built-in defaults, then the config file
// (explicit --config path, else $XDG_CONFIG_HOME/graft/config.cue, else
// ./config.cue), then GRAFT_* environment variables. A missing default
// config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("repositories", defaults.Repositories)
	v.SetDefault("mirrors", defaults.Mirrors)
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("work_dir", defaults.WorkDir)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("default_runtime", string(defaults.DefaultRuntime))
	v.SetDefault("assume_yes", defaults.AssumeYes)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	loadCtx := issue.NewErrorContext().
		WithOperation("load configuration").
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values match the expected schema")

	if configFileOverride != "" {
		// An explicitly requested config file must exist.
		if !fileExists(configFileOverride) {
			return nil, loadCtx.
				WithResource(configFileOverride).
				Wrap(fmt.Errorf("config file not found")).
				BuildError()
		}
		if err := loadCUEIntoViper(v, configFileOverride); err != nil {
			return nil, loadCtx.WithResource(configFileOverride).Wrap(err).BuildError()
		}
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		localPath := ConfigFileName + "." + ConfigFileExt
		switch {
		case fileExists(cuePath):
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, loadCtx.WithResource(cuePath).Wrap(err).BuildError()
			}
		case fileExists(localPath):
			if err := loadCUEIntoViper(v, localPath); err != nil {
				return nil, loadCtx.WithResource(localPath).Wrap(err).BuildError()
			}
		}
		// No config file found: defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.DefaultRuntime.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion(`Set default_runtime to "native" or "virtual"`).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper. Manual CUE handling instead
// of cueutil.Decode because the config decodes to map[string]any for the
// Viper merge, and its fields are optional (Concrete(false)).
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > cueutil.MaxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), cueutil.MaxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
