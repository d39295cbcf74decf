// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Load reads package-level overrides, so these tests cannot run in parallel
// with each other.

func TestLoadDefaults(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load unexpected error: %v", err)
	}

	if cfg.DefaultRuntime != RuntimeNative {
		t.Errorf("DefaultRuntime = %q, want native", cfg.DefaultRuntime)
	}
	if cfg.AssumeYes {
		t.Error("AssumeYes default should be false")
	}
	if cfg.Prefix == "" || cfg.CacheDir == "" || cfg.WorkDir == "" {
		t.Errorf("path defaults missing: %+v", cfg)
	}
	if cfg.EffectiveJobs() < 1 {
		t.Errorf("EffectiveJobs = %d, want >= 1", cfg.EffectiveJobs())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	content := `
prefix:  "/opt/graft"
mirrors: ["https://mirror.example.org/pool"]
jobs:    4
default_runtime: "virtual"
assume_yes: true
ui: verbose: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load unexpected error: %v", err)
	}

	if cfg.Prefix != "/opt/graft" {
		t.Errorf("Prefix = %q, want /opt/graft", cfg.Prefix)
	}
	if len(cfg.Mirrors) != 1 || cfg.Mirrors[0] != "https://mirror.example.org/pool" {
		t.Errorf("Mirrors = %v", cfg.Mirrors)
	}
	if cfg.Jobs != 4 || cfg.EffectiveJobs() != 4 {
		t.Errorf("Jobs = %d, EffectiveJobs = %d, want 4", cfg.Jobs, cfg.EffectiveJobs())
	}
	if cfg.DefaultRuntime != RuntimeVirtual {
		t.Errorf("DefaultRuntime = %q, want virtual", cfg.DefaultRuntime)
	}
	if !cfg.AssumeYes || !cfg.UI.Verbose {
		t.Errorf("bool fields not applied: %+v", cfg)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown runtime",
			content: `default_runtime: "container"`,
			wantErr: "default_runtime",
		},
		{
			name:    "non-http mirror",
			content: `mirrors: ["ftp://old.example.org"]`,
			wantErr: "mirrors",
		},
		{
			name:    "negative jobs",
			content: `jobs: -1`,
			wantErr: "jobs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			SetConfigDirOverride(dir)
			t.Cleanup(Reset)

			if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("Load succeeded, want error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	SetConfigFilePathOverride(filepath.Join(t.TempDir(), "nope.cue"))
	t.Cleanup(Reset)

	if _, err := Load(); err == nil {
		t.Error("Load with missing explicit config file succeeded, want error")
	}
}

func TestRuntimeModeValidate(t *testing.T) {
	t.Parallel()

	if err := RuntimeNative.Validate(); err != nil {
		t.Errorf("native: %v", err)
	}
	if err := RuntimeVirtual.Validate(); err != nil {
		t.Errorf("virtual: %v", err)
	}
	if err := RuntimeMode("container").Validate(); !errors.Is(err, ErrInvalidRuntimeMode) {
		t.Errorf("container: error = %v, want ErrInvalidRuntimeMode", err)
	}
}
