// SPDX-License-Identifier: MPL-2.0

package run

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"graft-cli/internal/config"
)

// runners returns both runner implementations for cross-runner test cases.
// The native runner is skipped where no POSIX shell is available.
func runners(t *testing.T) []Runner {
	t.Helper()

	rs := []Runner{NewVirtualRunner()}
	if runtime.GOOS != "windows" {
		rs = append(rs, NewNativeRunner())
	}
	return rs
}

func TestRunEcho(t *testing.T) {
	t.Parallel()

	for _, r := range runners(t) {
		t.Run(r.Name(), func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			err := r.Run(context.Background(), "echo hello", Options{
				Dir:    t.TempDir(),
				Stdout: &out,
				Stderr: &out,
			})
			if err != nil {
				t.Fatalf("Run unexpected error: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != "hello" {
				t.Errorf("output = %q, want hello", got)
			}
		})
	}
}

func TestRunExitStatus(t *testing.T) {
	t.Parallel()

	for _, r := range runners(t) {
		t.Run(r.Name(), func(t *testing.T) {
			t.Parallel()

			err := r.Run(context.Background(), "exit 3", Options{Dir: t.TempDir()})
			var exitErr *ExitStatusError
			if !errors.As(err, &exitErr) {
				t.Fatalf("Run error = %v, want ExitStatusError", err)
			}
			if exitErr.Code != 3 {
				t.Errorf("exit code = %d, want 3", exitErr.Code)
			}
		})
	}
}

func TestRunEnvAndDir(t *testing.T) {
	t.Parallel()

	for _, r := range runners(t) {
		t.Run(r.Name(), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			err := r.Run(context.Background(), `echo "$GRAFT_NAME" > marker`, Options{
				Dir: dir,
				Env: map[string]string{"GRAFT_NAME": "zlib"},
			})
			if err != nil {
				t.Fatalf("Run unexpected error: %v", err)
			}

			data, err := os.ReadFile(filepath.Join(dir, "marker"))
			if err != nil {
				t.Fatalf("script did not run in work dir: %v", err)
			}
			if got := strings.TrimSpace(string(data)); got != "zlib" {
				t.Errorf("marker = %q, want zlib", got)
			}
		})
	}
}

func TestVirtualRunnerSyntaxError(t *testing.T) {
	t.Parallel()

	err := NewVirtualRunner().Run(context.Background(), "if then fi", Options{Dir: t.TempDir()})
	if err == nil {
		t.Error("expected parse error for invalid script")
	}
}

func TestForMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mode     config.RuntimeMode
		wantName string
		wantErr  bool
	}{
		{name: "native", mode: config.RuntimeNative, wantName: "native"},
		{name: "virtual", mode: config.RuntimeVirtual, wantName: "virtual"},
		{name: "unknown", mode: config.RuntimeMode("container"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := ForMode(tt.mode)
			if tt.wantErr {
				if !errors.Is(err, config.ErrInvalidRuntimeMode) {
					t.Errorf("ForMode(%q) error = %v, want ErrInvalidRuntimeMode", tt.mode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ForMode(%q) unexpected error: %v", tt.mode, err)
			}
			if r.Name() != tt.wantName {
				t.Errorf("runner name = %q, want %q", r.Name(), tt.wantName)
			}
		})
	}
}
