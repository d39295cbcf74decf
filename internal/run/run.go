// SPDX-License-Identifier: MPL-2.0

// Package run executes phase scripts. Two runners are available: native
// (the host shell via os/exec) and virtual (the embedded mvdan/sh
// interpreter, available even on hosts without a POSIX shell). Both block
// until the script completes and map its exit status to an error.
package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"graft-cli/internal/config"
)

type (
	// Options configures a single script execution.
	Options struct {
		// Dir is the working directory for the script.
		Dir string
		// Env holds extra environment variables (the GRAFT_* set), merged
		// over the process environment.
		Env map[string]string
		// Stdout and Stderr receive the script's output. Nil writers
		// default to the process streams.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner executes a shell script and returns an error when the script
	// fails to start or exits non-zero.
	Runner interface {
		// Name identifies the runner ("native" or "virtual").
		Name() string
		// Run executes the script, blocking until it completes.
		Run(ctx context.Context, script string, opts Options) error
	}

	// ExitStatusError reports a script that ran to completion but exited
	// non-zero.
	ExitStatusError struct {
		Code int
	}
)

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Code)
}

// ForMode returns the runner selected by the configuration.
func ForMode(mode config.RuntimeMode) (Runner, error) {
	switch mode {
	case config.RuntimeNative:
		return NewNativeRunner(), nil
	case config.RuntimeVirtual:
		return NewVirtualRunner(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidRuntimeMode, mode)
	}
}

// envSlice merges opts.Env over the process environment and returns it in
// KEY=VALUE form, extras sorted for determinism.
func envSlice(extra map[string]string) []string {
	env := os.Environ()

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func (o *Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o *Options) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}
