// SPDX-License-Identifier: MPL-2.0

package run

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// NativeRunner executes scripts using the host's shell.
type NativeRunner struct {
	// Shell overrides the default shell lookup.
	Shell string
}

// NewNativeRunner creates a native runner using the default shell.
func NewNativeRunner() *NativeRunner {
	return &NativeRunner{}
}

// Name returns the runner name.
func (r *NativeRunner) Name() string {
	return "native"
}

// Run executes the script with "<shell> -c <script>".
func (r *NativeRunner) Run(ctx context.Context, script string, opts Options) error {
	shell, err := r.shell()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, shell, "-c", script)
	cmd.Dir = opts.Dir
	cmd.Env = envSlice(opts.Env)
	cmd.Stdout = opts.stdout()
	cmd.Stderr = opts.stderr()

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitStatusError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to execute script: %w", err)
	}
	return nil
}

// shell resolves the shell to use: the configured override, $SHELL, then
// bash or sh from PATH.
func (r *NativeRunner) shell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", fmt.Errorf("no shell found")
}
