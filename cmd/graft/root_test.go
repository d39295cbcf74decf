// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"graft-cli/internal/issue"
	"graft-cli/pkg/resolve"
)

func TestGetVersionString(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("dev version string = %q", got)
	}

	Version = "1.2.3"
	got := getVersionString()
	if !strings.HasPrefix(got, "1.2.3") || !strings.Contains(got, "commit:") {
		t.Errorf("release version string = %q", got)
	}
}

func TestDecorateResolveError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "unresolved specifier", err: resolve.ErrUnresolvedSpecifier},
		{name: "no version available", err: resolve.ErrNoVersionAvailable},
		{name: "cyclic dependency", err: &resolve.CyclicDependencyError{Cycle: []string{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decorated := decorateResolveError(tt.err)

			var ae *issue.ActionableError
			if !errors.As(decorated, &ae) {
				t.Fatalf("decorated error %v is not actionable", decorated)
			}
			if !ae.HasSuggestions() {
				t.Error("decorated error carries no suggestions")
			}
			if !errors.Is(decorated, tt.err) {
				t.Error("decoration broke the error chain")
			}
		})
	}

	// Unknown errors pass through untouched.
	plain := errors.New("disk on fire")
	if decorateResolveError(plain) != plain {
		t.Error("unrelated error was decorated")
	}
}

func TestVersionMark(t *testing.T) {
	t.Parallel()

	if got := versionMark("1.0-1", false, false); got != "1.0-1" {
		t.Errorf("plain version rendered as %q", got)
	}
	if got := versionMark("1.0-1", true, true); !strings.Contains(got, "1.0-1*") {
		t.Errorf("active version rendered as %q, want trailing *", got)
	}
}
