// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"testing"

	"graft-cli/internal/issue"
	"graft-cli/internal/testutil"
	"graft-cli/pkg/resolve"
)

func TestFetchPackagesUnknownName(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "zlib", nil)
	app := &App{Catalog: f.Load(t)}

	err := app.fetchPackages(context.Background(), []string{"ghost"}, false)
	if !errors.Is(err, resolve.ErrUnresolvedSpecifier) {
		t.Fatalf("fetchPackages error = %v, want ErrUnresolvedSpecifier", err)
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("unresolved fetch target should surface suggestions, got %v", err)
	}
	if len(f.Fetcher.Calls) != 0 {
		t.Errorf("unresolved name still triggered downloads: %v", f.Fetcher.Calls)
	}
}

func TestFetchPackagesMissingOnly(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "zlib", nil)
	f.AddPackage(t, "curl", nil)
	f.MarkInstalled(t, "curl", "1.0-1", false)
	app := &App{Catalog: f.Load(t)}

	err := app.fetchPackages(context.Background(), app.Catalog.Names(), true)
	if err != nil {
		t.Fatalf("fetchPackages: %v", err)
	}

	want := []string{"pool/zlib-1.0-1.tar.gz"}
	if len(f.Fetcher.Calls) != 1 || f.Fetcher.Calls[0] != want[0] {
		t.Errorf("fetch calls = %v, want %v", f.Fetcher.Calls, want)
	}
}
