// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"graft-cli/internal/prefix"
	"graft-cli/internal/run"
)

// fakeFetcher records download requests and writes a marker file at the
// destination.
type fakeFetcher struct {
	calls []string
	fail  bool
}

func (f *fakeFetcher) Download(_ context.Context, rawURL, _ string, destPath string) error {
	f.calls = append(f.calls, rawURL)
	if f.fail {
		return fmt.Errorf("mirror unreachable")
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte("archive"), 0o644)
}

// writeRecipe drops a recipe file into a repository directory.
func writeRecipe(t *testing.T, dir, name, body string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".graft"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// zlibRecipe declares two versions and script-only phases so tests do not
// depend on tar being present.
func zlibRecipe(name string) string {
	return fmt.Sprintf(`
name: %q
description: "Compression library"
versions: [
	{
		version: "1.3-1"
		sources: [{url: "pool/%s-1.3.tar.gz", sha256: "%s"}]
	},
	{
		version: "1.2-9"
		sources: [{url: "pool/%s-1.2.tar.gz", sha256: "%s"}]
	},
]
phases: {
	unpack:  "echo unpacked > unpacked.txt"
	compile: "echo compiled > compiled.txt"
	install: "cp compiled.txt \"$GRAFT_DEST\"/"
}
`, name, name, strings.Repeat("0", 64), name, strings.Repeat("1", 64))
}

// newTestEnv builds an Env over temp directories with the virtual runner.
func newTestEnv(t *testing.T, f Fetcher) *Env {
	t.Helper()

	root := t.TempDir()
	return &Env{
		Tree:     prefix.New(filepath.Join(root, "prefix")),
		Fetcher:  f,
		Runner:   run.NewVirtualRunner(),
		CacheDir: filepath.Join(root, "cache"),
		WorkDir:  filepath.Join(root, "work"),
		Jobs:     1,
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	repoA := filepath.Join(t.TempDir(), "repo-a")
	repoB := filepath.Join(t.TempDir(), "repo-b")
	writeRecipe(t, repoA, "zlib", zlibRecipe("zlib"))
	writeRecipe(t, repoB, "zlib", zlibRecipe("zlib")) // shadowed duplicate
	writeRecipe(t, repoB, "curl", zlibRecipe("curl"))

	c, err := Load([]string{repoA, repoB, filepath.Join(t.TempDir(), "missing")}, newTestEnv(t, &fakeFetcher{}))
	if err != nil {
		t.Fatalf("Load unexpected error: %v", err)
	}

	if want := []string{"curl", "zlib"}; !reflect.DeepEqual(c.Names(), want) {
		t.Errorf("Names = %v, want %v", c.Names(), want)
	}

	if _, ok := c.ResolveByName("zlib"); !ok {
		t.Error("ResolveByName(zlib) not found")
	}
	if _, ok := c.ResolveByName("ghost"); ok {
		t.Error("ResolveByName(ghost) unexpectedly found")
	}
}

func TestLoadRejectsNameMismatch(t *testing.T) {
	t.Parallel()

	repo := filepath.Join(t.TempDir(), "repo")
	writeRecipe(t, repo, "notzlib", zlibRecipe("zlib"))

	if _, err := Load([]string{repo}, newTestEnv(t, &fakeFetcher{})); err == nil {
		t.Error("Load accepted recipe whose name differs from its filename")
	}
}

func TestPackageVersions(t *testing.T) {
	t.Parallel()

	repo := filepath.Join(t.TempDir(), "repo")
	writeRecipe(t, repo, "zlib", zlibRecipe("zlib"))
	env := newTestEnv(t, &fakeFetcher{})

	c, err := Load([]string{repo}, env)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := c.ResolveByName("zlib")

	// The recipe declares 1.3-1 before 1.2-9; Versions sorts ascending.
	if want := []string{"1.2-9", "1.3-1"}; !reflect.DeepEqual(p.Versions(), want) {
		t.Errorf("Versions = %v, want %v", p.Versions(), want)
	}

	installed, err := p.InstalledVersions()
	if err != nil {
		t.Fatal(err)
	}
	if installed != nil {
		t.Errorf("InstalledVersions on fresh tree = %v, want nil", installed)
	}

	if _, err := p.Version("1.3-1"); err != nil {
		t.Errorf("Version(1.3-1): %v", err)
	}
	if _, err := p.Version("9.9-9"); err == nil {
		t.Error("Version(9.9-9) succeeded, want error")
	}
}

func TestUnitStateTransitions(t *testing.T) {
	t.Parallel()

	repo := filepath.Join(t.TempDir(), "repo")
	writeRecipe(t, repo, "zlib", zlibRecipe("zlib"))
	fetcher := &fakeFetcher{}
	env := newTestEnv(t, fetcher)

	c, err := Load([]string{repo}, env)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := c.ResolveByName("zlib")
	u, err := p.Version("1.3-1")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	if u.IsFetched() || u.IsPresent() || u.IsInstalled() {
		t.Fatalf("fresh unit state: fetched=%v present=%v installed=%v, want all false",
			u.IsFetched(), u.IsPresent(), u.IsInstalled())
	}

	if err := u.Fetch(ctx); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !u.IsFetched() {
		t.Error("unit not fetched after Fetch")
	}
	if want := []string{"pool/zlib-1.3.tar.gz"}; !reflect.DeepEqual(fetcher.calls, want) {
		t.Errorf("fetch calls = %v, want %v", fetcher.calls, want)
	}

	// A second fetch is a no-op: the archive is cached.
	if err := u.Fetch(ctx); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("cached archive re-downloaded: %v", fetcher.calls)
	}

	if err := u.Unpack(ctx); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !u.IsPresent() {
		t.Error("unit not present after Unpack")
	}

	if err := u.Patch(ctx); err != nil {
		t.Fatalf("Patch (empty script): %v", err)
	}
	if err := u.Compile(ctx); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := u.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := u.Build(ctx); err != nil {
		t.Fatalf("Build (empty script): %v", err)
	}

	// The install script must have copied its artifact into the prefix.
	dest := env.Tree.VersionDir("zlib", "1.3-1")
	if _, err := os.Stat(filepath.Join(dest, "compiled.txt")); err != nil {
		t.Errorf("install artifact missing: %v", err)
	}

	if err := u.MarkInstalled(true); err != nil {
		t.Fatalf("MarkInstalled: %v", err)
	}
	if !u.IsInstalled() {
		t.Error("unit not installed after MarkInstalled")
	}
	if u.IsPresent() {
		t.Error("installed unit still reports present")
	}

	m, err := env.Tree.ReadManifest("zlib", "1.3-1")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Explicit {
		t.Error("manifest should record explicit install")
	}

	if err := u.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if v, ok := env.Tree.ActiveVersion("zlib"); !ok || v != "1.3-1" {
		t.Errorf("ActiveVersion = %q, %v after Activate", v, ok)
	}
	if err := u.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, ok := env.Tree.ActiveVersion("zlib"); ok {
		t.Error("unit still active after Deactivate")
	}
}

func TestPhaseFailureClassification(t *testing.T) {
	t.Parallel()

	repo := filepath.Join(t.TempDir(), "repo")
	writeRecipe(t, repo, "broken", `
name: "broken"
versions: [{version: "1.0-1", sources: [{url: "pool/broken-1.0.tar.gz", sha256: "`+strings.Repeat("2", 64)+`"}]}]
phases: {
	unpack:  "true"
	compile: "exit 7"
}
`)
	env := newTestEnv(t, &fakeFetcher{})

	c, err := Load([]string{repo}, env)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := c.ResolveByName("broken")
	u, err := p.Version("1.0-1")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := u.Unpack(ctx); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	err = u.Compile(ctx)
	if !errors.Is(err, ErrPhaseFailed) {
		t.Fatalf("Compile error = %v, want ErrPhaseFailed", err)
	}

	var pe *PhaseError
	if !errors.As(err, &pe) {
		t.Fatalf("Compile error %v is not a PhaseError", err)
	}
	if pe.Phase != "compile" || pe.Unit != "broken-1.0-1" {
		t.Errorf("PhaseError = %+v, want compile/broken-1.0-1", pe)
	}

	var exitErr *run.ExitStatusError
	if !errors.As(err, &exitErr) || exitErr.Code != 7 {
		t.Errorf("PhaseError should wrap the exit status, got %v", err)
	}
}

func TestFetchFailureAborts(t *testing.T) {
	t.Parallel()

	repo := filepath.Join(t.TempDir(), "repo")
	writeRecipe(t, repo, "zlib", zlibRecipe("zlib"))
	env := newTestEnv(t, &fakeFetcher{fail: true})

	c, err := Load([]string{repo}, env)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := c.ResolveByName("zlib")
	u, err := p.Version("1.3-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := u.Fetch(context.Background()); !errors.Is(err, ErrPhaseFailed) {
		t.Errorf("Fetch error = %v, want ErrPhaseFailed", err)
	}
}
