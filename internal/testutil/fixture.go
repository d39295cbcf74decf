// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"graft-cli/internal/prefix"
	"graft-cli/internal/run"
	"graft-cli/pkg/catalog"
)

// RecordingFetcher satisfies catalog.Fetcher without any network. It
// records every requested URL in order and writes a marker file at the
// destination, or fails with Err when set.
type RecordingFetcher struct {
	Calls []string
	Err   error
}

func (f *RecordingFetcher) Download(_ context.Context, rawURL, _ string, destPath string) error {
	f.Calls = append(f.Calls, rawURL)
	if f.Err != nil {
		return f.Err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte("archive"), 0o644)
}

// Fixture is a complete package environment rooted in a temp directory:
// one repository directory, a prefix tree, cache and work dirs, the
// virtual script runner, and a recording fetcher.
type Fixture struct {
	RepoDir string
	Env     *catalog.Env
	Fetcher *RecordingFetcher
}

// NewFixture builds a fixture under t.TempDir.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	root := t.TempDir()
	repoDir := filepath.Join(root, "repo")
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		t.Fatal(err)
	}

	fetcher := &RecordingFetcher{}
	return &Fixture{
		RepoDir: repoDir,
		Fetcher: fetcher,
		Env: &catalog.Env{
			Tree:     prefix.New(filepath.Join(root, "prefix")),
			Fetcher:  fetcher,
			Runner:   run.NewVirtualRunner(),
			CacheDir: filepath.Join(root, "cache"),
			WorkDir:  filepath.Join(root, "work"),
			Jobs:     1,
		},
	}
}

// WriteRecipe drops a raw recipe body into the fixture's repository.
func (f *Fixture) WriteRecipe(t *testing.T, name, body string) {
	t.Helper()

	path := filepath.Join(f.RepoDir, name+".graft")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// AddPackage writes a minimal recipe whose compile script appends the
// package name to order.log in the fixture root, so tests can assert build
// order. Versions default to a single "1.0-1".
func (f *Fixture) AddPackage(t *testing.T, name string, deps []string, versions ...string) {
	t.Helper()

	if len(versions) == 0 {
		versions = []string{"1.0-1"}
	}

	var entries []string
	for _, v := range versions {
		entries = append(entries, fmt.Sprintf(
			`{version: %q, sources: [{url: "pool/%s-%s.tar.gz", sha256: %q}]}`,
			v, name, v, strings.Repeat("0", 64)))
	}
	var depList []string
	for _, d := range deps {
		depList = append(depList, fmt.Sprintf("%q", d))
	}
	compile := fmt.Sprintf(`echo "$GRAFT_NAME" >> %s`, f.OrderLog())

	f.WriteRecipe(t, name, fmt.Sprintf(`
name: %q
dependencies: [%s]
versions: [%s]
phases: {
	unpack:  "true"
	compile: %q
}
`, name, strings.Join(depList, ", "), strings.Join(entries, ", "), compile))
}

// OrderLog is the file AddPackage compile scripts append to.
func (f *Fixture) OrderLog() string {
	return filepath.Join(filepath.Dir(f.RepoDir), "order.log")
}

// BuildOrder returns the package names logged by AddPackage compile
// scripts, in execution order.
func (f *Fixture) BuildOrder(t *testing.T) []string {
	t.Helper()

	data, err := os.ReadFile(f.OrderLog())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Fields(string(data))
}

// Load parses the fixture's repository into a catalog.
func (f *Fixture) Load(t *testing.T) *catalog.Catalog {
	t.Helper()

	c, err := catalog.Load([]string{f.RepoDir}, f.Env)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// MarkInstalled records a version in the prefix tree without building it.
func (f *Fixture) MarkInstalled(t *testing.T, name, version string, explicit bool) {
	t.Helper()

	err := f.Env.Tree.WriteManifest(prefix.Manifest{
		Name:     name,
		Version:  version,
		BuiltAt:  time.Now().UTC(),
		Explicit: explicit,
	})
	if err != nil {
		t.Fatal(err)
	}
}
