// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"graft-cli/internal/prefix"
	"graft-cli/internal/run"
	"graft-cli/pkg/recipe"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/maps"
)

// recipeExt is the filename extension of recipe files.
const recipeExt = ".graft"

type (
	// Fetcher downloads one source archive and verifies its checksum.
	// *fetch.Client is the production implementation.
	Fetcher interface {
		Download(ctx context.Context, rawURL, sha256hex, destPath string) error
	}

	// Env bundles the collaborators and locations every unit needs for its
	// phase operations.
	Env struct {
		// Tree is the installed tree.
		Tree *prefix.Tree
		// Fetcher downloads source archives.
		Fetcher Fetcher
		// Runner executes phase scripts.
		Runner run.Runner
		// CacheDir holds downloaded archives.
		CacheDir string
		// WorkDir holds per-unit build trees.
		WorkDir string
		// Jobs is exported to phase scripts as GRAFT_JOBS.
		Jobs int
		// Log receives phase progress. Nil defaults to a discarding logger.
		Log *log.Logger
	}

	// Catalog maps package names to their recipes.
	Catalog struct {
		packages map[string]*Package
		env      *Env
	}
)

// Load scans the repository directories for *.graft recipe files and builds
// a catalog. Directories are scanned in priority order; on a name collision
// the first recipe wins and the duplicate is logged and skipped. A missing
// repository directory is skipped with a warning.
func Load(repoDirs []string, env *Env) (*Catalog, error) {
	if env.Log == nil {
		env.Log = log.New(io.Discard)
	}

	c := &Catalog{
		packages: make(map[string]*Package),
		env:      env,
	}

	for _, dir := range repoDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				env.Log.Warn("repository directory missing, skipping", "dir", dir)
				continue
			}
			return nil, fmt.Errorf("failed to read repository %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), recipeExt) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			r, err := recipe.Parse(path)
			if err != nil {
				return nil, err
			}

			if base := strings.TrimSuffix(entry.Name(), recipeExt); base != r.Name {
				return nil, fmt.Errorf("recipe %s declares name %q, expected %q", path, r.Name, base)
			}

			if _, exists := c.packages[r.Name]; exists {
				env.Log.Warn("duplicate recipe shadowed by earlier repository", "package", r.Name, "path", path)
				continue
			}
			c.packages[r.Name] = &Package{recipe: r, env: env}
		}
	}

	return c, nil
}

// ResolveByName returns the package with the given name, if known.
func (c *Catalog) ResolveByName(name string) (*Package, bool) {
	p, ok := c.packages[name]
	return p, ok
}

// Names returns all known package names, sorted.
func (c *Catalog) Names() []string {
	names := maps.Keys(c.packages)
	sort.Strings(names)
	return names
}

// Env returns the shared unit environment.
func (c *Catalog) Env() *Env {
	return c.env
}
