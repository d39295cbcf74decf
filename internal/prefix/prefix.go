// SPDX-License-Identifier: MPL-2.0

// Package prefix manages the installed tree. Every installed unit lives in
// its own directory under <prefix>/packages/<name>/<version>/, marked by a
// TOML manifest written at install time. At most one version per package is
// active: <prefix>/active/<name> is a symlink into that version's
// directory.
package prefix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// manifestFile marks a version directory as fully installed. The install
// phase populates the directory first; the manifest is written last.
const manifestFile = ".graft-manifest.toml"

type (
	// Tree is an installed-tree rooted at a prefix directory.
	Tree struct {
		root string
	}

	// Manifest records how a unit came to be installed.
	Manifest struct {
		// Name is the package name.
		Name string `toml:"name"`
		// Version is the full version string.
		Version string `toml:"version"`
		// BuiltAt is when the install phase completed.
		BuiltAt time.Time `toml:"built_at"`
		// Explicit is true when the user requested the package by name,
		// false when it was pulled in as a dependency.
		Explicit bool `toml:"explicit"`
	}
)

// New creates a Tree rooted at the given prefix directory.
func New(root string) *Tree {
	return &Tree{root: root}
}

// Root returns the prefix directory.
func (t *Tree) Root() string {
	return t.root
}

// VersionDir returns the install directory for one unit.
func (t *Tree) VersionDir(name, version string) string {
	return filepath.Join(t.root, "packages", name, version)
}

// packageDir returns the directory holding all versions of a package.
func (t *Tree) packageDir(name string) string {
	return filepath.Join(t.root, "packages", name)
}

// activeLink returns the symlink path selecting a package's active version.
func (t *Tree) activeLink(name string) string {
	return filepath.Join(t.root, "active", name)
}

// IsInstalled reports whether the unit's version directory carries a
// manifest.
func (t *Tree) IsInstalled(name, version string) bool {
	_, err := os.Stat(filepath.Join(t.VersionDir(name, version), manifestFile))
	return err == nil
}

// InstalledVersions returns every version of the package with a manifest,
// sorted lexically (callers order them semantically via debver).
func (t *Tree) InstalledVersions(name string) ([]string, error) {
	entries, err := os.ReadDir(t.packageDir(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read package directory for %s: %w", name, err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() && t.IsInstalled(name, entry.Name()) {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// WriteManifest marks a unit as installed. The version directory is created
// if the install phase left nothing behind (metapackages).
func (t *Tree) WriteManifest(m Manifest) error {
	dir := t.VersionDir(m.Name, m.Version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest of an installed unit.
func (t *Tree) ReadManifest(name, version string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(t.VersionDir(name, version), manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest for %s %s: %w", name, version, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest for %s %s: %w", name, version, err)
	}
	return &m, nil
}

// Activate points the package's active symlink at the given version,
// replacing any previous target.
func (t *Tree) Activate(name, version string) error {
	if !t.IsInstalled(name, version) {
		return fmt.Errorf("cannot activate %s %s: not installed", name, version)
	}

	linkDir := filepath.Join(t.root, "active")
	if err := os.MkdirAll(linkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create active directory: %w", err)
	}

	link := t.activeLink(name)
	target := filepath.Join("..", "packages", name, version)

	// Replace atomically-enough: remove then relink.
	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove previous active link for %s: %w", name, err)
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("failed to activate %s %s: %w", name, version, err)
	}
	return nil
}

// Deactivate removes the package's active symlink if it currently points at
// the given version. Deactivating a version that is not active is a no-op.
func (t *Tree) Deactivate(name, version string) error {
	active, ok := t.ActiveVersion(name)
	if !ok || active != version {
		return nil
	}
	if err := os.Remove(t.activeLink(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to deactivate %s %s: %w", name, version, err)
	}
	return nil
}

// ActiveVersion returns the currently activated version of the package.
func (t *Tree) ActiveVersion(name string) (string, bool) {
	target, err := os.Readlink(t.activeLink(name))
	if err != nil {
		return "", false
	}
	return filepath.Base(target), true
}
