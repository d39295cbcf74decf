// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"

	"graft-cli/pkg/debver"
)

// Recipe describes one package: its versions, sources, dependencies, and
// build phase scripts.
type Recipe struct {
	// Name is the package name (also the recipe file basename).
	Name string `json:"name"`
	// Description provides a short summary for listings.
	Description string `json:"description,omitempty"`
	// Homepage is the upstream project page.
	Homepage string `json:"homepage,omitempty"`
	// Dependencies lists packages that must be installed before this one
	// is built, in declaration order.
	Dependencies []string `json:"dependencies,omitempty"`
	// Versions lists the buildable versions of the package.
	Versions []VersionEntry `json:"versions"`
	// Phases holds the build phase scripts.
	Phases Phases `json:"phases,omitempty"`

	// FilePath is where the recipe was loaded from. Set by Parse.
	FilePath string `json:"-"`
}

// VersionEntry is one buildable version with its source archives.
type VersionEntry struct {
	// Version is the full version string, [epoch:]upstream[-revision].
	Version string `json:"version"`
	// Sources lists the archives to fetch for this version.
	Sources []Source `json:"sources"`
}

// Source is one downloadable archive with its checksum.
type Source struct {
	// URL is the download location. Absolute URLs are fetched directly;
	// relative paths are resolved against each configured mirror in turn.
	URL string `json:"url"`
	// SHA256 is the hex-encoded checksum of the archive.
	SHA256 string `json:"sha256"`
}

// Phases holds the shell scripts run for each build phase. Empty scripts
// fall back to built-in behavior where one exists (unpack) or are skipped
// (patch, build).
type Phases struct {
	Unpack  string `json:"unpack,omitempty"`
	Patch   string `json:"patch,omitempty"`
	Compile string `json:"compile,omitempty"`
	Install string `json:"install,omitempty"`
	Build   string `json:"build,omitempty"`
}

// VersionStrings returns all declared version strings in declaration order.
func (r *Recipe) VersionStrings() []string {
	out := make([]string, len(r.Versions))
	for i, v := range r.Versions {
		out[i] = v.Version
	}
	return out
}

// Entry returns the version entry matching the given version string, or nil
// if the recipe does not declare it.
func (r *Recipe) Entry(version string) *VersionEntry {
	for i := range r.Versions {
		if r.Versions[i].Version == version {
			return &r.Versions[i]
		}
	}
	return nil
}

// validate applies the checks the CUE schema cannot express: version
// strings must parse and must be unique within the recipe.
func (r *Recipe) validate() error {
	seen := make(map[string]bool, len(r.Versions))
	for _, entry := range r.Versions {
		if _, err := debver.Parse(entry.Version); err != nil {
			return fmt.Errorf("recipe %s: version %q: %w", r.Name, entry.Version, err)
		}
		if seen[entry.Version] {
			return fmt.Errorf("recipe %s: duplicate version %q", r.Name, entry.Version)
		}
		seen[entry.Version] = true
	}
	return nil
}
