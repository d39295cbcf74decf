// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"fmt"

	"graft-cli/pkg/debver"
	"graft-cli/pkg/recipe"
)

// Package is one named package: its recipe plus the installed-tree state.
type Package struct {
	recipe *recipe.Recipe
	env    *Env
}

// Name returns the package name.
func (p *Package) Name() string {
	return p.recipe.Name
}

// Description returns the recipe's summary line.
func (p *Package) Description() string {
	return p.recipe.Description
}

// Versions returns the versions the recipe declares, ascending.
func (p *Package) Versions() []string {
	sorted, err := debver.New().SortAscending(p.recipe.VersionStrings())
	if err != nil {
		// Recipe validation already parsed every version.
		return p.recipe.VersionStrings()
	}
	return sorted
}

// InstalledVersions returns the versions present in the installed tree.
func (p *Package) InstalledVersions() ([]string, error) {
	return p.env.Tree.InstalledVersions(p.recipe.Name)
}

// Version returns the unit for a specific version string. The version must
// be declared by the recipe or already installed (a recipe may drop an old
// version that is still on disk).
func (p *Package) Version(version string) (*Unit, error) {
	entry := p.recipe.Entry(version)
	if entry == nil && !p.env.Tree.IsInstalled(p.recipe.Name, version) {
		return nil, fmt.Errorf("package %s has no version %s", p.recipe.Name, version)
	}
	return &Unit{pkg: p, version: version, entry: entry}, nil
}
