// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"graft-cli/pkg/catalog"
	"graft-cli/pkg/debver"
	"graft-cli/pkg/resolve"
)

// The fetch commands bypass resolution and scheduling entirely: they only
// invoke the fetch phase on the selected units.

var fetchCmd = &cobra.Command{
	Use:   "fetch <package>...",
	Short: "Download source archives for packages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.fetchPackages(cmd.Context(), args, false); err != nil {
			return reportError(err)
		}
		return nil
	},
}

var fetchAllCmd = &cobra.Command{
	Use:   "fetch-all",
	Short: "Download source archives for every known package",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.fetchPackages(cmd.Context(), app.Catalog.Names(), false); err != nil {
			return reportError(err)
		}
		return nil
	},
}

var fetchMissingCmd = &cobra.Command{
	Use:   "fetch-missing",
	Short: "Download archives that are neither cached nor installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.fetchPackages(cmd.Context(), app.Catalog.Names(), true); err != nil {
			return reportError(err)
		}
		return nil
	},
}

// fetchPackages downloads the newest unit of each named package. With
// missingOnly set, units that are already fetched or installed are
// skipped.
func (a *App) fetchPackages(ctx context.Context, names []string, missingOnly bool) error {
	versions := debver.New()

	for _, name := range names {
		unit, err := a.newestUnit(versions, name)
		if err != nil {
			return decorateResolveError(err)
		}
		if missingOnly && (unit.IsFetched() || unit.IsInstalled()) {
			continue
		}
		if err := unit.Fetch(ctx); err != nil {
			return decorateResolveError(err)
		}
	}
	return nil
}

// newestUnit resolves a package name to its newest available unit.
func (a *App) newestUnit(versions *debver.Comparator, name string) (*catalog.Unit, error) {
	pkg, ok := a.Catalog.ResolveByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", resolve.ErrUnresolvedSpecifier, name)
	}
	newest, err := versions.Latest(pkg.Versions())
	if err != nil {
		return nil, err
	}
	return pkg.Version(newest)
}
