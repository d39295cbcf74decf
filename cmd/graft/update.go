// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"graft-cli/pkg/resolve"
)

var updateCmd = &cobra.Command{
	Use:   "update <package>...",
	Short: "Update packages to their newest version",
	Long: `Re-resolve the named packages even when a version is already
installed, picking up newer recipe versions. Packages that are already at
the newest version are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.runOperation(cmd.Context(), resolve.KindUpdate, args); err != nil {
			return reportError(err)
		}
		return nil
	},
}

var updateAllCmd = &cobra.Command{
	Use:   "update-all",
	Short: "Update every installed package",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}

		installed, err := app.installedPackageNames()
		if err != nil {
			return reportError(err)
		}
		if len(installed) == 0 {
			app.Log.Info("no packages installed")
			return nil
		}

		if err := app.runOperation(cmd.Context(), resolve.KindUpdate, installed); err != nil {
			return reportError(err)
		}
		return nil
	},
}

// installedPackageNames returns every catalog package with at least one
// installed version, sorted.
func (a *App) installedPackageNames() ([]string, error) {
	var names []string
	for _, name := range a.Catalog.Names() {
		pkg, _ := a.Catalog.ResolveByName(name)
		versions, err := pkg.InstalledVersions()
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			names = append(names, name)
		}
	}
	return names, nil
}
