// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"graft-cli/pkg/resolve"
)

var installCmd = &cobra.Command{
	Use:   "install <package>...",
	Short: "Install packages and their dependencies",
	Long: `Install the newest version of each named package, plus every
dependency that is not yet installed. After a successful build the new
version becomes the package's active one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.runOperation(cmd.Context(), resolve.KindInstall, args); err != nil {
			return reportError(err)
		}
		return nil
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <package>...",
	Short: "Build packages without activating them",
	Long: `Build the newest version of each named package but leave the
currently active version in place. Targets that already have an unpacked
work tree are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.runOperation(cmd.Context(), resolve.KindBuild, args); err != nil {
			return reportError(err)
		}
		return nil
	},
}
