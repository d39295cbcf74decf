// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known packages and their installed versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return reportError(err)
		}
		if err := app.listPackages(); err != nil {
			return reportError(err)
		}
		return nil
	},
}

// listPackages prints one line per package: name, available versions, and
// installed/active markers.
func (a *App) listPackages() error {
	names := a.Catalog.Names()
	if len(names) == 0 {
		a.Log.Warn("no recipes found in the configured repositories")
		return nil
	}

	tree := a.Catalog.Env().Tree
	for _, name := range names {
		pkg, _ := a.Catalog.ResolveByName(name)
		installed, err := pkg.InstalledVersions()
		if err != nil {
			return err
		}
		active, hasActive := tree.ActiveVersion(name)

		installedSet := make(map[string]bool, len(installed))
		for _, v := range installed {
			installedSet[v] = true
		}

		var marks []string
		for _, v := range pkg.Versions() {
			marks = append(marks, versionMark(v, installedSet[v], hasActive && v == active))
		}
		// Installed versions the recipe no longer declares still exist on
		// disk and are worth showing.
		for _, v := range installed {
			if !containsVersion(pkg.Versions(), v) {
				marks = append(marks, versionMark(v, true, hasActive && v == active))
			}
		}

		line := PkgStyle.Render(name) + "  " + strings.Join(marks, " ")
		if desc := pkg.Description(); desc != "" {
			line += "  " + SubtitleStyle.Render(desc)
		}
		fmt.Println(line)
	}
	return nil
}

// versionMark renders one version with its installed/active state.
func versionMark(version string, installed, active bool) string {
	switch {
	case active:
		return SuccessStyle.Render(version + "*")
	case installed:
		return SuccessStyle.Render(version)
	default:
		return version
	}
}

func containsVersion(versions []string, v string) bool {
	for _, candidate := range versions {
		if candidate == v {
			return true
		}
	}
	return false
}
