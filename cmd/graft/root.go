// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"graft-cli/internal/config"
	"graft-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// assumeYes answers every confirmation prompt affirmatively
	assumeYes bool
	// runtimeMode overrides the configured phase-script shell
	runtimeMode string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "graft",
		Short: "A source and binary package manager",
		Long: TitleStyle.Render("graft") + SubtitleStyle.Render(" - A source and binary package manager") + `

graft installs packages into per-version directories under a common
prefix and switches between versions with an activation symlink farm.
Package recipes are written in CUE and declare source archives,
dependencies, and build-phase scripts.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Point a repository at a directory of *.graft recipes
  2. Run: graft install <package>
  3. Inspect what is installed with: graft list

` + SubtitleStyle.Render("Examples:") + `
  graft install curl        Install curl and its dependencies
  graft build curl          Build curl without activating it
  graft update-all          Update every installed package
  graft fetch-missing       Prefetch archives that are not cached
  graft config show         Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/graft/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "assume yes for all confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&runtimeMode, "runtime", "", "phase-script shell: native or virtual")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(updateAllCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(fetchAllCmd)
	rootCmd.AddCommand(fetchMissingCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig forwards the --config flag to the config loader before
// any command runs.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableError
// values render their suggestions; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
