// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"graft-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage graft configuration",
	Long: `Manage graft configuration.

Configuration is read from $XDG_CONFIG_HOME/graft/config.cue (or the file
given with --config), with GRAFT_* environment variables layered on top.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return reportError(err)
			}
			printConfig(cfg)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return reportError(err)
			}
			fmt.Println(filepath.Join(dir, "config.cue"))
			return nil
		},
	})
}

// printConfig renders the effective configuration as aligned key/value
// lines.
func printConfig(cfg *config.Config) {
	rows := []struct {
		key   string
		value string
	}{
		{"prefix", cfg.Prefix},
		{"repositories", strings.Join(cfg.Repositories, ", ")},
		{"mirrors", strings.Join(cfg.Mirrors, ", ")},
		{"cache_dir", cfg.CacheDir},
		{"work_dir", cfg.WorkDir},
		{"jobs", fmt.Sprintf("%d (effective %d)", cfg.Jobs, cfg.EffectiveJobs())},
		{"default_runtime", string(cfg.DefaultRuntime)},
		{"assume_yes", fmt.Sprintf("%t", cfg.AssumeYes)},
		{"ui.verbose", fmt.Sprintf("%t", cfg.UI.Verbose)},
	}

	fmt.Println(TitleStyle.Render("Current configuration:"))
	for _, row := range rows {
		fmt.Printf("  %s %s\n", SubtitleStyle.Render(fmt.Sprintf("%-16s", row.key)), row.value)
	}
}
