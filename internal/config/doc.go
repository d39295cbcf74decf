// SPDX-License-Identifier: MPL-2.0

// Package config loads graft's process-wide configuration: prefix and cache
// locations, recipe repositories, download mirrors, and execution defaults.
// Configuration lives in $XDG_CONFIG_HOME/graft/config.cue, validated
// against an embedded CUE schema and merged through Viper so environment
// variables and flags can override file values.
package config
