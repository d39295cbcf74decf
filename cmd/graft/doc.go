// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for graft.
//
// This package implements the Cobra command hierarchy for the graft CLI:
// the root command, the install/build/update operations, the fetch-only
// commands, and the configuration and listing utilities.
package cmd
