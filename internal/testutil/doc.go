// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test fixtures: a temp-directory package
// environment with an in-memory fetcher and recipe writers.
package testutil
