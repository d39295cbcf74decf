// SPDX-License-Identifier: MPL-2.0

// Package catalog resolves package names to recipes and concrete units, and
// implements the per-unit phase operations (fetch, unpack, patch, compile,
// install, build, activate, deactivate) the installation scheduler drives.
// The resolution core only decides what happens and in what order; every
// side effect lives here.
package catalog
