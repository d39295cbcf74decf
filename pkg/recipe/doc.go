// SPDX-License-Identifier: MPL-2.0

// Package recipe defines graft's package description files. A repository
// directory holds one "<name>.graft" CUE file per package, declaring its
// buildable versions, source archives, dependencies, and phase scripts.
// Files are validated against an embedded CUE schema before use.
package recipe
