// SPDX-License-Identifier: MPL-2.0

// Package resolve turns requested package specifiers into a dependency
// graph and drives each resolved unit through its build phases.
//
// Resolution runs in two stages. A Builder grows a Graph by repeated
// catalog lookups, picking a version for every referenced package and
// linking dependency edges. A Scheduler then consumes the graph: it
// confirms pulled-in packages with the user, fetches missing archives,
// and builds units in repeated scans until every node is installed.
// Both structures live for a single command invocation.
package resolve
