// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"sort"

	"golang.org/x/exp/maps"

	"graft-cli/pkg/catalog"
)

// Kind selects the operation mode that parameterizes skip and activation
// behavior during resolution and scheduling.
type Kind int

const (
	// KindInstall installs the newest version of each requested package.
	KindInstall Kind = iota
	// KindBuild builds without activating, and skips targets that already
	// have an unpacked work tree.
	KindBuild
	// KindUpdate re-resolves installed packages to pick up newer versions.
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindInstall:
		return "install"
	case KindBuild:
		return "build"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Request is one top-level operation: a kind plus the package names the
// user asked for, in the order given.
type Request struct {
	Kind       Kind
	Specifiers []string
}

// NodeStatus tracks how a node entered the graph and how far the scheduler
// has taken it.
type NodeStatus struct {
	// RequestedExplicitly is set when the user named the package, as
	// opposed to it being pulled in as a dependency.
	RequestedExplicitly bool
	// AlreadyInstalled is set when the node's resolved version is in the
	// installed tree, either from a previous run or from this one.
	AlreadyInstalled bool
	// BuiltThisRun distinguishes nodes installed by this run from nodes
	// that were installed before it started.
	BuiltThisRun bool
	// SuppressActivation skips the deactivate/activate step after a
	// successful build.
	SuppressActivation bool
}

// Node is the resolution state of one package name. Nodes are created the
// first time a name is referenced and mutated in place as resolution and
// building proceed.
type Node struct {
	Name   string
	Pkg    *catalog.Package
	Unit   *catalog.Unit
	Status NodeStatus
	// Deps holds edges to this node's dependencies, in declaration order,
	// deduplicated by name.
	Deps []*Node
}

// addDep links a dependency edge unless one to the same name exists.
func (n *Node) addDep(dep *Node) {
	for _, d := range n.Deps {
		if d.Name == dep.Name {
			return
		}
	}
	n.Deps = append(n.Deps, dep)
}

// Graph maps package names to their resolution nodes. Once built, every
// dependency edge points at a node that is itself a key in the map.
type Graph map[string]*Node

// SortedNodes returns the graph's nodes ordered by name. Scheduling
// iterates in this order so runs are deterministic.
func (g Graph) SortedNodes() []*Node {
	names := maps.Keys(g)
	sort.Strings(names)

	nodes := make([]*Node, len(names))
	for i, name := range names {
		nodes[i] = g[name]
	}
	return nodes
}

// Additional returns the sorted names of packages pulled into the graph
// purely as dependencies: neither requested explicitly nor already
// installed.
func (g Graph) Additional() []string {
	var names []string
	for _, n := range g.SortedNodes() {
		if !n.Status.RequestedExplicitly && !n.Status.AlreadyInstalled {
			names = append(names, n.Name)
		}
	}
	return names
}
