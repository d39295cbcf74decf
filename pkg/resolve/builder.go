// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"io"

	"graft-cli/pkg/catalog"
	"graft-cli/pkg/debver"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnresolvedSpecifier means an explicitly requested name matches no
	// package in the catalog.
	ErrUnresolvedSpecifier = errors.New("no such package")

	// ErrNoVersionAvailable means a referenced package has neither an
	// installed nor an available version to resolve to.
	ErrNoVersionAvailable = errors.New("no version available")
)

// Builder grows a dependency graph from requested specifiers. A fresh
// comparator is created per builder, so the version-comparison cache is
// scoped to one resolution run.
type Builder struct {
	catalog  *catalog.Catalog
	versions *debver.Comparator
	log      *log.Logger
}

// NewBuilder returns a builder over the given catalog. A nil logger
// discards output.
func NewBuilder(c *catalog.Catalog, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{
		catalog:  c,
		versions: debver.New(),
		log:      logger,
	}
}

// Build resolves the request into a complete graph. Each explicit
// specifier becomes a node resolved to its newest available version;
// dependencies are expanded transitively, preferring installed versions.
// Explicit targets that are already satisfied are skipped, as is a second
// request for a name already given.
func (b *Builder) Build(req Request) (Graph, error) {
	graph := make(Graph)
	var worklist []string
	requested := make(map[string]bool)

	for _, name := range req.Specifiers {
		if requested[name] {
			b.log.Warn("package requested twice, ignoring duplicate", "package", name)
			continue
		}
		requested[name] = true

		pkg, ok := b.catalog.ResolveByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedSpecifier, name)
		}

		newest, err := b.versions.Latest(pkg.Versions())
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		unit, err := pkg.Version(newest)
		if err != nil {
			return nil, err
		}

		if req.Kind == KindBuild && unit.IsPresent() {
			b.log.Info("already built, skipping", "unit", unit.String())
			continue
		}
		if req.Kind != KindBuild && unit.IsInstalled() {
			b.log.Info("already installed, skipping", "unit", unit.String())
			continue
		}

		graph[name] = &Node{
			Name: name,
			Pkg:  pkg,
			Unit: unit,
			Status: NodeStatus{
				RequestedExplicitly: true,
				SuppressActivation:  req.Kind == KindBuild,
			},
		}
		worklist = append(worklist, name)
	}

	// Expansion is keyed by name: a node is resolved and expanded at most
	// once, so cyclic dependency declarations cannot loop here.
	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]
		node := graph[name]

		if node.Unit == nil {
			if err := b.resolve(node); err != nil {
				return nil, err
			}
		}

		if node.Unit.IsInstalled() {
			// Installed units are leaves: their own dependencies were
			// satisfied when they were built.
			node.Status.AlreadyInstalled = true
			continue
		}

		for _, dep := range node.Unit.DependencyNames() {
			child, ok := graph[dep]
			if !ok {
				child = &Node{Name: dep}
				graph[dep] = child
				worklist = append(worklist, dep)
			}
			node.addDep(child)
		}
	}

	return graph, nil
}

// resolve picks a version for a dependency node: the newest installed
// version if any, otherwise the newest available one.
func (b *Builder) resolve(node *Node) error {
	pkg, ok := b.catalog.ResolveByName(node.Name)
	if !ok {
		return fmt.Errorf("%w: %s is not in any repository", ErrNoVersionAvailable, node.Name)
	}

	installed, err := pkg.InstalledVersions()
	if err != nil {
		return fmt.Errorf("resolving %s: %w", node.Name, err)
	}

	candidates := installed
	if len(candidates) == 0 {
		candidates = pkg.Versions()
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s", ErrNoVersionAvailable, node.Name)
	}

	version, err := b.versions.Latest(candidates)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", node.Name, err)
	}

	unit, err := pkg.Version(version)
	if err != nil {
		return err
	}

	node.Pkg = pkg
	node.Unit = unit
	b.log.Debug("resolved dependency", "unit", unit.String(), "installed", len(installed) > 0)
	return nil
}
