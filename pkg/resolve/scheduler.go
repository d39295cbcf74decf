// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"graft-cli/internal/dag"

	"github.com/charmbracelet/log"
)

// ErrUserAbort means the user declined the additional-package confirmation.
var ErrUserAbort = errors.New("aborted by user")

// ErrCyclicDependency is the sentinel wrapped by CyclicDependencyError.
var ErrCyclicDependency = errors.New("cyclic dependency")

// CyclicDependencyError reports that a build scan made no progress because
// the remaining packages depend on each other.
type CyclicDependencyError struct {
	// Cycle names the packages involved, sorted.
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency among packages: %s", strings.Join(e.Cycle, ", "))
}

// Is reports ErrCyclicDependency for errors.Is classification.
func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// ConfirmFunc asks the user to approve installing the named additional
// packages. Returning false aborts the operation.
type ConfirmFunc func(names []string) (bool, error)

// Scheduler consumes a completed graph: it confirms pulled-in packages,
// fetches missing archives, and builds every unit in dependency order.
type Scheduler struct {
	confirm ConfirmFunc
	log     *log.Logger
}

// NewScheduler returns a scheduler. A nil confirm approves everything; a
// nil logger discards output.
func NewScheduler(confirm ConfirmFunc, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{confirm: confirm, log: logger}
}

// Run drives the graph to completion. Any failure aborts the whole
// operation immediately; units already installed by earlier scans stay
// installed.
func (s *Scheduler) Run(ctx context.Context, graph Graph) error {
	if err := s.confirmAdditional(graph); err != nil {
		return err
	}
	if err := s.fetchMissing(ctx, graph); err != nil {
		return err
	}
	return s.buildAll(ctx, graph)
}

// confirmAdditional presents the packages pulled in as dependencies and
// aborts with ErrUserAbort if the user declines.
func (s *Scheduler) confirmAdditional(graph Graph) error {
	additional := graph.Additional()
	if len(additional) == 0 || s.confirm == nil {
		return nil
	}

	ok, err := s.confirm(additional)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserAbort
	}
	return nil
}

// fetchMissing downloads the archives of every unit that will be built.
func (s *Scheduler) fetchMissing(ctx context.Context, graph Graph) error {
	for _, n := range graph.SortedNodes() {
		if n.Status.AlreadyInstalled || n.Unit.IsFetched() {
			continue
		}
		if err := n.Unit.Fetch(ctx); err != nil {
			return err
		}
	}
	return nil
}

// buildAll repeatedly scans the graph, building every node whose
// dependencies are all installed, until no node remains. A scan that
// installs nothing while nodes remain means the leftovers form a
// dependency cycle.
func (s *Scheduler) buildAll(ctx context.Context, graph Graph) error {
	for {
		remaining, built := 0, 0

		for _, n := range graph.SortedNodes() {
			if n.Status.AlreadyInstalled {
				continue
			}
			if !depsInstalled(n) {
				remaining++
				continue
			}
			if err := s.buildNode(ctx, n); err != nil {
				return err
			}
			built++
		}

		if remaining == 0 {
			return nil
		}
		if built == 0 {
			return s.diagnoseStall(graph)
		}
	}
}

// depsInstalled reports whether every dependency edge of n points at an
// installed node.
func depsInstalled(n *Node) bool {
	for _, dep := range n.Deps {
		if !dep.Status.AlreadyInstalled {
			return false
		}
	}
	return true
}

// buildNode runs the build phases for one unit and, unless activation is
// suppressed, switches the package's active version to it.
func (s *Scheduler) buildNode(ctx context.Context, n *Node) error {
	s.log.Info("building", "unit", n.Unit.String())

	phases := []func(context.Context) error{
		n.Unit.Unpack,
		n.Unit.Patch,
		n.Unit.Compile,
		n.Unit.Install,
		n.Unit.Build,
	}
	for _, phase := range phases {
		if err := phase(ctx); err != nil {
			return err
		}
	}

	// Other installed versions must be read before this one is recorded.
	others, err := n.Pkg.InstalledVersions()
	if err != nil {
		return err
	}
	if err := n.Unit.MarkInstalled(n.Status.RequestedExplicitly); err != nil {
		return err
	}

	if !n.Status.SuppressActivation {
		for _, v := range others {
			if v == n.Unit.FullVersionString() {
				continue
			}
			old, err := n.Pkg.Version(v)
			if err != nil {
				return err
			}
			if err := old.Deactivate(); err != nil {
				return err
			}
		}
		if err := n.Unit.Activate(); err != nil {
			return err
		}
	}

	n.Status.AlreadyInstalled = true
	n.Status.BuiltThisRun = true
	return nil
}

// diagnoseStall names the cycle that blocked the build pass by running a
// topological sort over the remaining nodes.
func (s *Scheduler) diagnoseStall(graph Graph) error {
	g := dag.New()
	for _, n := range graph.SortedNodes() {
		if n.Status.AlreadyInstalled {
			continue
		}
		g.AddNode(n.Name)
		for _, dep := range n.Deps {
			if !dep.Status.AlreadyInstalled {
				g.AddEdge(dep.Name, n.Name)
			}
		}
	}

	if _, err := g.TopologicalSort(); err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) {
			return &CyclicDependencyError{Cycle: ce.Cycle}
		}
		return err
	}

	// Unreachable for a stalled scan, kept as a safety net.
	return fmt.Errorf("%w: build pass stalled", ErrCyclicDependency)
}
