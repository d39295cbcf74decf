// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"graft-cli/internal/testutil"
	"graft-cli/pkg/catalog"
)

// confirmRecorder captures the additional set presented to the user and
// answers with a fixed verdict.
type confirmRecorder struct {
	asked  bool
	names  []string
	answer bool
}

func (c *confirmRecorder) confirm(names []string) (bool, error) {
	c.asked = true
	c.names = names
	return c.answer, nil
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "beta", nil)

	// An outdated alpha is installed and active; the run must supersede it.
	f.AddPackage(t, "alpha", []string{"beta"}, "0.9-1", "1.0-1")
	f.MarkInstalled(t, "alpha", "0.9-1", true)
	if err := f.Env.Tree.Activate("alpha", "0.9-1"); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindInstall, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec := &confirmRecorder{answer: true}
	s := NewScheduler(rec.confirm, nil)
	if err := s.Run(context.Background(), graph); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !rec.asked || !reflect.DeepEqual(rec.names, []string{"beta"}) {
		t.Errorf("confirmed additional set %v (asked=%v), want [beta]", rec.names, rec.asked)
	}

	wantFetches := []string{"pool/alpha-1.0-1.tar.gz", "pool/beta-1.0-1.tar.gz"}
	if !reflect.DeepEqual(f.Fetcher.Calls, wantFetches) {
		t.Errorf("fetch calls = %v, want %v", f.Fetcher.Calls, wantFetches)
	}

	if order := f.BuildOrder(t); !reflect.DeepEqual(order, []string{"beta", "alpha"}) {
		t.Errorf("build order = %v, want [beta alpha]", order)
	}

	for _, n := range graph.SortedNodes() {
		if !n.Status.AlreadyInstalled || !n.Status.BuiltThisRun {
			t.Errorf("node %s not fully installed: %+v", n.Name, n.Status)
		}
		if !n.Unit.IsInstalled() {
			t.Errorf("unit %s missing its manifest", n.Unit)
		}
	}

	// The new alpha took over the active symlink from the old version.
	if v, ok := f.Env.Tree.ActiveVersion("alpha"); !ok || v != "1.0-1" {
		t.Errorf("alpha active version = %q, %v, want 1.0-1", v, ok)
	}
	if v, ok := f.Env.Tree.ActiveVersion("beta"); !ok || v != "1.0-1" {
		t.Errorf("beta active version = %q, %v, want 1.0-1", v, ok)
	}
}

func TestRunUserAbort(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "alpha", []string{"beta"})
	f.AddPackage(t, "beta", nil)

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindInstall, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := NewScheduler((&confirmRecorder{answer: false}).confirm, nil)
	if err := s.Run(context.Background(), graph); !errors.Is(err, ErrUserAbort) {
		t.Fatalf("Run error = %v, want ErrUserAbort", err)
	}

	if len(f.Fetcher.Calls) != 0 {
		t.Errorf("aborted run still fetched %v", f.Fetcher.Calls)
	}
	if graph["alpha"].Unit.IsInstalled() || graph["beta"].Unit.IsInstalled() {
		t.Error("aborted run still installed units")
	}
}

func TestRunSkipsConfirmationWithoutAdditional(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "alpha", nil)

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindInstall, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec := &confirmRecorder{answer: false} // would abort if asked
	s := NewScheduler(rec.confirm, nil)
	if err := s.Run(context.Background(), graph); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.asked {
		t.Error("confirmation prompted with no additional packages")
	}
}

func TestRunSuppressedActivation(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "alpha", nil)

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindBuild, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := NewScheduler(nil, nil)
	if err := s.Run(context.Background(), graph); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !graph["alpha"].Unit.IsInstalled() {
		t.Error("build kind should still install the unit")
	}
	if v, ok := f.Env.Tree.ActiveVersion("alpha"); ok {
		t.Errorf("build kind activated version %s", v)
	}
}

func TestRunConvergence(t *testing.T) {
	t.Parallel()

	// Diamond: alpha -> {beta, gamma} -> delta.
	f := testutil.NewFixture(t)
	f.AddPackage(t, "alpha", []string{"beta", "gamma"})
	f.AddPackage(t, "beta", []string{"delta"})
	f.AddPackage(t, "gamma", []string{"delta"})
	f.AddPackage(t, "delta", nil)

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindInstall, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := NewScheduler(nil, nil)
	if err := s.Run(context.Background(), graph); err != nil {
		t.Fatalf("Run: %v", err)
	}

	order := f.BuildOrder(t)
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}
	for _, n := range graph.SortedNodes() {
		if !n.Status.AlreadyInstalled {
			t.Errorf("node %s not installed after convergence", n.Name)
		}
		for _, dep := range n.Deps {
			if position[dep.Name] > position[n.Name] {
				t.Errorf("%s built before its dependency %s: order %v", n.Name, dep.Name, order)
			}
		}
	}
}

func TestRunCycleStalls(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "alpha", []string{"beta"})
	f.AddPackage(t, "beta", []string{"alpha"})

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindInstall, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := NewScheduler(nil, nil)
	err = s.Run(context.Background(), graph)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("Run error = %v, want ErrCyclicDependency", err)
	}

	var ce *CyclicDependencyError
	if !errors.As(err, &ce) {
		t.Fatalf("Run error %v is not a CyclicDependencyError", err)
	}
	if want := []string{"alpha", "beta"}; !reflect.DeepEqual(ce.Cycle, want) {
		t.Errorf("cycle members = %v, want %v", ce.Cycle, want)
	}
}

func TestRunPhaseFailureAborts(t *testing.T) {
	t.Parallel()

	f := testutil.NewFixture(t)
	f.AddPackage(t, "alpha", []string{"beta"})
	f.WriteRecipe(t, "beta", `
name: "beta"
versions: [{version: "1.0-1", sources: [{url: "pool/beta-1.0-1.tar.gz", sha256: "0000000000000000000000000000000000000000000000000000000000000000"}]}]
phases: {
	unpack:  "true"
	compile: "exit 1"
}
`)

	b := NewBuilder(f.Load(t), nil)
	graph, err := b.Build(Request{Kind: KindInstall, Specifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := NewScheduler(nil, nil)
	err = s.Run(context.Background(), graph)
	if !errors.Is(err, catalog.ErrPhaseFailed) {
		t.Fatalf("Run error = %v, want phase failure", err)
	}

	if graph["beta"].Unit.IsInstalled() {
		t.Error("failed unit marked installed")
	}
	if graph["alpha"].Unit.IsInstalled() {
		t.Error("dependent of failed unit was built anyway")
	}
}
