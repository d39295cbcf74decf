// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"graft-cli/internal/config"
	"graft-cli/internal/fetch"
	"graft-cli/internal/issue"
	"graft-cli/internal/prefix"
	"graft-cli/internal/run"
	"graft-cli/internal/tui"
	"graft-cli/pkg/catalog"
	"graft-cli/pkg/resolve"

	"github.com/charmbracelet/log"
)

// App bundles the loaded configuration with the collaborators every
// command needs: the recipe catalog, the installed tree, and a logger.
type App struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Log     *log.Logger
}

// newApp loads configuration, applies the global flag overrides, and
// scans the configured repositories.
func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if assumeYes {
		cfg.AssumeYes = true
	}
	if runtimeMode != "" {
		cfg.DefaultRuntime = config.RuntimeMode(runtimeMode)
		if err := cfg.DefaultRuntime.Validate(); err != nil {
			return nil, err
		}
	}
	if verbose {
		cfg.UI.Verbose = true
	}

	logger := newLogger(cfg.UI.Verbose)

	runner, err := run.ForMode(cfg.DefaultRuntime)
	if err != nil {
		return nil, err
	}

	env := &catalog.Env{
		Tree: prefix.New(cfg.Prefix),
		Fetcher: fetch.NewClient(cfg.Mirrors,
			fetch.WithUserAgent("graft/"+Version),
			fetch.WithLogger(logger)),
		Runner:   runner,
		CacheDir: cfg.CacheDir,
		WorkDir:  cfg.WorkDir,
		Jobs:     cfg.EffectiveJobs(),
		Log:      logger,
	}

	cat, err := catalog.Load(cfg.Repositories, env)
	if err != nil {
		return nil, err
	}

	return &App{Config: cfg, Catalog: cat, Log: logger}, nil
}

// newLogger builds the CLI logger. Verbose mode lowers the level to debug.
func newLogger(verboseMode bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verboseMode {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// runOperation resolves the specifiers into a graph and schedules it.
func (a *App) runOperation(ctx context.Context, kind resolve.Kind, specifiers []string) error {
	graph, err := resolve.NewBuilder(a.Catalog, a.Log).Build(resolve.Request{
		Kind:       kind,
		Specifiers: specifiers,
	})
	if err != nil {
		return decorateResolveError(err)
	}
	if len(graph) == 0 {
		a.Log.Info("nothing to do")
		return nil
	}

	confirmer := tui.NewConfirmer(tui.WithAssumeYes(a.Config.AssumeYes))
	scheduler := resolve.NewScheduler(confirmer.ConfirmAdditional, a.Log)
	if err := scheduler.Run(ctx, graph); err != nil {
		return decorateResolveError(err)
	}

	for _, n := range graph.SortedNodes() {
		if n.Status.BuiltThisRun {
			fmt.Println(SuccessStyle.Render("✓ ") + PkgStyle.Render(n.Unit.String()))
		}
	}
	return nil
}

// decorateResolveError attaches recovery suggestions to the errors a
// resolution run commonly surfaces.
func decorateResolveError(err error) error {
	switch {
	case errors.Is(err, resolve.ErrUnresolvedSpecifier):
		return issue.NewErrorContext().
			WithOperation("resolving requested packages").
			WithSuggestion("run 'graft list' to see the packages your repositories provide").
			WithSuggestion("check the 'repositories' entry with 'graft config show'").
			Wrap(err).
			BuildError()
	case errors.Is(err, resolve.ErrNoVersionAvailable):
		return issue.NewErrorContext().
			WithOperation("resolving dependencies").
			WithSuggestion("a recipe names a dependency no repository provides; add its recipe or fix the name").
			Wrap(err).
			BuildError()
	case errors.Is(err, resolve.ErrCyclicDependency):
		return issue.NewErrorContext().
			WithOperation("scheduling builds").
			WithSuggestion("break the cycle by removing one of the dependency declarations").
			Wrap(err).
			BuildError()
	case errors.Is(err, fetch.ErrChecksumMismatch):
		return issue.NewErrorContext().
			WithOperation("fetching source archives").
			WithSuggestion("the recipe's sha256 may be stale; verify it against the upstream archive").
			WithSuggestion("a mirror may be corrupt; try a different 'mirrors' entry").
			Wrap(err).
			BuildError()
	default:
		return err
	}
}

// reportError prints err for the user and converts it into a silent
// non-zero exit.
func reportError(err error) error {
	if errors.Is(err, resolve.ErrUserAbort) {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Aborted."))
		return &ExitError{Code: 1}
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
	return &ExitError{Code: 1}
}
