// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"graft-cli/internal/run"
)

// ErrPhaseFailed is the sentinel wrapped by every PhaseError.
var ErrPhaseFailed = errors.New("phase failed")

// defaultUnpackScript is used when a recipe declares no unpack script. It
// assumes the conventional single-directory tarball layout.
const defaultUnpackScript = `tar -xf "$GRAFT_ARCHIVE" --strip-components=1`

// PhaseError reports a failed phase operation on one unit. It wraps
// ErrPhaseFailed for errors.Is classification.
type PhaseError struct {
	Unit  string
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed for %s: %v", e.Phase, e.Unit, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Is reports ErrPhaseFailed in addition to the wrapped cause's chain.
func (e *PhaseError) Is(target error) bool { return target == ErrPhaseFailed }

// phaseErr wraps err as a PhaseError unless it is nil.
func (u *Unit) phaseErr(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Unit: u.String(), Phase: phase, Err: err}
}

// rebuildable returns an error when the unit's version is no longer
// declared by its recipe and therefore cannot go through build phases.
func (u *Unit) rebuildable(phase string) error {
	if u.entry == nil {
		return u.phaseErr(phase, fmt.Errorf("version %s is not declared by the recipe", u.version))
	}
	return nil
}

// Fetch downloads every source archive of the unit that is not already
// cached, verifying checksums.
func (u *Unit) Fetch(ctx context.Context) error {
	if err := u.rebuildable("fetch"); err != nil {
		return err
	}

	for _, src := range u.entry.Sources {
		dest := u.archivePath(src)
		if _, err := os.Stat(dest); err == nil {
			u.pkg.env.Log.Debug("archive already cached", "unit", u.String(), "archive", dest)
			continue
		}
		u.pkg.env.Log.Info("fetching", "unit", u.String(), "source", src.URL)
		if err := u.pkg.env.Fetcher.Download(ctx, src.URL, src.SHA256, dest); err != nil {
			return u.phaseErr("fetch", err)
		}
	}
	return nil
}

// Unpack extracts the unit's sources into a fresh work tree. A recipe may
// override the default tar extraction with its own unpack script.
func (u *Unit) Unpack(ctx context.Context) error {
	if err := u.rebuildable("unpack"); err != nil {
		return err
	}

	// A stale work tree from an aborted build is replaced wholesale.
	if err := os.RemoveAll(u.workDir()); err != nil {
		return u.phaseErr("unpack", err)
	}
	if err := os.MkdirAll(u.workDir(), 0o755); err != nil {
		return u.phaseErr("unpack", err)
	}

	script := u.pkg.recipe.Phases.Unpack
	if script == "" {
		script = defaultUnpackScript
	}
	return u.phaseErr("unpack", u.runScript(ctx, script))
}

// Patch applies the recipe's patch script, if any.
func (u *Unit) Patch(ctx context.Context) error {
	if err := u.rebuildable("patch"); err != nil {
		return err
	}
	return u.phaseErr("patch", u.runScript(ctx, u.pkg.recipe.Phases.Patch))
}

// Compile runs the recipe's compile script, if any.
func (u *Unit) Compile(ctx context.Context) error {
	if err := u.rebuildable("compile"); err != nil {
		return err
	}
	return u.phaseErr("compile", u.runScript(ctx, u.pkg.recipe.Phases.Compile))
}

// Install runs the recipe's install script into the unit's destination
// directory. The destination is created first so metapackages with no
// install script still materialize.
func (u *Unit) Install(ctx context.Context) error {
	if err := u.rebuildable("install"); err != nil {
		return err
	}
	if err := os.MkdirAll(u.destDir(), 0o755); err != nil {
		return u.phaseErr("install", err)
	}
	return u.phaseErr("install", u.runScript(ctx, u.pkg.recipe.Phases.Install))
}

// Build runs the recipe's post-install build script, if any.
func (u *Unit) Build(ctx context.Context) error {
	if err := u.rebuildable("build"); err != nil {
		return err
	}
	return u.phaseErr("build", u.runScript(ctx, u.pkg.recipe.Phases.Build))
}

// Activate points the package's active symlink at this version.
func (u *Unit) Activate() error {
	return u.phaseErr("activate", u.pkg.env.Tree.Activate(u.Name(), u.version))
}

// Deactivate removes the package's active symlink if this version holds it.
func (u *Unit) Deactivate() error {
	return u.phaseErr("deactivate", u.pkg.env.Tree.Deactivate(u.Name(), u.version))
}

// runScript executes one phase script in the unit's work tree with the
// GRAFT_* environment. Empty scripts are a no-op.
func (u *Unit) runScript(ctx context.Context, script string) error {
	if script == "" {
		return nil
	}
	return u.pkg.env.Runner.Run(ctx, script, run.Options{
		Dir: u.workDir(),
		Env: u.scriptEnv(),
	})
}
