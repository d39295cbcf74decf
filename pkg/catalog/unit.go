// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"graft-cli/internal/prefix"
	"graft-cli/pkg/recipe"
)

// Unit is a specific buildable/installable version of a package.
type Unit struct {
	pkg     *Package
	version string
	// entry is nil for versions that are installed but no longer declared
	// by the recipe; such units can be inspected and deactivated but not
	// rebuilt.
	entry *recipe.VersionEntry
}

// Name returns the package name.
func (u *Unit) Name() string {
	return u.pkg.recipe.Name
}

// FullVersionString returns the unit's version in [epoch:]upstream-revision
// form, exactly as declared.
func (u *Unit) FullVersionString() string {
	return u.version
}

// String identifies the unit in logs and messages.
func (u *Unit) String() string {
	return u.pkg.recipe.Name + "-" + u.version
}

// DependencyNames returns the names of the packages this unit depends on,
// in declaration order.
func (u *Unit) DependencyNames() []string {
	return u.pkg.recipe.Dependencies
}

// IsInstalled reports whether this version is in the installed tree.
func (u *Unit) IsInstalled() bool {
	return u.pkg.env.Tree.IsInstalled(u.Name(), u.version)
}

// IsPresent reports whether the unit has an unpacked work tree but is not
// installed.
func (u *Unit) IsPresent() bool {
	if u.IsInstalled() {
		return false
	}
	info, err := os.Stat(u.workDir())
	return err == nil && info.IsDir()
}

// IsFetched reports whether every source archive of the unit is in the
// cache. Checksums are verified at fetch time, not here.
func (u *Unit) IsFetched() bool {
	if u.entry == nil {
		return false
	}
	for _, src := range u.entry.Sources {
		if _, err := os.Stat(u.archivePath(src)); err != nil {
			return false
		}
	}
	return true
}

// MarkInstalled records the unit in the installed tree by writing its
// manifest. explicit notes whether the user asked for the package by name.
func (u *Unit) MarkInstalled(explicit bool) error {
	return u.pkg.env.Tree.WriteManifest(prefix.Manifest{
		Name:     u.Name(),
		Version:  u.version,
		BuiltAt:  time.Now().UTC(),
		Explicit: explicit,
	})
}

// workDir returns the unit's build tree location.
func (u *Unit) workDir() string {
	return filepath.Join(u.pkg.env.WorkDir, u.Name()+"-"+u.version)
}

// destDir returns the unit's install destination in the prefix.
func (u *Unit) destDir() string {
	return u.pkg.env.Tree.VersionDir(u.Name(), u.version)
}

// archivePath returns the cache location of one source archive.
func (u *Unit) archivePath(src recipe.Source) string {
	return filepath.Join(u.pkg.env.CacheDir, filepath.Base(src.URL))
}

// scriptEnv builds the GRAFT_* environment exported to phase scripts.
func (u *Unit) scriptEnv() map[string]string {
	env := map[string]string{
		"GRAFT_NAME":    u.Name(),
		"GRAFT_VERSION": u.version,
		"GRAFT_PREFIX":  u.pkg.env.Tree.Root(),
		"GRAFT_DEST":    u.destDir(),
		"GRAFT_WORK":    u.workDir(),
		"GRAFT_JOBS":    strconv.Itoa(u.pkg.env.Jobs),
	}
	if u.entry != nil && len(u.entry.Sources) > 0 {
		env["GRAFT_ARCHIVE"] = u.archivePath(u.entry.Sources[0])
	}
	return env
}
