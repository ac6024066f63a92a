package closure

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/depsplit/depsplit/modpath"
	"golang.org/x/mod/modfile"
)

// RootResolver maps a third-party import path (plus its resolved
// directory, if known) to the "third-party root" spec.md's closure talks
// about — the module that actually declares the dependency, as opposed to
// whichever deep sub-package happened to be imported.
type RootResolver func(importPath modpath.Name, dir string) modpath.Name

// DefaultRootResolver finds the nearest enclosing go.mod above dir and
// returns its declared module path. This is the real answer (a module's
// root is authoritative, declared data, not a guess) and costs one small
// directory walk per distinct third-party package — cheap relative to the
// parse work already done to reach it. When dir is empty (the package could
// not be resolved on disk, e.g. a synthetic/test fixture import path) or no
// go.mod is found before hitting the filesystem root, it falls back to the
// conventional "host/org/repo" prefix heuristic most hosted Go modules
// follow.
func DefaultRootResolver(importPath modpath.Name, dir string) modpath.Name {
	if dir != "" {
		if mp, ok := moduleRootFromGoMod(dir); ok {
			return modpath.Name(mp)
		}
	}
	return conventionalRoot(importPath)
}

func moduleRootFromGoMod(dir string) (string, bool) {
	for d := dir; ; {
		data, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			mp := modfile.ModulePath(data)
			if mp != "" {
				return mp, true
			}
			return "", false
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", false
		}
		d = parent
	}
}

// conventionalRoot approximates a hosted module's root as host + two more
// path segments (e.g. "github.com/foo/bar" out of
// "github.com/foo/bar/sub/pkg"), the convention essentially every hosted Go
// module follows. Paths shorter than three segments are returned as-is.
func conventionalRoot(importPath modpath.Name) modpath.Name {
	parts := strings.Split(string(importPath), "/")
	if len(parts) <= 3 {
		return importPath
	}
	return modpath.Name(strings.Join(parts[:3], "/"))
}
