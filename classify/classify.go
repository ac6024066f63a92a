// Package classify implements C1, the Name Classifier: deciding whether a
// fully-qualified Go import path is standard-library, the tracked root
// module, or third-party.
package classify

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/depsplit/depsplit/modpath"
)

// Classification is the result of classifying an import path.
type Classification int

const (
	// Unknown is the zero value. Classify never returns it: a name with no
	// resolved directory is classified by the unresolved-path rules instead
	// (Standard or ThirdParty, see Classify).
	Unknown Classification = iota
	Internal
	Standard
	ThirdParty
)

func (c Classification) String() string {
	switch c {
	case Internal:
		return "internal"
	case Standard:
		return "standard"
	case ThirdParty:
		return "third-party"
	default:
		return "unknown"
	}
}

// cgoPseudoPackage is the single hard-coded always-standard name: the "C"
// pseudo-import cgo recognizes, which never resolves to a real directory.
const cgoPseudoPackage = "C"

// Classifier holds the once-computed standard-library directories (GOROOT's
// src and pkg directories) so repeated
// classification calls don't re-stat the toolchain every time.
type Classifier struct {
	root modpath.Name

	once     sync.Once
	gorootSrc string
	pkgDir    string
}

// New returns a Classifier tracking rootModule as the Internal boundary.
func New(rootModule modpath.Name) *Classifier {
	return &Classifier{root: rootModule}
}

func (c *Classifier) init() {
	c.once.Do(func() {
		c.gorootSrc = filepath.Join(runtime.GOROOT(), "src")
		c.pkgDir = filepath.Join(runtime.GOROOT(), "pkg")
	})
}

// Classify applies the five-rule decision procedure from spec.md §4.1. dir
// is the resolved directory for name, or "" if it could not be resolved (a
// namespace-package placeholder, or a build-tag-excluded file set) — such a
// name is ThirdParty when its first path segment contains a dot, and is
// otherwise conservatively treated as Standard.
func (c *Classifier) Classify(name modpath.Name, dir string) Classification {
	c.init()

	if name == cgoPseudoPackage {
		return Standard
	}
	if name == c.root || name.IsDescendantOf(c.root) {
		return Internal
	}
	if strings.HasPrefix(string(name), "_") {
		return Standard
	}
	if dir == "" {
		// Unresolved: either a build-tag-excluded placeholder, or a
		// third-party package genuinely absent from the module cache (the
		// common case when scanning source that has not been `go mod
		// download`'d). A first segment containing a dot can never be a
		// standard-library import (the standard library's own import paths
		// are always dot-free, e.g. "net/http"), so such paths are still
		// counted as ThirdParty; the directory-less record is resolved to
		// a root later via closure's conventional-root fallback. Anything
		// else is conservatively dropped.
		if hasDottedFirstSegment(name) {
			return ThirdParty
		}
		return Standard
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Standard
	}
	if hasPathPrefix(abs, c.gorootSrc) || hasPathPrefix(abs, c.pkgDir) {
		return Standard
	}
	return ThirdParty
}

// hasDottedFirstSegment reports whether name's first path segment contains a
// dot, the shape every hosted Go module path has (e.g. "example.com",
// "github.com") and no standard-library import path ever does.
func hasDottedFirstSegment(name modpath.Name) bool {
	first := name.Root()
	return strings.Contains(string(first), ".")
}

// hasPathPrefix reports whether path is prefix or a sub-directory of
// prefix, respecting path component boundaries (so "/go/srci" is not
// considered to be under "/go/src").
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}
