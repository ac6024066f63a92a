// Package pkgload implements C2, the Module Loader: given an import path,
// resolve its directory and enumerate its Go source files, without
// executing any of the target's code.
//
// Go sidesteps spec.md §4.2's lazy-placeholder-type requirement entirely:
// go/parser only reads the target file's own text, so there is never a need
// to resolve (let alone execute) the files it imports just to recover its
// import declarations. See SPEC_FULL.md's C2 section for the full writeup.
package pkgload

import (
	"go/build"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Record is the resolved identity of one Go package directory: its import
// path, its filesystem directory, whether it is a buildable package (true
// when the directory holds at least one non-ignored .go file — kept for
// fidelity to spec.md's ModuleRecord), and its Go/test file lists.
type Record struct {
	ImportPath string
	Dir        string
	IsPackage  bool
	GoFiles    []string
	TestFiles  []string
}

// NotFoundError reports that no directory resolves for an import path.
type NotFoundError struct {
	ImportPath string
}

func (e *NotFoundError) Error() string {
	return "no package found for import path " + e.ImportPath
}

// LoadFailedError reports that a package directory was found but contains
// source that could not even be enumerated (e.g. an unreadable directory).
type LoadFailedError struct {
	ImportPath string
	Cause      error
}

func (e *LoadFailedError) Error() string {
	return "failed to load " + e.ImportPath + ": " + e.Cause.Error()
}

func (e *LoadFailedError) Unwrap() error { return e.Cause }

// Load resolves importPath to a directory (searched relative to srcDir,
// honoring GOPATH/module-cache/vendor resolution via go/build) and returns
// its Record. It never parses or executes target source — that is
// importscan's job.
func Load(importPath, srcDir string) (*Record, error) {
	pkg, err := build.Default.Import(importPath, srcDir, build.FindOnly)
	if err != nil {
		return nil, &NotFoundError{ImportPath: importPath}
	}
	return LoadDir(importPath, pkg.Dir)
}

// LoadDir builds a Record for a package whose directory is already known
// (the common case inside depgraph's directory walk, where the directory is
// discovered before the import path is even computed).
func LoadDir(importPath, dir string) (*Record, error) {
	goFiles, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, &LoadFailedError{ImportPath: importPath, Cause: errors.Wrap(err, "globbing *.go")}
	}

	rec := &Record{ImportPath: importPath, Dir: dir}
	for _, f := range goFiles {
		base := filepath.Base(f)
		if len(base) > 0 && base[0] == '_' {
			continue
		}
		if isTestFile(base) {
			rec.TestFiles = append(rec.TestFiles, f)
		} else {
			rec.GoFiles = append(rec.GoFiles, f)
		}
	}
	sort.Strings(rec.GoFiles)
	sort.Strings(rec.TestFiles)
	rec.IsPackage = len(rec.GoFiles) > 0 || len(rec.TestFiles) > 0
	return rec, nil
}

func isTestFile(base string) bool {
	const suffix = "_test.go"
	return len(base) > len(suffix) && base[len(base)-len(suffix):] == suffix
}
