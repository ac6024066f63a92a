// Package importscan implements C3, the import extractor — "the hard
// part" of spec.md. For each source file in a package directory it recovers
// the file's direct imports, tagging each one optional or required
// depending on whether the file's build constraint is satisfied by the
// default build target.
//
// spec.md's bytecode state machine (LOAD_CONST/IMPORT_NAME/IMPORT_FROM,
// guarded-region tracking via SETUP_FINALLY/SETUP_EXCEPT) has no object to
// walk in a compiled language; its design notes explicitly sanction
// transposing the state machine onto an AST walk instead ("Import",
// "ImportFrom", "Try" node kinds). Here the AST already hands us resolved
// import specs directly — go/parser has done the LOAD_CONST/IMPORT_NAME
// reassembly for us — so the work that remains is exactly the part spec.md
// calls out as load-bearing: deciding which imports are "inside a guarded
// region". In Go, the guarding construct is the build constraint: an import
// that only compiles in under a non-default build tag is optional in
// exactly the sense spec.md's try/except ImportError is optional — the
// default build does not require it to succeed.
package importscan

import (
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Site is the source location of one import statement.
type Site struct {
	Filename    string
	Line        int
	CodeContext string
}

// Import is one direct import recovered from a package's source, together
// with whether it was found inside a guarded (build-tag-excluded-by-default)
// region, and where.
type Import struct {
	Path     string
	Optional bool
	Site     Site
}

// UnterminatedImportError signals a corrupt or unparseable source file —
// the transposed form of spec.md's "open_import must be false at
// end-of-stream" termination contract: here, a file that doesn't even parse
// as Go source.
type UnterminatedImportError struct {
	Filename string
	Cause    error
}

func (e *UnterminatedImportError) Error() string {
	return "unparseable import stream in " + e.Filename + ": " + e.Cause.Error()
}

func (e *UnterminatedImportError) Unwrap() error { return e.Cause }

// Result holds the required/optional import sets for one package directory,
// kept disjoint by file provenance (spec.md §4.3's "disjoint by bytecode
// provenance": the same target reached once through a required file and once
// through an optional one yields two distinct Import entries, not a merge).
type Result struct {
	Required     []Import
	Optional     []Import
	TestRequired []Import
	TestOptional []Import
}

// Extract walks every non-excluded .go file directly inside dir (no
// recursion into sub-directories — those are separate packages, handled by
// depgraph) and returns its import sets.
func Extract(dir string) (Result, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return Result{}, errors.Wrap(err, "globbing package directory")
	}

	var res Result
	fset := token.NewFileSet()
	for _, file := range matches {
		base := filepath.Base(file)
		if base[0] == '_' || base[0] == '.' {
			continue
		}
		isTest := strings.HasSuffix(base, "_test.go")

		f, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly|parser.ParseComments)
		if err != nil {
			return Result{}, &UnterminatedImportError{Filename: file, Cause: err}
		}

		optional, err := fileIsOptional(f)
		if err != nil {
			return Result{}, &UnterminatedImportError{Filename: file, Cause: err}
		}

		for _, spec := range f.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return Result{}, &UnterminatedImportError{Filename: file, Cause: err}
			}
			pos := fset.Position(spec.Pos())
			imp := Import{
				Path:     path,
				Optional: optional,
				Site: Site{
					Filename:    file,
					Line:        pos.Line,
					CodeContext: spec.Path.Value,
				},
			}
			switch {
			case isTest && optional:
				res.TestOptional = append(res.TestOptional, imp)
			case isTest:
				res.TestRequired = append(res.TestRequired, imp)
			case optional:
				res.Optional = append(res.Optional, imp)
			default:
				res.Required = append(res.Required, imp)
			}
		}
	}

	sortImports(res.Required)
	sortImports(res.Optional)
	sortImports(res.TestRequired)
	sortImports(res.TestOptional)
	return res, nil
}

func sortImports(imps []Import) {
	sort.Slice(imps, func(i, j int) bool {
		if imps[i].Path != imps[j].Path {
			return imps[i].Path < imps[j].Path
		}
		return imps[i].Site.Line < imps[j].Site.Line
	})
}

// fileIsOptional reports whether f's build constraint excludes it from the
// default build target (current GOOS/GOARCH, no extra build tags) — the
// guarded-region signal.
func fileIsOptional(f *ast.File) (bool, error) {
	var exprs []constraint.Expr
	for _, cg := range f.Comments {
		// A build constraint must appear before the package clause, and
		// (for //go:build) before any non-blank, non-comment line, but
		// restricting to "before the package clause" mirrors the teacher's
		// own `c.Pos() > pf.Package` check in pkgtree.fillPackage closely
		// enough for our purposes (no code appears above imports in a
		// well-formed file).
		if cg.Pos() > f.Package {
			continue
		}
		for _, c := range cg.List {
			if !constraint.IsGoBuild(c.Text) && !constraint.IsPlusBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return false, err
			}
			exprs = append(exprs, expr)
		}
	}
	if len(exprs) == 0 {
		return false, nil
	}

	ok := defaultTagSatisfied
	for _, expr := range exprs {
		if !expr.Eval(ok) {
			return true, nil
		}
	}
	return false, nil
}

// defaultTagSatisfied reports whether tag would be set for a plain build of
// the current toolchain target with no extra -tags — i.e. only the current
// GOOS, GOARCH, and "gc" (we don't special-case gccgo) are considered set.
func defaultTagSatisfied(tag string) bool {
	switch tag {
	case runtime.GOOS, runtime.GOARCH, "gc":
		return true
	default:
		return false
	}
}
