package depgraph

import (
	"go/build"
	"path/filepath"
	"strings"

	"github.com/depsplit/depsplit/classify"
	"github.com/depsplit/depsplit/importscan"
	"github.com/depsplit/depsplit/modpath"
	"github.com/depsplit/depsplit/pkgload"
	"github.com/pkg/errors"
)

// Options controls the graph builder's traversal, per §4.4 and §4.7's
// full_depth flag.
type Options struct {
	// FullDepth recurses into third-party packages too, rather than
	// treating them as unloaded leaves (spec.md Open Question 1).
	FullDepth bool
	// IncludeTests folds each package's TestImports into the same
	// traversal as its ordinary imports (spec.md S2's "tests" parameter
	// transposed to depgraph's build-time concern).
	IncludeTests bool
	// Ignore drops any import matching one of these names before
	// classification, as if the importing file never mentioned it — the
	// project-config escape hatch for known placeholder or vendored-in
	// packages that would otherwise misclassify. A nil map (the zero
	// value) ignores nothing.
	Ignore map[modpath.Name]bool
}

type job struct {
	name modpath.Name
	dir  string
}

// Build drives C2/C3 over root and every reachable internal module,
// materializing the directed graph per §4.4's five-step algorithm. rootDir
// is the filesystem directory of root; non-internal imports are resolved
// via go/build relative to the importing package's own directory.
func Build(root modpath.Name, rootDir string, cls *classify.Classifier, opts Options) (*Graph, error) {
	g := New(root)

	if _, err := pkgload.LoadDir(string(root), rootDir); err != nil {
		return nil, errors.Wrapf(err, "loading root module %s", root)
	}

	visited := modpath.NewSet()
	visited.Insert(root)
	queue := []job{{root, rootDir}}
	g.setDir(root, rootDir)

	// Seed every subpackage of root as a node up front, even ones nothing
	// imports: the tracked module's own tree is known in full regardless of
	// internal import reachability (mirrors the teacher's pkgtree.ListPackages,
	// which enumerates the whole tree rather than only what's reachable from
	// an entry point), so a caller can later query the closure of any
	// sub-package directly.
	subs, err := DiscoverSubpackages(root, rootDir)
	if err != nil {
		return nil, errors.Wrapf(err, "discovering subpackages of %s", root)
	}
	for _, sub := range subs {
		g.markInternal(sub)
		subDir := rootDir
		if sub != root {
			rel := strings.TrimPrefix(string(sub), string(root)+"/")
			subDir = filepath.Join(rootDir, filepath.FromSlash(rel))
		}
		g.setDir(sub, subDir)
		if !visited.Has(sub) {
			visited.Insert(sub)
			queue = append(queue, job{sub, subDir})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		res, err := importscan.Extract(cur.dir)
		if err != nil {
			return nil, errors.Wrapf(err, "extracting imports for %s", cur.name)
		}

		imports := append([]importscan.Import{}, res.Required...)
		imports = append(imports, res.Optional...)
		if opts.IncludeTests {
			imports = append(imports, res.TestRequired...)
			imports = append(imports, res.TestOptional...)
		}

		for _, imp := range imports {
			target := modpath.Name(imp.Path)
			if target == cur.name {
				// Self-import is not legal Go; defensively skip rather
				// than create a forbidden self-loop.
				continue
			}
			if opts.Ignore[target] {
				continue
			}

			targetDir, isInternal := resolveTarget(root, rootDir, target, cur.dir)
			cls2 := cls.Classify(target, targetDir)
			if isInternal {
				cls2 = classify.Internal
			}

			switch cls2 {
			case classify.Standard:
				continue // dropped per §3 invariant

			case classify.Internal:
				g.addEdge(cur.name, target, imp)
				g.markInternal(target)
				g.setDir(target, targetDir)
				enqueueAncestors(g, root, rootDir, target, visited, &queue)
				if !visited.Has(target) {
					visited.Insert(target)
					queue = append(queue, job{target, targetDir})
				}

			case classify.ThirdParty:
				g.addEdge(cur.name, target, imp)
				g.setDir(target, targetDir)
				if opts.FullDepth && targetDir != "" && !visited.Has(target) {
					visited.Insert(target)
					queue = append(queue, job{target, targetDir})
				}
			}
		}
	}

	return g, nil
}

// resolveTarget computes the filesystem directory for target, and reports
// whether target falls under the tracked root. Internal sub-packages are
// located by relative path under rootDir (the tree is self-contained and
// does not need GOPATH/module resolution); third-party and standard-library
// imports are resolved via go/build against srcDir.
func resolveTarget(root modpath.Name, rootDir string, target modpath.Name, srcDir string) (dir string, isInternal bool) {
	if target == root || target.IsDescendantOf(root) {
		rel := strings.TrimPrefix(string(target), string(root))
		rel = strings.TrimPrefix(rel, "/")
		return filepath.Join(rootDir, filepath.FromSlash(rel)), true
	}

	pkg, err := build.Default.Import(string(target), srcDir, build.FindOnly)
	if err != nil {
		return "", false
	}
	return pkg.Dir, false
}

// enqueueAncestors synthesizes every intermediate ancestor of target (down
// to, and including, root) as a graph node, per §4.4 rule 5, so that
// closure's parent-direct-dep augmentation has the data it needs.
func enqueueAncestors(g *Graph, root modpath.Name, rootDir string, target modpath.Name, visited modpath.Set, queue *[]job) {
	for _, anc := range target.Ancestors() {
		if anc != root && !anc.IsDescendantOf(root) {
			break // climbed past the tracked root; stop
		}
		g.markInternal(anc)
		rel := strings.TrimPrefix(string(anc), string(root))
		rel = strings.TrimPrefix(rel, "/")
		ancDir := filepath.Join(rootDir, filepath.FromSlash(rel))
		g.setDir(anc, ancDir)
		if !visited.Has(anc) {
			visited.Insert(anc)
			*queue = append(*queue, job{anc, ancDir})
		}
		if anc == root {
			break
		}
	}
}
