// Package driver implements C7, the Driver/Orchestrator: the two public
// entry points (TrackModule, ParseRequirements) that wire C1-C6 together
// over a bounded worker pool and hand back order-independent results.
package driver

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/depsplit/depsplit/classify"
	"github.com/depsplit/depsplit/closure"
	"github.com/depsplit/depsplit/depgraph"
	"github.com/depsplit/depsplit/log"
	"github.com/depsplit/depsplit/modpath"
	"github.com/depsplit/depsplit/partition"
	"github.com/pkg/errors"
	"github.com/sdboyer/constext"
)

// modeEnvVar is the foreign runtime's lazy-import-error companion switch.
// Discovery in this engine never behaves differently based on it — Go has
// no equivalent lazy-import mechanism for it to govern — but callers built
// on top of this library may still branch on its value for parity with
// environments that expect the variable to exist.
const modeEnvVar = "IMPORT_TRACKER_MODE"

// ModeFromEnv reads IMPORT_TRACKER_MODE, returning "" if it is unset.
func ModeFromEnv() string {
	return os.Getenv(modeEnvVar)
}

// SubmodulesMode selects how TrackModule recurses over a target's
// sub-modules (spec.md §4.7's `submodules` parameter).
type SubmodulesMode int

const (
	// SubmodulesNone tracks only the queried target itself. Default.
	SubmodulesNone SubmodulesMode = iota
	// SubmodulesAll recurses over every internal sub-module of the target.
	SubmodulesAll
	// SubmodulesList restricts recursion to an explicit name list.
	SubmodulesList
)

// Options controls one Driver call.
type Options struct {
	// Package is the parent package used to resolve a relative target name
	// (spec.md §6's `--package`); ignored when the name is absolute.
	Package modpath.Name

	Submodules     SubmodulesMode
	SubmoduleNames []modpath.Name // used when Submodules == SubmodulesList

	TrackWitnesses bool // spec.md §6 --track_import_stack
	Policy         closure.AugmentationPolicy
	FullDepth      bool // spec.md §6 --full_depth
	IncludeTests   bool
	// Ignore names import paths to drop before classification, fed from a
	// project's .depsplit.toml `ignore` list.
	Ignore []modpath.Name

	// Workers bounds the fan-out worker pool; 0 defaults to
	// runtime.GOMAXPROCS(0), mirroring the teacher's subprocess-limiting
	// semaphore default.
	Workers int
	// WorkerTimeout sets a deadline on each worker's context, composed with
	// the caller's ctx; 0 sets none. The context is checked once, before the
	// worker's closure.Flatten call starts; a Flatten call already under way
	// is not interrupted.
	WorkerTimeout time.Duration

	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

// ignoreSet turns a project's declared ignore list into the lookup shape
// depgraph.Options wants; nil in, nil out, so an empty list still means
// "ignore nothing" rather than allocating an empty map per call.
func ignoreSet(names []modpath.Name) map[modpath.Name]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[modpath.Name]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// resolveName applies spec.md §4.2's relative-dot-count convention: a
// single leading dot means "relative to Package itself", each additional
// dot climbs one further namespace level, matching the bytecode-level
// relative-import dot count the original loader reads off LOAD_CONST.
func resolveName(name, pkg modpath.Name) modpath.Name {
	s := string(name)
	dots := 0
	for dots < len(s) && s[dots] == '.' {
		dots++
	}
	if dots == 0 {
		return name
	}
	base := pkg
	for i := 1; i < dots; i++ {
		base = base.Parent()
	}
	rest := strings.TrimPrefix(s[dots:], "/")
	switch {
	case rest == "":
		return base
	case base == "":
		return modpath.Name(rest)
	default:
		return base + "/" + modpath.Name(rest)
	}
}

// TrackModule implements spec.md §4.7's `track_module`: build the
// dependency graph once for root (rooted at rootDir on disk) and compute
// the closure of name (and, per opts.Submodules, its sub-modules), fanned
// out over a bounded worker pool.
func TrackModule(ctx context.Context, root modpath.Name, rootDir string, name modpath.Name, opts Options) (map[modpath.Name]closure.Closure, error) {
	resolved := resolveName(name, opts.Package)
	logger := opts.logger()

	cls := classify.New(root)
	g, err := depgraph.Build(root, rootDir, cls, depgraph.Options{
		FullDepth:    opts.FullDepth,
		IncludeTests: opts.IncludeTests,
		Ignore:       ignoreSet(opts.Ignore),
	})
	if err != nil {
		return nil, classifyBuildError(root, err)
	}
	logger.Debugf(1, "built dependency graph for %s (%d internal nodes)", root, len(g.InternalNodes()))

	targets, err := selectTargets(g, resolved, opts)
	if err != nil {
		return nil, err
	}
	logger.Debugf(2, "tracking %d target(s) under %s", len(targets), resolved)

	return flattenAll(ctx, g, targets, opts)
}

// selectTargets expands name into the full set of modules to flatten, per
// spec.md §4.7's submodules contract.
func selectTargets(g *depgraph.Graph, name modpath.Name, opts Options) ([]modpath.Name, error) {
	if !g.HasNode(name) {
		return nil, &closure.UntrackedQueryError{Target: name}
	}

	switch opts.Submodules {
	case SubmodulesAll:
		var out []modpath.Name
		for _, n := range g.InternalNodes() {
			if n == name || n.IsDescendantOf(name) {
				out = append(out, n)
			}
		}
		modpath.SortNames(out)
		return out, nil

	case SubmodulesList:
		seen := map[modpath.Name]bool{name: true}
		out := []modpath.Name{name}
		for _, n := range opts.SubmoduleNames {
			if seen[n] {
				continue
			}
			if !g.HasNode(n) {
				return nil, &closure.UntrackedQueryError{Target: n}
			}
			seen[n] = true
			out = append(out, n)
		}
		modpath.SortNames(out)
		return out, nil

	default: // SubmodulesNone
		return []modpath.Name{name}, nil
	}
}

// flattenAll fans closure.Flatten out over targets using a bounded
// semaphore-backed worker pool, grounded on the teacher's own
// subprocess-limiting `type sem chan struct{}` (gps/cmd.go). Each worker's
// context is composed from the caller's ctx and a per-worker timeout via
// constext.Cons, the same combinator the teacher uses to merge an
// invocation's context with a per-call budget; a worker whose context is
// already done when it starts skips its Flatten call and reports the
// context error, without touching the others. Results are merged into a map
// keyed by name, so the §5 ordering guarantee (lexical order, independent
// of completion order) falls out of the map/JSON-encoding step rather than
// needing to be enforced here.
func flattenAll(ctx context.Context, g *depgraph.Graph, targets []modpath.Name, opts Options) (map[modpath.Name]closure.Closure, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type outcome struct {
		name modpath.Name
		c    closure.Closure
		err  error
	}

	sem := make(chan struct{}, workers)
	results := make(chan outcome, len(targets))
	var wg sync.WaitGroup

	for _, t := range targets {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(target modpath.Name) {
			defer wg.Done()
			defer func() { <-sem }()

			wctx := ctx
			var cancel func()
			if opts.WorkerTimeout > 0 {
				timeout, tcancel := context.WithTimeout(context.Background(), opts.WorkerTimeout)
				wctx, cancel = constext.Cons(ctx, timeout)
				defer tcancel()
				defer cancel()
			}

			if wctx.Err() != nil {
				results <- outcome{name: target, err: wctx.Err()}
				return
			}

			c, err := closure.Flatten(g, target, closure.Options{
				Policy:         opts.Policy,
				TrackWitnesses: opts.TrackWitnesses,
			})
			results <- outcome{name: target, c: c, err: err}
		}(t)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[modpath.Name]closure.Closure, len(targets))
	for r := range results {
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "computing closure for %s", r.name)
		}
		out[r.name] = r.c
	}
	return out, nil
}

// ParseRequirements implements spec.md §4.7's `parse_requirements`: build
// the graph rooted at root/rootDir (the tracked root name — spec.md's
// `library_name`), compute each requested extras module's closure, and
// partition declared against them via C6. root itself is never one of the
// closures handed to Partition — it only anchors classification and graph
// construction, matching C6's step 6 treating anything no extras closure
// reaches as a dependency of untracked code rather than needing its own
// entry.
func ParseRequirements(
	ctx context.Context,
	root modpath.Name,
	rootDir string,
	declared []partition.Requirement,
	extrasModules []modpath.Name,
	idx partition.Index,
	opts Options,
	popts partition.Options,
) (partition.Result, []error, error) {
	cls := classify.New(root)
	g, err := depgraph.Build(root, rootDir, cls, depgraph.Options{
		FullDepth:    opts.FullDepth,
		IncludeTests: opts.IncludeTests,
		Ignore:       ignoreSet(opts.Ignore),
	})
	if err != nil {
		return partition.Result{}, nil, classifyBuildError(root, err)
	}

	targets := make([]modpath.Name, 0, len(extrasModules))
	seen := map[modpath.Name]bool{}
	for _, m := range extrasModules {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		targets = append(targets, m)
	}

	closures, err := flattenAll(ctx, g, targets, opts)
	if err != nil {
		return partition.Result{}, nil, err
	}

	res, warnings := partition.Partition(declared, closures, idx, popts)
	return res, warnings, nil
}
