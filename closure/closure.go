// Package closure implements C5, the Closure & Flattener: given a queried
// internal node, compute its third-party closure with direct/transitive
// classification, optional-path poisoning, and parent-direct-dep
// augmentation (spec.md §4.5).
package closure

import (
	"strconv"

	"github.com/depsplit/depsplit/depgraph"
	"github.com/depsplit/depsplit/importscan"
	"github.com/depsplit/depsplit/modpath"
)

// AugmentationPolicy selects between the two legitimate treatments of
// "direct parent dep also reachable transitively" spec.md's Open Question 2
// leaves open.
type AugmentationPolicy int

const (
	// GraftToChild promotes a namespace ancestor's direct third-party
	// dependency into every descendant's closure (spec.md's default,
	// required so the descendant is installable on its own).
	//
	// Go caveat (an honest, documented transposition, not a guess): in the
	// dynamic language this spec is drawn from, importing a dotted
	// sub-module necessarily first imports and executes every ancestor
	// package's own top-level code, which is what makes the graft a hard
	// requirement rather than a heuristic. Go has no such package-hierarchy
	// execution semantics — importing "a/b/c" does not load "a" or "a/b".
	// The graft is therefore a weaker signal here than in the original: it
	// models "this sub-package's module also declares this dependency
	// somewhere in its tree", not "loading this package provably pulls
	// that dependency in". It is kept as the default for fidelity to
	// spec.md, with ParentOnly available when that weaker signal produces
	// more noise than value for a given tree.
	GraftToChild AugmentationPolicy = iota
	// ParentOnly leaves an ancestor's direct dependency attributed solely
	// to the ancestor.
	ParentOnly
)

// Options controls one Flatten call. full_depth (spec.md §4.7) is a
// graph-construction concern, not a flattening one — it governs whether
// depgraph.Build recurses past third-party leaves (depgraph.Options), so
// by the time Flatten runs over the resulting graph there is nothing
// left for it to decide.
type Options struct {
	Policy         AugmentationPolicy
	TrackWitnesses bool
	RootResolver   RootResolver
}

// WitnessHop is one step of a Witness chain: the internal module reached at
// this step, plus the source location of the import statement that
// introduced it from the previous hop. Site is the zero Site for the first
// hop (the queried target itself has no incoming edge) and for a hop
// synthesized by parent-direct-dep augmentation, where the intervening
// namespace climb from ancestor to descendant is not itself a traversed
// import edge.
type WitnessHop struct {
	Module modpath.Name
	Site   importscan.Site
}

// Witness is a path of internal modules leading from the queried target to
// the module that introduces a given third-party dependency (spec.md §3),
// terminated by LeafSite: the location of the import statement that
// actually names the third-party root. A witness produced by
// parent-direct-dep augmentation is instead the namespace chain from the
// introducing ancestor down to the node it was grafted onto (see
// graftAncestors), and its LeafSite lies in that ancestor's source.
type Witness struct {
	Hops     []WitnessHop
	LeafSite importscan.Site
}

// DepRecord is the per-third-party-root output of Flatten (spec.md §4.5's
// "output record per third-party root").
type DepRecord struct {
	Root      modpath.Name
	Direct    bool
	Optional  bool
	Witnesses []Witness
}

// Closure maps each reachable third-party root to its DepRecord.
type Closure map[modpath.Name]*DepRecord

// UntrackedQueryError reports that the caller asked for the closure of a
// module the graph never scanned (spec.md §7's UntrackedQuery).
type UntrackedQueryError struct {
	Target modpath.Name
}

func (e *UntrackedQueryError) Error() string {
	return "module " + string(e.Target) + " was not scanned; cannot compute its closure"
}

type accumulator struct {
	direct    bool
	required  bool // true once at least one non-optional witness is seen
	sawAny    bool
	witnesses []Witness
}

// Flatten computes target's third-party closure over g.
func Flatten(g *depgraph.Graph, target modpath.Name, opts Options) (Closure, error) {
	if !g.HasNode(target) {
		return nil, &UntrackedQueryError{Target: target}
	}

	resolve := opts.RootResolver
	if resolve == nil {
		resolve = DefaultRootResolver
	}

	acc := make(map[modpath.Name]*accumulator)
	record := func(root modpath.Name, w Witness, optional bool) {
		a, ok := acc[root]
		if !ok {
			a = &accumulator{}
			acc[root] = a
		}
		a.sawAny = true
		if !optional {
			a.required = true
		}
		if len(w.Hops) == 1 {
			a.direct = true
		}
		a.witnesses = append(a.witnesses, w)
	}

	type frame struct {
		node          modpath.Name
		path          []WitnessHop
		optionalSoFar bool
	}

	visited := modpath.NewSet()
	visited.Insert(target)
	queue := []frame{{node: target, path: []WitnessHop{{Module: target}}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for x, edge := range g.Successors(cur.node) {
			edgeOptional := edge.Optional()
			site := leadSite(edge)
			if g.IsInternal(x) {
				if visited.Has(x) {
					continue
				}
				visited.Insert(x)
				nextPath := append(append([]WitnessHop{}, cur.path...), WitnessHop{Module: x, Site: site})
				queue = append(queue, frame{
					node:          x,
					path:          nextPath,
					optionalSoFar: cur.optionalSoFar || edgeOptional,
				})
				continue
			}

			dir, _ := g.Dir(x)
			root := resolve(x, dir)
			witness := Witness{
				Hops:     append([]WitnessHop{}, cur.path...),
				LeafSite: site,
			}
			record(root, witness, cur.optionalSoFar || edgeOptional)
		}

		if opts.Policy == GraftToChild {
			graftAncestors(g, cur.node, cur.optionalSoFar, resolve, record)
		}
	}

	return finalize(acc, opts.TrackWitnesses), nil
}

// leadSite picks the representative source location for an edge: the
// first required site if any (an edge is only optional when none exist),
// else the first optional site. Either way it is a real import statement
// that contributed this edge, not a synthesized placeholder.
func leadSite(edge *depgraph.EdgeData) importscan.Site {
	sites := edge.AllSites()
	if len(sites) == 0 {
		return importscan.Site{}
	}
	return sites[0]
}

// graftAncestors implements the parent-direct-dep augmentation: every
// strict namespace ancestor of node that is itself a graph node contributes
// its own direct third-party edges into node's closure. The witness is the
// namespace chain from that ancestor down to node (always length >= 2, so
// a grafted dependency is never misclassified as direct). The intervening
// hops carry no Site: the namespace climb from ancestor to node is not
// itself a traversed import edge, so there is no real source location to
// attach — only LeafSite, the ancestor's own edge into the third-party
// root, is a genuine import statement. optionalSoFar is the accumulated
// optionality of the BFS path from the queried target down to node itself
// — the graft rides on that same path, so a grafted edge is optional
// whenever either the path to node or the ancestor's own edge is, matching
// the "sticky downward" rule the ordinary internal-edge branch above
// already applies.
func graftAncestors(g *depgraph.Graph, node modpath.Name, optionalSoFar bool, resolve RootResolver, record func(root modpath.Name, w Witness, optional bool)) {
	for _, ancestor := range node.Ancestors() {
		if !g.HasNode(ancestor) {
			continue
		}
		for x, edge := range g.Successors(ancestor) {
			if g.IsInternal(x) {
				continue // internal ancestor imports are already reachable by ordinary BFS, if actually imported
			}
			dir, _ := g.Dir(x)
			root := resolve(x, dir)
			witness := Witness{
				Hops:     namespaceChain(ancestor, node),
				LeafSite: leadSite(edge),
			}
			record(root, witness, optionalSoFar || edge.Optional())
		}
	}
}

// namespaceChain returns the path of dotted/slashed segments from ancestor
// down to (and including) descendant, inclusive of both ends. None of
// these hops carry a Site — see graftAncestors' doc comment.
func namespaceChain(ancestor, descendant modpath.Name) []WitnessHop {
	var chain []WitnessHop
	for n := descendant; ; n = n.Parent() {
		chain = append([]WitnessHop{{Module: n}}, chain...)
		if n == ancestor {
			break
		}
		if n == "" {
			break
		}
	}
	return chain
}

func finalize(acc map[modpath.Name]*accumulator, trackWitnesses bool) Closure {
	out := make(Closure, len(acc))
	for root, a := range acc {
		if !a.sawAny {
			continue
		}
		rec := &DepRecord{
			Root:     root,
			Direct:   a.direct,
			Optional: !a.required,
		}
		if trackWitnesses {
			rec.Witnesses = dedupeWitnesses(a.witnesses)
		}
		out[root] = rec
	}
	return out
}

func dedupeWitnesses(ws []Witness) []Witness {
	seen := make(map[string]bool, len(ws))
	out := make([]Witness, 0, len(ws))
	for _, w := range ws {
		key := witnessKey(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

func witnessKey(w Witness) string {
	s := ""
	for i, h := range w.Hops {
		if i > 0 {
			s += ">"
		}
		s += string(h.Module)
	}
	s += "|" + w.LeafSite.Filename + ":" + strconv.Itoa(w.LeafSite.Line)
	return s
}
