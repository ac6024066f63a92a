// Package depgraph implements the §3 data model (the dependency graph) and
// C4, the Dependency Graph Builder.
package depgraph

import (
	"github.com/depsplit/depsplit/importscan"
	"github.com/depsplit/depsplit/modpath"
)

// EdgeData carries the per-edge metadata from §3: the required and optional
// sites at which the edge's target was imported, kept disjoint by file
// provenance (testable property 1: "no import site appears in both").
type EdgeData struct {
	RequiredSites []importscan.Site
	OptionalSites []importscan.Site
}

// Optional reports whether every site introducing this edge was inside a
// guarded (build-tag-excluded) region — i.e. there is no required path
// through this single edge.
func (e *EdgeData) Optional() bool {
	return len(e.RequiredSites) == 0 && len(e.OptionalSites) > 0
}

// AllSites returns every site for this edge, required first, each order
// preserved from extraction (which is itself sorted by import path then
// line — spec.md Open Question 3: "this specification requires all sites to
// be retained").
func (e *EdgeData) AllSites() []importscan.Site {
	out := make([]importscan.Site, 0, len(e.RequiredSites)+len(e.OptionalSites))
	out = append(out, e.RequiredSites...)
	out = append(out, e.OptionalSites...)
	return out
}

// Graph is the directed dependency graph: ModuleName -> ModuleName ->
// EdgeData, per §3. Third-party leaves are nodes with no outgoing edges;
// standard-library modules never appear at all (they are dropped before
// being recorded, per the §3 invariant).
type Graph struct {
	Root     modpath.Name
	edges    map[modpath.Name]map[modpath.Name]*EdgeData
	internal modpath.Set
	dirs     map[modpath.Name]string
}

// New returns an empty Graph rooted at root.
func New(root modpath.Name) *Graph {
	g := &Graph{
		Root:     root,
		edges:    make(map[modpath.Name]map[modpath.Name]*EdgeData),
		internal: modpath.NewSet(),
	}
	g.ensureNode(root)
	g.internal.Insert(root)
	return g
}

func (g *Graph) ensureNode(n modpath.Name) {
	if _, ok := g.edges[n]; !ok {
		g.edges[n] = make(map[modpath.Name]*EdgeData)
	}
}

// addEdge records an import observation from -> to, merging into any
// existing EdgeData for the pair (self-loops are forbidden by construction:
// the builder never calls addEdge with from == to, since a package never
// names itself as an import).
func (g *Graph) addEdge(from, to modpath.Name, imp importscan.Import) {
	g.ensureNode(from)
	g.ensureNode(to)
	e, ok := g.edges[from][to]
	if !ok {
		e = &EdgeData{}
		g.edges[from][to] = e
	}
	if imp.Optional {
		e.OptionalSites = append(e.OptionalSites, imp.Site)
	} else {
		e.RequiredSites = append(e.RequiredSites, imp.Site)
	}
}

// markInternal records that name is an internal node, synthesizing it as a
// graph node if it is not already one (§4.4 rule 5: ancestors are
// synthesized even if nothing imports them directly).
func (g *Graph) markInternal(name modpath.Name) {
	g.ensureNode(name)
	g.internal.Insert(name)
}

// IsInternal reports whether name has been recorded as an internal node.
func (g *Graph) IsInternal(name modpath.Name) bool {
	return g.internal.Has(name)
}

// Successors returns the outgoing edges of name, or nil if name is not a
// node in the graph.
func (g *Graph) Successors(name modpath.Name) map[modpath.Name]*EdgeData {
	return g.edges[name]
}

// HasNode reports whether name appears anywhere in the graph (as importer
// or as a recorded leaf).
func (g *Graph) HasNode(name modpath.Name) bool {
	_, ok := g.edges[name]
	return ok
}

// InternalNodes returns every internal node, lexically sorted.
func (g *Graph) InternalNodes() []modpath.Name {
	return g.internal.Names()
}
