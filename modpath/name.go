// Package modpath implements the ModuleName data model from the
// dependency-discovery engine's §3 data model: a Go import path treated as a
// slash-delimited dotted name, with parent/root/ancestor operations and a
// radix-tree-backed set for fast prefix membership queries.
package modpath

import (
	"sort"
	"strings"
)

// Name is a Go import path, e.g. "example.com/foo/bar". Equality and
// ordering are purely lexical, matching the spec's ModuleName contract.
type Name string

// Parts splits the import path on "/".
func (n Name) Parts() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), "/")
}

// Root returns the first path segment (e.g. "example.com" for
// "example.com/foo/bar"). This is not the module root of a hosted module;
// callers that need the tracked module's root rather than the first path
// segment should use RootUnder instead.
func (n Name) Root() Name {
	parts := n.Parts()
	if len(parts) == 0 {
		return ""
	}
	return Name(parts[0])
}

// RootUnder returns the leading prefix of n that matches modRoot, or "" if n
// does not fall under modRoot at all. This is what the tracked-root checks
// in classify and depgraph actually want: "is this import path the root
// module, or a sub-package of it".
func (n Name) RootUnder(modRoot Name) Name {
	if n == modRoot || n.IsDescendantOf(modRoot) {
		return modRoot
	}
	return ""
}

// Parent returns the import path one path segment up, or "" if n has no
// parent (a single-segment path).
func (n Name) Parent() Name {
	parts := n.Parts()
	if len(parts) <= 1 {
		return ""
	}
	return Name(strings.Join(parts[:len(parts)-1], "/"))
}

// Ancestors returns every strict ancestor of n, nearest first: for
// "a/b/c" that's ["a/b", "a"].
func (n Name) Ancestors() []Name {
	var out []Name
	for p := n.Parent(); p != ""; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// IsDescendantOf reports whether n is a strict sub-package of other, i.e.
// other is a proper slash-delimited prefix of n.
func (n Name) IsDescendantOf(other Name) bool {
	if other == "" || n == other {
		return false
	}
	return strings.HasPrefix(string(n), string(other)+"/")
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n Name) IsAncestorOf(other Name) bool {
	return other.IsDescendantOf(n)
}

// Less provides the lexical ordering the spec requires for deterministic,
// worker-scheduling-independent output (§5 ordering guarantee).
func Less(a, b Name) bool { return a < b }

// SortNames sorts a slice of Name in place, lexically.
func SortNames(names []Name) {
	sort.Slice(names, func(i, j int) bool { return Less(names[i], names[j]) })
}
