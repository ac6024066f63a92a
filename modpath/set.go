package modpath

import "github.com/armon/go-radix"

// Set is a typed wrapper around a radix tree of Name keys, used for the
// visited sets in depgraph and closure ("has this import path already been
// discovered") and for the graph's internal-node set. Adapted from the teacher's
// deducerTrie (typed_radix.go): a bare radix.Tree forces type assertions at
// every call site, so we wrap it once here instead.
type Set struct {
	t *radix.Tree
}

// NewSet returns an empty Set.
func NewSet() Set {
	return Set{t: radix.New()}
}

// Insert adds name to the set. Returns whether name was already present.
func (s Set) Insert(name Name) bool {
	_, had := s.t.Insert(string(name), struct{}{})
	return had
}

// Has reports whether name is exactly present in the set.
func (s Set) Has(name Name) bool {
	_, has := s.t.Get(string(name))
	return has
}

// Delete removes name from the set, reporting whether it was present.
func (s Set) Delete(name Name) bool {
	_, had := s.t.Delete(string(name))
	return had
}

// Len reports the number of entries in the set.
func (s Set) Len() int {
	return s.t.Len()
}

// LongestPrefix returns the longest key in the set that is a prefix of name,
// which is exactly the "always-standard allow-list" / "is this an internal
// sub-package of some tracked root" query shape: given an arbitrary import
// path, find the nearest registered ancestor.
func (s Set) LongestPrefix(name Name) (Name, bool) {
	p, _, has := s.t.LongestPrefix(string(name))
	if !has {
		return "", false
	}
	return Name(p), true
}

// Names returns every member of the set in lexical order.
func (s Set) Names() []Name {
	out := make([]Name, 0, s.t.Len())
	s.t.Walk(func(k string, _ interface{}) bool {
		out = append(out, Name(k))
		return false
	})
	SortNames(out)
	return out
}
