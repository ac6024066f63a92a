// Package partition implements C6, the Requirements Partitioner: aligning
// a module's discovered closures against a declared-requirements list to
// produce a base group, one extras group per sub-module, and an all group.
package partition

import (
	"github.com/depsplit/depsplit/closure"
	"github.com/depsplit/depsplit/modpath"
)

// Requirement is one entry of a declared-requirements list — what a parsed
// go.mod require block, or a requirements.txt-style input, already looks
// like: a module path plus its original version-constraint string. Go
// module paths are canonical on their own, so unlike the PyPI source this
// spec is drawn from there is no separate name-normalization pass (no
// hyphen/underscore folding, no case-folding).
type Requirement struct {
	Module  modpath.Name
	Version string
}

// KeepOptionalMode selects how optional-only dependencies are treated when
// building each extras group (spec.md §4.6's keep_optional tri-state).
type KeepOptionalMode int

const (
	// KeepOptionalNone prunes optional-only dependencies from every extras
	// group. This is the default (spec.md §4.6).
	KeepOptionalNone KeepOptionalMode = iota
	// KeepOptionalAll keeps every optional dependency in every group.
	KeepOptionalAll
	// KeepOptionalSelective keeps only the distributions named per module
	// in Options.KeepOptionalSet.
	KeepOptionalSelective
)

// Options controls one Partition call.
type Options struct {
	KeepOptional    KeepOptionalMode
	KeepOptionalSet map[modpath.Name]map[modpath.Name]bool // extras-module -> set of dist names to keep, when KeepOptionalSelective
}

func (o Options) keep(module, dist modpath.Name, optional bool) bool {
	if !optional {
		return true
	}
	switch o.KeepOptional {
	case KeepOptionalAll:
		return true
	case KeepOptionalSelective:
		return o.KeepOptionalSet[module][dist]
	default:
		return false
	}
}

// UnresolvedRequirementMapping reports that a third-party root found in a
// closure has no entry in the Installed-Packages Index — non-fatal per
// spec.md §7; the root's own name is used verbatim as its distribution
// name, per S6.
type UnresolvedRequirementMapping struct {
	Root modpath.Name
}

func (w *UnresolvedRequirementMapping) Error() string {
	return "no distribution mapping for " + string(w.Root) + "; using the import path verbatim"
}

// Result is the output of Partition: the base group shared by every extras
// module, one group per extras module, and their union.
type Result struct {
	Base   []modpath.Name
	Extras map[modpath.Name][]modpath.Name
	All    []modpath.Name
}

// Partition runs the five-step procedure from spec.md §4.6. closures maps
// each requested extras module to its already-computed Closure (the
// caller — the Driver — is responsible for invoking closure.Flatten per
// module; Partition itself never touches the dependency graph).
func Partition(declared []Requirement, closures map[modpath.Name]closure.Closure, idx Index, opts Options) (Result, []error) {
	if idx == nil {
		idx = IdentityIndex{}
	}

	declaredSet := make(map[modpath.Name]bool, len(declared))
	for _, r := range declared {
		declaredSet[r.Module] = true
	}

	// raw holds every distribution each module's closure reaches at all
	// (optional or not) — this is what step 4's intersection and step 6's
	// "appears in no closure" test operate on. keep_optional (spec.md
	// §4.6) only prunes optional-only entries out of the *extras* groups
	// built in step 5; it never affects what counts as "discovered" for
	// common or for the step-6 backfill.
	var warnings []error
	raw := make(map[modpath.Name]map[modpath.Name]*closure.DepRecord, len(closures))
	union := make(map[modpath.Name]bool)

	for module, c := range closures {
		set := make(map[modpath.Name]*closure.DepRecord, len(c))
		for root, r := range c {
			dist, ok := idx.Lookup(root)
			if !ok {
				warnings = append(warnings, &UnresolvedRequirementMapping{Root: root})
				dist = root
			}
			set[dist] = r
			union[dist] = true
		}
		raw[module] = set
	}

	common := intersectAll(raw)

	// Step 6: any declared distribution reachable from no closure at all is
	// a dependency of untracked code (or simply not imported by any scanned
	// sub-module) and is folded into common rather than dropped.
	for dist := range declaredSet {
		if !union[dist] {
			common[dist] = true
		}
	}

	extras := make(map[modpath.Name][]modpath.Name, len(raw))
	all := make(map[modpath.Name]bool, len(common))
	for dist := range common {
		all[dist] = true
	}
	for module, set := range raw {
		group := make(map[modpath.Name]bool, len(set))
		for dist, r := range set {
			if common[dist] {
				continue
			}
			if !opts.keep(module, dist, r.Optional) {
				continue
			}
			group[dist] = true
			all[dist] = true
		}
		extras[module] = sortedIntersect(group, declaredSet)
	}

	res := Result{
		Base:   sortedIntersect(common, declaredSet),
		Extras: extras,
		All:    sortedIntersect(all, declaredSet),
	}
	return res, warnings
}

// intersectAll returns the set of distributions present in every module's
// raw closure. Zero input sets intersect to the empty set (not the
// universal set): with no extras modules requested, nothing has been
// discovered at all, so step 6 above folds every declared distribution
// into common — exactly the round-trip law "extras_modules = [] yields
// base = declared".
func intersectAll(raw map[modpath.Name]map[modpath.Name]*closure.DepRecord) map[modpath.Name]bool {
	if len(raw) == 0 {
		return map[modpath.Name]bool{}
	}
	var sets []map[modpath.Name]*closure.DepRecord
	for _, s := range raw {
		sets = append(sets, s)
	}
	out := make(map[modpath.Name]bool, len(sets[0]))
	for dist := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s[dist]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out[dist] = true
		}
	}
	return out
}

func sortedIntersect(set, declared map[modpath.Name]bool) []modpath.Name {
	out := make([]modpath.Name, 0, len(set))
	for dist := range set {
		if declared[dist] {
			out = append(out, dist)
		}
	}
	modpath.SortNames(out)
	return out
}
