package partition

import "github.com/depsplit/depsplit/modpath"

// Index is the read-only Installed-Packages Index collaborator (spec.md
// §6): it maps a third-party root module to the distribution name a
// declared-requirements list would use to name it. Go module paths are
// already their own distribution identity — there is no separate
// packaging-tool registry to reconcile the way the PyPI-vs-import-name
// split the original spec is drawn from requires — so the supplied
// reference mapping is the identity function; Index exists as an
// extension point for the genuinely Go-shaped case where it diverges: a
// `replace` directive, or a repo that publishes several logical Go modules
// under one umbrella distribution name.
type Index interface {
	Lookup(root modpath.Name) (dist modpath.Name, ok bool)
}

// IdentityIndex is the default Index: every module root names its own
// distribution.
type IdentityIndex struct{}

// Lookup always succeeds, returning root unchanged.
func (IdentityIndex) Lookup(root modpath.Name) (modpath.Name, bool) {
	return root, true
}
