package depgraph

import "github.com/depsplit/depsplit/modpath"

// Dir returns the resolved filesystem directory recorded for name, if any.
// Third-party nodes only have a recorded directory when they were resolved
// via go/build at build time (always true unless the package could not be
// located at all, e.g. a dependency genuinely absent from the module
// cache). closure's root resolver uses this to find the nearest enclosing
// go.mod for grouping a deep import path under its module root.
func (g *Graph) Dir(name modpath.Name) (string, bool) {
	d, ok := g.dirs[name]
	return d, ok && d != ""
}

func (g *Graph) setDir(name modpath.Name, dir string) {
	if g.dirs == nil {
		g.dirs = make(map[modpath.Name]string)
	}
	g.dirs[name] = dir
}
