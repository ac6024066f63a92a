package closure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/depsplit/depsplit/classify"
	"github.com/depsplit/depsplit/depgraph"
	"github.com/depsplit/depsplit/modpath"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// Mirrors S2: submod2 imports sibling submod1 (which imports alog directly)
// and imports yaml directly. alog must appear in submod2's closure as
// transitive; yaml as direct.
func TestFlattenSiblingTransitive(t *testing.T) {
	dir := t.TempDir()
	root := modpath.Name("example.com/intermoddeps")

	writeFile(t, filepath.Join(dir, "submod1", "s1.go"),
		"package submod1\n\nimport \"example.com/alog\"\n")
	writeFile(t, filepath.Join(dir, "submod2", "s2.go"),
		"package submod2\n\nimport (\n\t\"example.com/intermoddeps/submod1\"\n\t\"example.com/yaml\"\n)\n\nvar _ = submod1.X\n")

	cls := classify.New(root)
	g, err := depgraph.Build(root, dir, cls, depgraph.Options{})
	require.NoError(t, err)

	sub2 := root + "/submod2"
	c, err := Flatten(g, sub2, Options{Policy: GraftToChild, TrackWitnesses: true})
	require.NoError(t, err)

	alog, ok := c["example.com/alog"]
	require.True(t, ok)
	require.False(t, alog.Direct)
	require.False(t, alog.Optional)

	yaml, ok := c["example.com/yaml"]
	require.True(t, ok)
	require.True(t, yaml.Direct)
	require.False(t, yaml.Optional)
}

// Mirrors S3: a parent package imports a third-party root directly; a child
// sub-package that does not import it at all must still inherit it via
// parent-direct-dep augmentation, always classified transitive.
func TestFlattenParentAugmentation(t *testing.T) {
	dir := t.TempDir()
	root := modpath.Name("example.com/foo")

	writeFile(t, filepath.Join(dir, "f.go"),
		"package foo\n\nimport \"example.com/alog\"\n")
	writeFile(t, filepath.Join(dir, "bar", "b.go"),
		"package bar\n")

	cls := classify.New(root)
	g, err := depgraph.Build(root, dir, cls, depgraph.Options{})
	require.NoError(t, err)

	bar := root + "/bar"
	c, err := Flatten(g, bar, Options{Policy: GraftToChild, TrackWitnesses: true})
	require.NoError(t, err)

	alog, ok := c["example.com/alog"]
	require.True(t, ok)
	require.False(t, alog.Direct, "grafted dependency is always transitive, never direct")
	require.False(t, alog.Optional)
	require.Len(t, alog.Witnesses, 1)
	got := alog.Witnesses[0]
	require.Equal(t, []WitnessHop{{Module: root}, {Module: bar}}, got.Hops)
	require.Equal(t, "f.go", filepath.Base(got.LeafSite.Filename))
	require.Equal(t, 3, got.LeafSite.Line)
}

// With ParentOnly, bar must not inherit foo's direct dependency at all.
func TestFlattenParentOnlyDisablesAugmentation(t *testing.T) {
	dir := t.TempDir()
	root := modpath.Name("example.com/foo")

	writeFile(t, filepath.Join(dir, "f.go"),
		"package foo\n\nimport \"example.com/alog\"\n")
	writeFile(t, filepath.Join(dir, "bar", "b.go"),
		"package bar\n")

	cls := classify.New(root)
	g, err := depgraph.Build(root, dir, cls, depgraph.Options{})
	require.NoError(t, err)

	bar := root + "/bar"
	c, err := Flatten(g, bar, Options{Policy: ParentOnly})
	require.NoError(t, err)

	_, ok := c["example.com/alog"]
	require.False(t, ok)
}

// A dependency reachable only behind a build-tag-excluded file must be
// reported optional.
func TestFlattenOptionalPoisoning(t *testing.T) {
	dir := t.TempDir()
	root := modpath.Name("example.com/opt")

	writeFile(t, filepath.Join(dir, "m.go"),
		"//go:build nevertrue\n\npackage opt\n\nimport \"example.com/alog\"\n")

	cls := classify.New(root)
	g, err := depgraph.Build(root, dir, cls, depgraph.Options{})
	require.NoError(t, err)

	c, err := Flatten(g, root, Options{Policy: GraftToChild})
	require.NoError(t, err)

	alog, ok := c["example.com/alog"]
	require.True(t, ok)
	require.True(t, alog.Optional)
}

// A dependency grafted in from an ancestor that is NOT an ancestor of the
// query target itself (i.e. reached only via an optional internal edge
// first) must still be reported optional: optionality is sticky downward
// along the whole BFS path, not reset at the graft step. Here "foo/a"
// reaches "foo/b/c" only through a build-tag-excluded import; "foo/b" (an
// ancestor of "foo/b/c", not of "foo/a") unconditionally imports widgets.
// widgets must come out optional, since every path from "foo/a" to it
// passes through the optional "foo/a" -> "foo/b/c" edge.
func TestFlattenGraftInheritsPathOptionality(t *testing.T) {
	dir := t.TempDir()
	root := modpath.Name("example.com/foo")

	writeFile(t, filepath.Join(dir, "a", "a.go"),
		"//go:build nevertrue\n\npackage a\n\nimport _ \"example.com/foo/b/c\"\n")
	writeFile(t, filepath.Join(dir, "b", "b.go"),
		"package b\n\nimport \"example.com/widgets\"\n")
	writeFile(t, filepath.Join(dir, "b", "c", "c.go"),
		"package c\n")

	cls := classify.New(root)
	g, err := depgraph.Build(root, dir, cls, depgraph.Options{})
	require.NoError(t, err)

	a := root + "/a"
	c, err := Flatten(g, a, Options{Policy: GraftToChild})
	require.NoError(t, err)

	widgets, ok := c["example.com/widgets"]
	require.True(t, ok)
	require.True(t, widgets.Optional, "widgets is reachable only via an optional path down to foo/b/c; must be optional")
}

func TestFlattenUntrackedQuery(t *testing.T) {
	dir := t.TempDir()
	root := modpath.Name("example.com/foo")
	writeFile(t, filepath.Join(dir, "f.go"), "package foo\n")

	cls := classify.New(root)
	g, err := depgraph.Build(root, dir, cls, depgraph.Options{})
	require.NoError(t, err)

	_, err = Flatten(g, "example.com/never-scanned", Options{})
	require.Error(t, err)
	var untracked *UntrackedQueryError
	require.ErrorAs(t, err, &untracked)
}
