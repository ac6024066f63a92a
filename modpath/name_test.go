package modpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameParentAndAncestors(t *testing.T) {
	n := Name("example.com/foo/bar/baz")
	require.Equal(t, Name("example.com/foo/bar"), n.Parent())
	assert.Equal(t,
		[]Name{"example.com/foo/bar", "example.com/foo", "example.com"},
		n.Ancestors(),
	)
	assert.Equal(t, Name(""), Name("example.com").Parent())
}

func TestIsDescendantOf(t *testing.T) {
	cases := []struct {
		n, other Name
		want     bool
	}{
		{"example.com/foo", "example.com", true},
		{"example.com/foo/bar", "example.com/foo", true},
		{"example.com/fooer", "example.com/foo", false}, // not a path-type prefix
		{"example.com/foo", "example.com/foo", false},   // equal isn't a strict descendant
		{"example.com", "example.com/foo", false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, c.n.IsDescendantOf(c.other), "%s descendant of %s", c.n, c.other)
	}
}

func TestRootUnder(t *testing.T) {
	root := Name("example.com/lib")
	assert.Equal(t, root, Name("example.com/lib/sub").RootUnder(root))
	assert.Equal(t, root, root.RootUnder(root))
	assert.Equal(t, Name(""), Name("example.com/other").RootUnder(root))
}

func TestSortNames(t *testing.T) {
	names := []Name{"b", "a", "c"}
	SortNames(names)
	assert.Equal(t, []Name{"a", "b", "c"}, names)
}
