package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/depsplit/depsplit/closure"
	"github.com/depsplit/depsplit/modpath"
	"github.com/depsplit/depsplit/partition"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func exampleTree(t *testing.T) (dir string, root modpath.Name) {
	dir = t.TempDir()
	root = "example.com/lib"
	writeFile(t, filepath.Join(dir, "f.go"), "package lib\n\nimport \"example.com/alog\"\n")
	writeFile(t, filepath.Join(dir, "submod1", "s1.go"), "package submod1\n\nimport \"example.com/yaml\"\n")
	writeFile(t, filepath.Join(dir, "submod2", "s2.go"), "package submod2\n")
	return dir, root
}

func TestTrackModuleSubmodulesNone(t *testing.T) {
	dir, root := exampleTree(t)
	out, err := TrackModule(context.Background(), root, dir, root, Options{Policy: 0})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Contains(t, out, root)
	require.Contains(t, out[root], modpath.Name("example.com/alog"))

	want := &closure.DepRecord{Root: "example.com/alog", Direct: true, Optional: false}
	if diff := cmp.Diff(want, out[root]["example.com/alog"], cmpopts.IgnoreFields(closure.DepRecord{}, "Witnesses")); diff != "" {
		t.Errorf("unexpected alog record (-want +got):\n%s", diff)
	}
}

func TestTrackModuleSubmodulesAll(t *testing.T) {
	dir, root := exampleTree(t)
	out, err := TrackModule(context.Background(), root, dir, root, Options{Submodules: SubmodulesAll})
	require.NoError(t, err)

	// root, submod1, submod2 must all be present.
	require.Contains(t, out, root)
	require.Contains(t, out, root+"/submod1")
	require.Contains(t, out, root+"/submod2")

	// submod2 imports nothing itself but inherits alog via parent-direct-dep
	// augmentation (default GraftToChild policy).
	require.Contains(t, out[root+"/submod2"], modpath.Name("example.com/alog"))

	// submod1 has its own direct yaml import plus the inherited alog.
	require.Contains(t, out[root+"/submod1"], modpath.Name("example.com/yaml"))
	require.Contains(t, out[root+"/submod1"], modpath.Name("example.com/alog"))
}

func TestTrackModuleSubmodulesList(t *testing.T) {
	dir, root := exampleTree(t)
	out, err := TrackModule(context.Background(), root, dir, root, Options{
		Submodules:     SubmodulesList,
		SubmoduleNames: []modpath.Name{root + "/submod1"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Contains(t, out, root)
	require.Contains(t, out, root+"/submod1")
	require.NotContains(t, out, root+"/submod2")
}

func TestTrackModuleUnknownTarget(t *testing.T) {
	dir, root := exampleTree(t)
	_, err := TrackModule(context.Background(), root, dir, root+"/missing", Options{})
	require.Error(t, err)
}

func TestResolveRelativeName(t *testing.T) {
	require.Equal(t, modpath.Name("a/b/c"), resolveName("a/b/c", ""))
	require.Equal(t, modpath.Name("a/b/rel"), resolveName(".rel", "a/b"))
	require.Equal(t, modpath.Name("a/rel"), resolveName("..rel", "a/b"))
	require.Equal(t, modpath.Name("a/b"), resolveName(".", "a/b"))
}

func TestParseRequirementsWiresPartition(t *testing.T) {
	dir, root := exampleTree(t)

	declared := []partition.Requirement{
		{Module: "example.com/alog"},
		{Module: "example.com/yaml"},
	}

	res, warnings, err := ParseRequirements(
		context.Background(), root, dir, declared,
		[]modpath.Name{root + "/submod1"},
		partition.IdentityIndex{}, Options{}, partition.Options{},
	)
	require.NoError(t, err)
	require.Empty(t, warnings)

	// Only one extras module requested; its entire raw closure is common
	// per intersectAll's single-set rule, so everything lands in base.
	require.ElementsMatch(t, []modpath.Name{"example.com/alog", "example.com/yaml"}, res.Base)
	require.Empty(t, res.Extras[root+"/submod1"])
}

func TestModeFromEnv(t *testing.T) {
	t.Setenv("IMPORT_TRACKER_MODE", "")
	require.Equal(t, "", ModeFromEnv())

	t.Setenv("IMPORT_TRACKER_MODE", "STRICT")
	require.Equal(t, "STRICT", ModeFromEnv())
}
