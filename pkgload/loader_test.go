package pkgload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDirSplitsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.go", "package foo\n")
	writeFile(t, dir, "foo_test.go", "package foo\n")
	writeFile(t, dir, "_ignored.go", "package foo\n")

	rec, err := LoadDir("example.com/foo", dir)
	require.NoError(t, err)
	require.True(t, rec.IsPackage)
	require.Equal(t, []string{filepath.Join(dir, "foo.go")}, rec.GoFiles)
	require.Equal(t, []string{filepath.Join(dir, "foo_test.go")}, rec.TestFiles)
}

func TestLoadMissingImportPath(t *testing.T) {
	_, err := Load("example.com/definitely/not/a/real/package", t.TempDir())
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}
