package classify

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/depsplit/depsplit/modpath"
	"github.com/stretchr/testify/assert"
)

func TestClassifyInternal(t *testing.T) {
	c := New("example.com/lib")
	assert.Equal(t, Internal, c.Classify("example.com/lib", "/nonexistent"))
	assert.Equal(t, Internal, c.Classify("example.com/lib/sub", "/nonexistent"))
}

func TestClassifyCgo(t *testing.T) {
	c := New("example.com/lib")
	assert.Equal(t, Standard, c.Classify("C", ""))
}

func TestClassifyMissingDirIsStandard(t *testing.T) {
	c := New("example.com/lib")
	assert.Equal(t, Standard, c.Classify("some/placeholder", ""))
}

func TestClassifyUnderscorePrefixIsStandard(t *testing.T) {
	c := New("example.com/lib")
	assert.Equal(t, Standard, c.Classify("_vendor/foo", "/some/dir"))
}

func TestClassifyGoroot(t *testing.T) {
	c := New("example.com/lib")
	dir := filepath.Join(runtime.GOROOT(), "src", "fmt")
	assert.Equal(t, Standard, c.Classify("fmt", dir))
}

func TestClassifyThirdParty(t *testing.T) {
	c := New("example.com/lib")
	assert.Equal(t, ThirdParty, c.Classify("github.com/pkg/errors", "/home/user/go/pkg/mod/github.com/pkg/errors@v0.9.1"))
}

func TestClassifyUnresolvedDottedIsThirdParty(t *testing.T) {
	c := New("example.com/lib")
	assert.Equal(t, ThirdParty, c.Classify("example.com/notondisk", ""))
}
