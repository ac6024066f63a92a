package partition

import (
	"strings"
	"testing"

	"github.com/depsplit/depsplit/modpath"
	"github.com/stretchr/testify/require"
)

func TestReadProjectConfig(t *testing.T) {
	doc := `
extras_modules = ["sample_lib/submod1", "sample_lib/submod2"]
ignore = ["some/placeholder"]
keep_optional = true
`
	cfg, err := ReadProjectConfig(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, []modpath.Name{"sample_lib/submod1", "sample_lib/submod2"}, cfg.ExtrasModules)
	require.Equal(t, []modpath.Name{"some/placeholder"}, cfg.Ignore)
	require.Equal(t, KeepOptionalAll, cfg.KeepOptional)
}

func TestReadProjectConfigDefaults(t *testing.T) {
	cfg, err := ReadProjectConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, cfg.ExtrasModules)
	require.Equal(t, KeepOptionalNone, cfg.KeepOptional)
}

func TestReadProjectConfigBadType(t *testing.T) {
	_, err := ReadProjectConfig(strings.NewReader(`extras_modules = "not-a-list"`))
	require.Error(t, err)
}
