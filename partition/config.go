package partition

import (
	"io"

	"github.com/depsplit/depsplit/modpath"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ProjectConfig is the optional `.depsplit.toml` project configuration:
// spec.md leaves requirements-partitioning policy (which sub-modules are
// extras, whether to keep optional deps) as caller-supplied flags; a
// project that wants those checked into source rather than typed on every
// invocation can declare them here.
type ProjectConfig struct {
	ExtrasModules []modpath.Name
	KeepOptional  KeepOptionalMode
	Ignore        []modpath.Name // import paths to drop before classification, e.g. known placeholder packages
}

// tomlMapper accumulates the first error encountered across a chain of
// reads so callers don't have to check after every field — adapted from
// the teacher's own toml.go mapper, same shape, same reason (a malformed
// project file should report one error, not the first of many partial
// ones).
type tomlMapper struct {
	tree *toml.Tree
	err  error
}

func (m *tomlMapper) stringList(key string) []modpath.Name {
	if m.err != nil {
		return nil
	}
	v := m.tree.GetDefault(key, nil)
	if v == nil {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		m.err = errors.Errorf("%s must be an array of strings, got %T", key, v)
		return nil
	}
	out := make([]modpath.Name, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			m.err = errors.Errorf("%s contains a non-string entry (%T)", key, item)
			return nil
		}
		out = append(out, modpath.Name(s))
	}
	return out
}

func (m *tomlMapper) keepOptional() KeepOptionalMode {
	if m.err != nil {
		return KeepOptionalNone
	}
	v := m.tree.GetDefault("keep_optional", false)
	switch t := v.(type) {
	case bool:
		if t {
			return KeepOptionalAll
		}
		return KeepOptionalNone
	case string:
		if t == "selective" {
			return KeepOptionalSelective
		}
		m.err = errors.Errorf("keep_optional string value must be \"selective\", got %q", t)
		return KeepOptionalNone
	default:
		m.err = errors.Errorf("keep_optional must be a bool or \"selective\", got %T", v)
		return KeepOptionalNone
	}
}

// ReadProjectConfig parses a `.depsplit.toml` document.
func ReadProjectConfig(r io.Reader) (*ProjectConfig, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing .depsplit.toml")
	}

	m := &tomlMapper{tree: tree}
	cfg := &ProjectConfig{
		ExtrasModules: m.stringList("extras_modules"),
		Ignore:        m.stringList("ignore"),
		KeepOptional:  m.keepOptional(),
	}
	if m.err != nil {
		return nil, errors.Wrap(m.err, "parsing .depsplit.toml")
	}
	return cfg, nil
}
