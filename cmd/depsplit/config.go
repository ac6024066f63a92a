package main

import (
	"os"
	"path/filepath"

	"github.com/depsplit/depsplit/partition"
	"github.com/pkg/errors"
)

// projectConfigFile is the optional project-level settings file partition
// package's ReadProjectConfig parses (spec.md §4.6's extras/keep-optional
// policy, plus an ignore list) — checked into the tracked module's root
// rather than typed on every invocation.
const projectConfigFile = ".depsplit.toml"

// loadProjectConfig reads workDir's .depsplit.toml, if one exists. A
// missing file is not an error: project config is entirely optional.
func loadProjectConfig(workDir string) (*partition.ProjectConfig, error) {
	f, err := os.Open(filepath.Join(workDir, projectConfigFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", projectConfigFile)
	}
	defer f.Close()

	cfg, err := partition.ReadProjectConfig(f)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
