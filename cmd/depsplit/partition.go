package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/depsplit/depsplit/driver"
	"github.com/depsplit/depsplit/index"
	"github.com/depsplit/depsplit/log"
	"github.com/depsplit/depsplit/modpath"
	"github.com/depsplit/depsplit/partition"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"
)

// newPartitionCmd implements spec.md §4.6/§4.7's `parse_requirements`: align
// the module's own go.mod require block against the discovered closures of
// its .depsplit.toml extras modules, producing a base/extras/all split.
// As in the root command, the project config is optional: extras modules
// and keep-optional policy are read from .depsplit.toml, and a missing file
// just means "no extras groups".
func newPartitionCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		dir       string
		indexPath string
		logLevel  int
		indent    int
	)

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Split a module's go.mod requirements into base + extras groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir := dir
			if workDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				workDir = wd
			}

			root, err := moduleRoot(workDir)
			if err != nil {
				return err
			}

			declared, err := declaredRequirements(workDir)
			if err != nil {
				return err
			}

			projCfg, err := loadProjectConfig(workDir)
			if err != nil {
				return err
			}
			if projCfg == nil {
				projCfg = &partition.ProjectConfig{}
			}

			idx, err := openIndex(indexPath)
			if err != nil {
				return err
			}
			defer idx.Close()

			logger := log.New(stderr)
			logger.Level = logLevel

			opts := driver.Options{
				Ignore: projCfg.Ignore,
				Logger: logger,
			}
			popts := partition.Options{KeepOptional: projCfg.KeepOptional}

			res, warnings, err := driver.ParseRequirements(context.Background(), root, workDir, declared, projCfg.ExtrasModules, idx, opts, popts)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Logf("%s", w)
			}

			return writeJSON(stdout, res, indent)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dir, "dir", "", "module root directory (defaults to the working directory)")
	flags.StringVar(&indexPath, "index", "", "path to the installed-packages index cache (defaults to depsplit/index.db under the user cache directory)")
	flags.IntVar(&logLevel, "log_level", 0, "verbosity (fine-grained DEBUG levels 1-4)")
	flags.IntVar(&indent, "indent", 0, "pretty-print JSON output with this many spaces")

	return cmd
}

// declaredRequirements reads dir/go.mod's require block as the
// declared-requirements iterable partition.Partition expects — the CLI's
// own "reading the declared-requirements file" external collaborator, kept
// out of the core driver/partition packages per spec.md §1.
func declaredRequirements(dir string) ([]partition.Requirement, error) {
	path := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	out := make([]partition.Requirement, 0, len(mf.Require))
	for _, r := range mf.Require {
		out = append(out, partition.Requirement{
			Module:  modpath.Name(r.Mod.Path),
			Version: r.Mod.Version,
		})
	}
	return out, nil
}

// openIndex opens the boltdb-backed Installed-Packages Index at path,
// defaulting to a cache file under the user's cache directory, and scans
// GOMODCACHE (or GOPATH/pkg/mod as a fallback) for installed modules.
func openIndex(path string) (*index.BoltIndex, error) {
	if path == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolving default index cache directory")
		}
		path = filepath.Join(cacheDir, "depsplit", "index.db")
	}

	var scanRoots []string
	if v := os.Getenv("GOMODCACHE"); v != "" {
		scanRoots = append(scanRoots, v)
	} else if gopath := os.Getenv("GOPATH"); gopath != "" {
		scanRoots = append(scanRoots, filepath.Join(gopath, "pkg", "mod"))
	}

	return index.Open(path, scanRoots)
}
