package depgraph

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/depsplit/depsplit/modpath"
	"github.com/pkg/errors"
)

// DiscoverSubpackages walks the directory tree rooted at rootDir and
// returns the import path of every directory containing buildable Go
// source, import-root-relative to root — the enumeration the Driver's
// submodules=All needs (spec.md §4.7). Adapted from the teacher's
// pkgtree.ListPackages walk, including its skip list for vendor/Godeps
// trees and dot-directories.
func DiscoverSubpackages(root modpath.Name, rootDir string) ([]modpath.Name, error) {
	var out []modpath.Name

	err := filepath.Walk(rootDir, func(wp string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return nil
		}
		switch fi.Name() {
		case "vendor", "Godeps", "testdata":
			return filepath.SkipDir
		}
		if strings.HasPrefix(fi.Name(), ".") && wp != rootDir {
			return filepath.SkipDir
		}

		matches, err := filepath.Glob(filepath.Join(wp, "*.go"))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}

		rel, err := filepath.Rel(rootDir, wp)
		if err != nil {
			return err
		}
		ip := root
		if rel != "." {
			ip = modpath.Name(string(root) + "/" + filepath.ToSlash(rel))
		}
		out = append(out, ip)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking package tree")
	}

	modpath.SortNames(out)
	return out, nil
}
