// Package index implements the Installed-Packages Index external
// collaborator from spec.md §6: a read-only lookup from a third-party
// module root to its distribution name. For Go, a module path already is
// its own distribution identity (there is no separate packaging-tool
// registry to reconcile the way PyPI distribution names diverge from
// import names), so the reference implementation here exists mainly to
// give callers a cached, concurrency-safe population of "which module
// roots are actually present in the local module cache" rather than to
// perform any name translation.
package index

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/depsplit/depsplit/modpath"
	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

var bucketModules = []byte("modules")

// BoltIndex is a boltdb-backed Installed-Packages Index, populated once
// from the on-disk module cache and then read many times. Concurrent
// construction across processes sharing the same cache file is guarded by
// an flock write-once gate (spec.md §5's "constructed once per process
// under a write-once guard; readers see an immutable snapshot") so two
// `depsplit` invocations racing to warm a fresh cache file don't corrupt
// it with interleaved bucket writes.
type BoltIndex struct {
	db   *bolt.DB
	lock *flock.Flock
}

// Open opens (creating if necessary) the boltdb cache file at path,
// scans scanRoots for installed modules on first build, and returns a
// ready-to-query BoltIndex. scanRoots is ordinarily
// []string{filepath.Join(os.Getenv("GOMODCACHE"), ...)} or the
// GOPATH/pkg/mod/cache/download equivalent; callers needing a specific
// search path compute it themselves — this package only walks what it's
// given.
func Open(path string, scanRoots []string) (*BoltIndex, error) {
	dir := filepath.Dir(path)
	if fi, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating index cache directory %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "checking index cache directory %s", dir)
	} else if !fi.IsDir() {
		return nil, errors.Errorf("index cache path %s is not a directory", dir)
	}

	lk := flock.NewFlock(path + ".lock")
	if err := lk.Lock(); err != nil {
		return nil, errors.Wrapf(err, "acquiring write-once lock for %s", path)
	}
	defer lk.Unlock()

	fresh := true
	if _, err := os.Stat(path); err == nil {
		fresh = false
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening index cache file %s", path)
	}

	idx := &BoltIndex{db: db, lock: lk}
	if fresh {
		if err := idx.populate(scanRoots); err != nil {
			db.Close()
			return nil, err
		}
	}
	return idx, nil
}

// populate scans scanRoots once and records every module root it finds.
// Go module paths are identity-mapped to their own distribution name —
// the only fact worth caching is "this root is actually present", which
// lets Lookup distinguish a tracked, installed module from one merely
// named in a declared-requirements list but never fetched.
func (x *BoltIndex) populate(scanRoots []string) error {
	return x.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketModules)
		if err != nil {
			return errors.Wrap(err, "creating modules bucket")
		}
		for _, root := range scanRoots {
			roots, err := discoverModuleRoots(root)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return errors.Wrapf(err, "scanning module cache root %s", root)
			}
			for _, m := range roots {
				if err := b.Put([]byte(m), []byte(m)); err != nil {
					return errors.Wrapf(err, "indexing module %s", m)
				}
			}
		}
		return nil
	})
}

// discoverModuleRoots walks a GOMODCACHE-style "cache/download" tree and
// recovers module paths from the "<module>/@v/" directory layout the Go
// tool uses to lay out downloaded modules. Escaped path elements (Go
// module cache escapes uppercase letters as "!letter") are unescaped so
// the recovered path matches what import paths actually look like.
func discoverModuleRoots(root string) ([]modpath.Name, error) {
	downloadDir := filepath.Join(root, "cache", "download")
	if fi, err := os.Stat(downloadDir); err != nil || !fi.IsDir() {
		downloadDir = root
	}

	var out []modpath.Name
	err := filepath.Walk(downloadDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Base(filepath.Dir(p)) != "@v" {
			return nil
		}
		if !strings.HasSuffix(p, ".info") {
			return nil
		}
		modDir := filepath.Dir(filepath.Dir(p))
		rel, err := filepath.Rel(downloadDir, modDir)
		if err != nil {
			return nil
		}
		out = append(out, modpath.Name(unescapeModulePath(filepath.ToSlash(rel))))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// unescapeModulePath reverses the Go module cache's "!letter" escaping
// for uppercase characters (e.g. "github.com/!azure" -> "github.com/Azure").
func unescapeModulePath(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] == '!' && i+1 < len(p) {
			b.WriteByte(p[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(p[i])
	}
	return b.String()
}

// Lookup implements partition.Index: Go module paths are their own
// distribution name, so a hit just confirms the root is a known,
// installed module rather than translating it to anything else.
func (x *BoltIndex) Lookup(root modpath.Name) (modpath.Name, bool) {
	var found bool
	_ = x.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketModules)
		if b == nil {
			return nil
		}
		found = b.Get([]byte(root)) != nil
		return nil
	})
	if !found {
		return "", false
	}
	return root, true
}

// Close releases the underlying boltdb file. The write-once lock is already
// released when Open returns.
func (x *BoltIndex) Close() error {
	return errors.Wrap(x.db.Close(), "closing index cache")
}
