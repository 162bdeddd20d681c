// Package cache keeps JSON snapshots of parsed source files, keyed on the
// source's modification time. The Apple exports are large XML documents
// that rarely change; re-parsing them on every merge run dominated run time
// before caching.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Store holds cache files under a single directory.
type Store struct {
	dir string
}

// NewStore builds a Store rooted at dir. The directory is created lazily on
// the first Put.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Valid reports whether the cache entry exists and is newer than the source
// path. A missing source invalidates the entry.
func (s *Store) Valid(name, sourcePath string) bool {
	src, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	entry, err := os.Stat(s.path(name))
	if err != nil {
		return false
	}
	return entry.ModTime().After(src.ModTime())
}

// Get decodes the cache entry into out.
func (s *Store) Get(name string, out any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Put encodes v into the cache entry. Failures are returned but callers
// treat them as advisory; a cold cache only costs a re-parse.
func (s *Store) Put(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(name), data, 0o644)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
