package internal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore is an object store rooted at a local directory. Keys are
// slash-separated paths relative to the root. Listing returns keys in
// lexicographic order, which is the discovery order the merger relies on.
type DirStore struct {
	root string
}

// NewDirStore opens a directory-backed store. The root must exist.
func NewDirStore(root string) (*DirStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &StoreError{Op: "open", Key: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &StoreError{Op: "open", Key: root, Err: fmt.Errorf("not a directory")}
	}
	return &DirStore{root: root}, nil
}

// ListKeys walks the tree and returns every file key starting with
// prefix, sorted.
func (s *DirStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "list", Key: prefix, Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetObject reads one object by key.
func (s *DirStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// resolve maps a key to a filesystem path, rejecting keys that would
// escape the root.
func (s *DirStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", &StoreError{Op: "get", Key: key, Err: fmt.Errorf("key escapes store root")}
	}
	return filepath.Join(s.root, clean), nil
}
