package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/transcriptd/transcriptd/internal"
)

// FakeStore is an in-memory ObjectStore for tests. Failures are injected
// per call site: ListErr fails every listing, GetErr fails every fetch,
// and FailKeys fails fetches of specific keys.
type FakeStore struct {
	Objects  map[string][]byte
	ListErr  error
	GetErr   error
	FailKeys map[string]error
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Objects:  make(map[string][]byte),
		FailKeys: make(map[string]error),
	}
}

// Put stores one object.
func (s *FakeStore) Put(key string, data []byte) {
	s.Objects[key] = data
}

// PutLines stores a JSONL object assembled from the given lines.
func (s *FakeStore) PutLines(key string, lines ...string) {
	s.Objects[key] = []byte(strings.Join(lines, "\n") + "\n")
}

// ListKeys returns all keys with the prefix, sorted.
func (s *FakeStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if s.ListErr != nil {
		return nil, &internal.StoreError{Op: "list", Key: prefix, Err: s.ListErr}
	}
	var keys []string
	for key := range s.Objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetObject fetches one object.
func (s *FakeStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if s.GetErr != nil {
		return nil, &internal.StoreError{Op: "get", Key: key, Err: s.GetErr}
	}
	if err, ok := s.FailKeys[key]; ok {
		return nil, &internal.StoreError{Op: "get", Key: key, Err: err}
	}
	data, ok := s.Objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, internal.ErrObjectNotFound)
	}
	return data, nil
}
