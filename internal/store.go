package internal

import "context"

// ObjectStore is the capability the merger needs from a bucket: list
// keys under a prefix and fetch one object. Both calls can fail
// independently; implementations must report absence via
// ErrObjectNotFound and everything else via StoreError so callers can
// tell "not there" apart from "store is down".
type ObjectStore interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}
