// Package storage persists small JSON values for the client: the auth token,
// the cached user record, notification preferences and the notification log.
//
// Three interchangeable backends implement KV: SQLite (default, a single
// file next to the binary), Redis (shared between machines) and an in-memory
// map used by tests.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by MemoryKV after Close.
var ErrClosed = errors.New("storage closed")

// KV is a flat key-value store.
//
// Contract:
//   - Get returns (nil, nil) when the key does not exist.
//   - Set inserts or overwrites.
//   - Remove deletes every given key; missing keys are not an error. Backends
//     remove all keys of one call atomically where they can.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
}
