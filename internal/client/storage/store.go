// Package storage is the worker's durable key/value store: the counterpart
// of the extension's local storage area. Values are JSON documents keyed by
// the names in internal/common.
package storage

import (
	"context"
)

// Store is a durable key/value map.
//
// Get returns (nil, nil) for an absent key. SetMany and Delete apply all of
// their changes atomically; callers rely on this to keep the session's token
// and user written together.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
