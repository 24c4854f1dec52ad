// Package keyval defines the persisted record store the client keeps its
// state in: a flat namespace of small JSON documents addressed by
// well-known keys, shared by every execution context of the same user.
package keyval

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("keyval: key not found")

// Event describes a write (or delete) of a watched key.
type Event struct {
	Key    string
	Origin string
}

// Store is one context's handle on the shared record namespace. Origin
// identifies the handle so watchers can tell foreign writes from their own.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Origin() string
}

// Watcher delivers change events for a key made by *other* contexts.
// The channel is closed when ctx is cancelled. Backends without a
// notification channel simply do not implement Watcher; callers fall
// back to polling.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan Event, error)
}
