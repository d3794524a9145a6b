package storage

import (
	"context"
	"errors"
)

// ErrUnavailable wraps backend I/O failures.
var ErrUnavailable = errors.New("storage unavailable")

// Backend is a string key-value store.
type Backend interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Change describes a single key mutation.
type Change struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// Watcher is implemented by backends that can report mutations, including
// ones made by other processes sharing the same data.
//
// The returned channel is closed once ctx is done or the backend stops
// delivering.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

const watchBuffer = 16
