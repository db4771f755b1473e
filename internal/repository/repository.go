package repository

import (
	"context"
)

// KeyValueStore is the durable key-value capability the stores persist
// their snapshots to.
type KeyValueStore interface {
	// Get returns the value stored under key, or an error wrapping
	// apperrors.ErrNotFound if there is none.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
