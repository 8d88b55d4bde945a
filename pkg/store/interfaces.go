package store

import "context"

// Store is a durable key/value collaborator. Values are JSON documents.
type Store interface {
	// Enabled reports whether persistence is turned on for this store.
	Enabled() bool

	// Initialized reports whether Open completed successfully.
	Initialized() bool

	// Open connects to the backend and prepares it for use.
	Open(ctx context.Context) error

	// IsEmpty reports whether the store holds no keys.
	IsEmpty(ctx context.Context) (bool, error)

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases the backend's resources.
	Close() error
}
