package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key or list holds no value.
var ErrNotFound = errors.New("cache: key not found")

// Cache is the local key-value store used as the offline fallback.
// Values are opaque bytes; callers store JSON. There is no locking between
// callers, the last write to a key wins.
type Cache interface {
	// Get retrieves a value by key. Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the specified TTL. TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes several keys at once.
	DeleteMany(ctx context.Context, keys ...string) error

	// Ping checks if the cache service is reachable.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// Queue is a FIFO list kept in the cache, used for the offline outbox.
type Queue interface {
	// PushBack appends a value to the tail of the list.
	PushBack(ctx context.Context, key string, value []byte) error

	// PushFront puts a value back at the head of the list.
	PushFront(ctx context.Context, key string, value []byte) error

	// PopFront removes and returns the head of the list. Returns ErrNotFound when empty.
	PopFront(ctx context.Context, key string) ([]byte, error)

	// Len returns the number of values in the list.
	Len(ctx context.Context, key string) (int64, error)
}
