package metadata

import (
	"context"
)

// Repository is a raw key/value table. Values are opaque bytes; encryption
// is layered on top by the secure store.
type Repository interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
