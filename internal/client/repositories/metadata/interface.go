// Package metadata is a small key/value store for replica-level state:
// the last successful sync time, the device id and the sealed credential.
package metadata

import (
	"context"
	"time"
)

// Repository stores opaque values by key. Get returns (nil, nil) when the key
// is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMany returns the values of the keys that exist; absent keys are
	// missing from the map.
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// LastSync returns the time of the last committed sync, or nil if the
	// replica has never synced.
	LastSync(ctx context.Context) (*time.Time, error)
	SetLastSync(ctx context.Context, t time.Time) error
}
