// Package cache provides the TTL key/value store the pipeline uses as a
// best-effort accelerator. Failures never surface as errors: a miss and a
// broken backend look the same to callers, which recompute and move on.
package cache

import (
	"context"
	"time"
)

// Store is a key/value store with per-entry time-to-live.
// Get returns (nil, false) on miss, expiry, or backend failure.
// Set and Delete report success but never raise; all methods are safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
}
