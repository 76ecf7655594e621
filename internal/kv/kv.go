// Package kv provides the small key-value abstraction shared by the session
// and draft stores, with an in-process backend and a Redis backend.
package kv

import (
	"context"
	"time"
)

// Store holds opaque values under string keys. A zero ttl keeps the value
// until it is deleted. Get reports a missing or expired key as found=false
// with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
