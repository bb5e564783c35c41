// Package ratelimit tracks failed login attempts per (ip, username) pair and
// enforces a temporary lockout after repeated failures. The backing store is
// injected so a shared deployment can keep counters in redis while a single
// node runs entirely in memory.
package ratelimit

import (
	"context"
	"time"
)

// Record is the per-key attempt state. A zero Record is the clean state.
type Record struct {
	Attempts     int       `json:"attempts"`
	LockoutUntil time.Time `json:"lockout_until"`
}

type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
