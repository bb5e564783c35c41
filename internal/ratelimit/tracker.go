package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

type Decision struct {
	Allowed      bool
	Remaining    int
	LockoutUntil time.Time
}

// Tracker implements the per-key state machine: clean while attempts is zero,
// warning below the threshold, locked once attempts reach MaxAttempts. A
// lockout expires on its own; a successful login clears the key.
type Tracker struct {
	store       Store
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

func NewTracker(store Store, maxAttempts int, lockout time.Duration, log zerolog.Logger) *Tracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockoutDuration
	}
	return &Tracker{
		store:       store,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
		log:         log,
	}
}

func attemptKey(ip, username string) string {
	return fmt.Sprintf("%s:%s", ip, username)
}

// Check decides whether a login attempt may proceed. Store failures allow the
// attempt: password verification is the actual gate, the tracker only slows
// guessing down.
func (t *Tracker) Check(ctx context.Context, ip, username string) Decision {
	key := attemptKey(ip, username)
	now := t.now()

	rec, found, err := t.store.Get(ctx, key)
	if err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("attempt store read failed")
		return Decision{Allowed: true, Remaining: t.maxAttempts}
	}

	if found && !rec.LockoutUntil.IsZero() && now.Before(rec.LockoutUntil) {
		return Decision{Allowed: false, LockoutUntil: rec.LockoutUntil}
	}

	if !found || (!rec.LockoutUntil.IsZero() && now.After(rec.LockoutUntil)) {
		// Lockout window elapsed (or nothing recorded): back to clean.
		if found {
			if err := t.store.Delete(ctx, key); err != nil {
				t.log.Warn().Err(err).Str("key", key).Msg("attempt store reset failed")
			}
		}
		return Decision{Allowed: true, Remaining: t.maxAttempts}
	}

	if rec.Attempts >= t.maxAttempts {
		rec.LockoutUntil = now.Add(t.lockout)
		if err := t.store.Put(ctx, key, rec, t.lockout*2); err != nil {
			t.log.Warn().Err(err).Str("key", key).Msg("attempt store lockout write failed")
		}
		return Decision{Allowed: false, LockoutUntil: rec.LockoutUntil}
	}

	return Decision{Allowed: true, Remaining: t.maxAttempts - rec.Attempts}
}

// RecordFailure increments the counter for a failed attempt and returns the
// running total.
func (t *Tracker) RecordFailure(ctx context.Context, ip, username string) int {
	key := attemptKey(ip, username)

	rec, _, err := t.store.Get(ctx, key)
	if err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("attempt store read failed")
	}

	rec.Attempts++
	if err := t.store.Put(ctx, key, rec, t.lockout*2); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("attempt store write failed")
	}
	return rec.Attempts
}

// Clear resets the key after a successful login.
func (t *Tracker) Clear(ctx context.Context, ip, username string) {
	key := attemptKey(ip, username)
	if err := t.store.Delete(ctx, key); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("attempt store clear failed")
	}
}
