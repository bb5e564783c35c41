package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestTracker(store Store) (*Tracker, *time.Time) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(store, 5, 15*time.Minute, zerolog.Nop())
	tr.now = func() time.Time { return current }
	return tr, &current
}

func TestTrackerAllowsFreshKey(t *testing.T) {
	tr, _ := newTestTracker(NewMemoryStore())

	decision := tr.Check(context.Background(), "10.0.0.1", "maria")
	if !decision.Allowed {
		t.Fatal("fresh key denied")
	}
	if decision.Remaining != 5 {
		t.Errorf("Remaining = %d, want 5", decision.Remaining)
	}
}

func TestTrackerLocksAfterMaxAttempts(t *testing.T) {
	tr, _ := newTestTracker(NewMemoryStore())
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if got := tr.RecordFailure(ctx, "10.0.0.1", "maria"); got != i {
			t.Fatalf("RecordFailure #%d returned %d", i, got)
		}
	}

	decision := tr.Check(ctx, "10.0.0.1", "maria")
	if decision.Allowed {
		t.Fatal("allowed after reaching max attempts")
	}
	if decision.LockoutUntil.IsZero() {
		t.Fatal("lockout decision has no LockoutUntil")
	}

	// Still denied while the window is open.
	if tr.Check(ctx, "10.0.0.1", "maria").Allowed {
		t.Fatal("allowed inside the lockout window")
	}
}

func TestTrackerKeyIsolatedByIPAndUsername(t *testing.T) {
	tr, _ := newTestTracker(NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tr.RecordFailure(ctx, "10.0.0.1", "maria")
	}
	if tr.Check(ctx, "10.0.0.1", "maria").Allowed {
		t.Fatal("locked key allowed")
	}

	if !tr.Check(ctx, "10.0.0.2", "maria").Allowed {
		t.Fatal("same username from another ip denied")
	}
	if !tr.Check(ctx, "10.0.0.1", "jose").Allowed {
		t.Fatal("another username from same ip denied")
	}
}

func TestTrackerUnlocksAfterWindow(t *testing.T) {
	store := NewMemoryStore()
	tr, current := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tr.RecordFailure(ctx, "10.0.0.1", "maria")
	}
	if tr.Check(ctx, "10.0.0.1", "maria").Allowed {
		t.Fatal("locked key allowed")
	}

	*current = current.Add(16 * time.Minute)

	decision := tr.Check(ctx, "10.0.0.1", "maria")
	if !decision.Allowed {
		t.Fatal("denied after the lockout window elapsed")
	}
	if decision.Remaining != 5 {
		t.Errorf("Remaining after reset = %d, want 5", decision.Remaining)
	}
}

func TestTrackerClear(t *testing.T) {
	tr, _ := newTestTracker(NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		tr.RecordFailure(ctx, "10.0.0.1", "maria")
	}
	tr.Clear(ctx, "10.0.0.1", "maria")

	decision := tr.Check(ctx, "10.0.0.1", "maria")
	if !decision.Allowed || decision.Remaining != 5 {
		t.Fatalf("Check after Clear = %+v, want clean state", decision)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (Record, bool, error) {
	return Record{}, false, context.DeadlineExceeded
}
func (failingStore) Put(context.Context, string, Record, time.Duration) error {
	return context.DeadlineExceeded
}
func (failingStore) Delete(context.Context, string) error {
	return context.DeadlineExceeded
}

func TestTrackerFailsOpenOnStoreErrors(t *testing.T) {
	tr, _ := newTestTracker(failingStore{})

	if !tr.Check(context.Background(), "10.0.0.1", "maria").Allowed {
		t.Fatal("store failure denied the attempt")
	}
}

func TestMemoryStorePurge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "a:maria", Record{Attempts: 2}, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "b:jose", Record{Attempts: 1}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if removed := store.Purge(time.Now().Add(5 * time.Minute)); removed != 1 {
		t.Fatalf("Purge removed %d entries, want 1", removed)
	}
	if _, found, _ := store.Get(ctx, "b:jose"); !found {
		t.Fatal("unexpired entry was purged")
	}
}
