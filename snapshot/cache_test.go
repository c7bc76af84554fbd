package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicyFresh(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := Policy{TTL: time.Hour}

	if !p.Fresh(now.Add(-59*time.Minute), now) {
		t.Fatal("expected 59 minute old snapshot to be fresh")
	}
	if p.Fresh(now.Add(-time.Hour), now) {
		t.Fatal("expected snapshot exactly one hour old to be stale")
	}
	if p.Fresh(now.Add(-2*time.Hour), now) {
		t.Fatal("expected two hour old snapshot to be stale")
	}
	if p.Fresh(time.Time{}, now) {
		t.Fatal("zero timestamp is never fresh")
	}
	if (Policy{}).Fresh(now, now) {
		t.Fatal("zero TTL disables caching")
	}
}

func TestCacheLookupHonoursTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewCache(NewMemoryStore(), Policy{TTL: time.Hour}).WithClock(clock)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	key := Key{Period: PeriodMonthly, PeriodStart: start}

	if _, ok, err := cache.Lookup(ctx, key); err != nil || ok {
		t.Fatalf("expected miss on empty cache, ok=%v err=%v", ok, err)
	}

	saved, err := cache.Put(ctx, Snapshot{Period: PeriodMonthly, PeriodStart: start, TotalFiled: 4})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !saved.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt stamped with clock, got %v", saved.UpdatedAt)
	}
	if saved.ID == "" {
		t.Fatal("expected an id to be assigned")
	}

	now = now.Add(30 * time.Minute)
	got, ok, err := cache.Lookup(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit within ttl, ok=%v err=%v", ok, err)
	}
	if got.TotalFiled != 4 || got.ID != saved.ID {
		t.Fatalf("unexpected cached snapshot %+v", got)
	}

	now = now.Add(31 * time.Minute)
	if _, ok, _ := cache.Lookup(ctx, key); ok {
		t.Fatal("expected miss after ttl elapsed")
	}

	again, err := cache.Put(ctx, Snapshot{Period: PeriodMonthly, PeriodStart: start, TotalFiled: 5})
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if again.ID != saved.ID {
		t.Fatalf("expected overwrite in place, ids %s vs %s", again.ID, saved.ID)
	}
}

func TestCachePutRejectsUnknownPeriod(t *testing.T) {
	cache := NewCache(NewMemoryStore(), Policy{TTL: time.Hour})
	_, err := cache.Put(context.Background(), Snapshot{Period: "weekly"})
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, Key) (Snapshot, bool, error) {
	return Snapshot{}, false, f.err
}

func (f failingStore) Upsert(context.Context, Snapshot) (Snapshot, error) {
	return Snapshot{}, f.err
}

func TestCacheLookupPropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")
	cache := NewCache(failingStore{err: boom}, Policy{TTL: time.Hour})
	if _, _, err := cache.Lookup(context.Background(), Key{Period: PeriodYearly}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
