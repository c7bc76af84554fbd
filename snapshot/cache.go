package snapshot

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL is how long a computed snapshot is served without recomputation.
const DefaultTTL = time.Hour

// Store is the persistence behind the cache.
type Store interface {
	Get(ctx context.Context, key Key) (Snapshot, bool, error)
	Upsert(ctx context.Context, s Snapshot) (Snapshot, error)
}

// Policy decides whether a stored snapshot may be served as is.
type Policy struct {
	TTL time.Duration
}

// Fresh reports whether a snapshot last written at updatedAt is still within
// the TTL at now. A non-positive TTL disables caching.
func (p Policy) Fresh(updatedAt, now time.Time) bool {
	if p.TTL <= 0 || updatedAt.IsZero() {
		return false
	}
	return updatedAt.After(now.Add(-p.TTL))
}

// Cache layers the freshness policy over a Store.
type Cache struct {
	store  Store
	policy Policy
	now    func() time.Time
}

// NewCache creates a cache that serves entries from store while policy
// considers them fresh.
func NewCache(store Store, policy Policy) *Cache {
	return &Cache{store: store, policy: policy, now: time.Now}
}

// WithClock replaces the wall clock used for freshness checks.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Lookup returns the stored snapshot only when it is fresh.
func (c *Cache) Lookup(ctx context.Context, key Key) (Snapshot, bool, error) {
	s, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return Snapshot{}, false, err
	}
	if !ok || !c.policy.Fresh(s.UpdatedAt, c.now()) {
		return Snapshot{}, false, nil
	}
	return s, true, nil
}

// Put stamps the snapshot with the current time and overwrites any stored
// value for its key.
func (c *Cache) Put(ctx context.Context, s Snapshot) (Snapshot, error) {
	if !s.Period.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s.Period)
	}
	s.UpdatedAt = c.now()
	return c.store.Upsert(ctx, s)
}
