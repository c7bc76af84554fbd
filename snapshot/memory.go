package snapshot

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps snapshots in process. It backs the cache in tests and in
// deployments without a database for derived data.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

// NewMemoryStore creates an empty in-process snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Snapshot)}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[key.String()]
	return s, ok, nil
}

func (m *MemoryStore) Upsert(_ context.Context, s Snapshot) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := s.Key().String()
	if prev, ok := m.items[k]; ok {
		s.ID = prev.ID
	} else if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.items[k] = s
	return s, nil
}
