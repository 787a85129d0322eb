package session

import (
	"context"
	"sync"
)

// Persistence puts and gets session snapshots.
type Persistence interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps snapshots in process. Used in tests and with
// SESSION_STORE=memory.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: make(map[string]Snapshot),
	}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sessionID] = snap
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.m[sessionID]
	return snap, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sessionID)
	return nil
}
