package session

import (
	"context"
	"sync"

	domain "exhibition/internal/domain/session"
)

// MemoryStore implements Store in process memory.
// Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.Session)}
}

// Load retrieves the session stored under key.
func (m *MemoryStore) Load(_ context.Context, key string) (domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return s, nil
}

// Save stores a session under key, replacing any previous value.
func (m *MemoryStore) Save(_ context.Context, key string, value domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = value
	return nil
}

// Delete removes the session stored under key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
