package credentials

import "sync"

// MemoryStore is a [Store] that keeps credentials in memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
	saves int
}

// NewMemoryStore returns a MemoryStore preloaded with initial.
func NewMemoryStore(initial Credentials) *MemoryStore {
	return &MemoryStore{creds: initial}
}

// Load returns the last saved credentials.
func (m *MemoryStore) Load() (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

// Save replaces the stored credentials.
func (m *MemoryStore) Save(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = c
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
