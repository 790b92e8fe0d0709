package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemorySource is an in-memory [Source].
//
// Scan returns items sorted by domain. SetDistroOpen fails with
// [ErrUnknownDomain] for domains that were never added.
type MemorySource struct {
	mu      sync.RWMutex
	items   map[string]Item
	scanErr error
	scans   int
}

// NewMemorySource returns a MemorySource holding items.
func NewMemorySource(items ...Item) *MemorySource {
	m := &MemorySource{items: make(map[string]Item, len(items))}
	for _, it := range items {
		m.items[it.Domain] = it
	}
	return m
}

// Put inserts or replaces an item.
func (m *MemorySource) Put(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.Domain] = item
}

// Get returns the item for domain.
func (m *MemorySource) Get(domain string) (Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[domain]
	return it, ok
}

// SetScanError makes every following Scan fail with err. A nil err clears it.
func (m *MemorySource) SetScanError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanErr = err
}

// Scans returns how many times Scan was called.
func (m *MemorySource) Scans() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scans
}

// Scan returns a copy of all items.
func (m *MemorySource) Scan(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	if m.scanErr != nil {
		return nil, m.scanErr
	}

	items := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Domain < items[j].Domain })
	return items, nil
}

// SetDistroOpen updates distro_open for an existing domain.
func (m *MemorySource) SetDistroOpen(ctx context.Context, domain string, open bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[domain]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	it.DistroOpen = open
	m.items[domain] = it
	return nil
}
