package store

import (
	"sync"
	"time"
)

// subscriberBuffer is the channel buffer size per subscriber.
const subscriberBuffer = 16

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage of a single [View] with a
// publish-subscribe mechanism for real-time updates. Snapshots are sent
// non-blocking; if a subscriber's buffer is full, the snapshot is dropped for
// that subscriber to prevent blocking the poll loop.
type MemoryStore struct {
	mu          sync.RWMutex
	view        View
	subscribers map[chan View]struct{}
	subMu       sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates a new in-memory [Store] holding initial.
func NewMemoryStore(initial View) *MemoryStore {
	return &MemoryStore{
		view:        initial.clone(),
		subscribers: make(map[chan View]struct{}),
		now:         time.Now,
	}
}

// Update applies fn to the view and notifies all subscribers.
//
// Updates are serialized; subscribers observe them in the order they were
// applied.
func (m *MemoryStore) Update(fn func(v *View)) {
	m.mu.Lock()
	next := m.view.clone()
	fn(&next)
	next.ChangedAt = m.now()
	m.view = next
	snapshot := next.clone()

	// notify while still holding the write lock so frames cannot be reordered
	m.notifySubscribers(snapshot)
	m.mu.Unlock()
}

// Snapshot returns a copy of the current view.
func (m *MemoryStore) Snapshot() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view.clone()
}

// Subscribe creates a new subscription and returns a channel for receiving
// snapshots.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan View {
	ch := make(chan View, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan View) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers.
//
// Subscribers share the snapshot and must treat it as read-only.
func (m *MemoryStore) notifySubscribers(v View) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- v:
		default:
			// subscriber is slow, drop the frame
		}
	}
}
