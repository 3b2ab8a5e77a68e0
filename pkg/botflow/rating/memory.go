package rating

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory rating store for tests and previews.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	ratings map[string][]Rating // sessionID -> ratings in submission order
	closed  bool
}

// NewMemoryStore creates a new in-memory rating store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ratings: make(map[string][]Rating),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(r Rating) error {
	if r.Stars < 1 || r.Stars > 5 {
		return ErrInvalidStars
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if r.At.IsZero() {
		r.At = time.Now().UTC()
	}
	m.ratings[r.SessionID] = append(m.ratings[r.SessionID], r)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(sessionID string) ([]Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := append([]Rating(nil), m.ratings[sessionID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

// DeleteSession implements Store.
func (m *MemoryStore) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.ratings, sessionID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.ratings = nil
	return nil
}

// Len returns the total number of stored ratings across all sessions.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rs := range m.ratings {
		count += len(rs)
	}
	return count
}
