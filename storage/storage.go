// Package storage implements the server's in-memory key/value map
// (spec §4.B): a single mutex serializes all access, store()
// unconditionally overwrites, there is no TTL and no eviction.
package storage

import "sync"

// Map is a thread-safe key -> bytes map. The zero value is ready to use.
type Map struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMap returns an empty, ready-to-use Map.
func NewMap() *Map {
	return &Map{data: make(map[string][]byte)}
}

// Store replaces any existing value for key (last-writer-wins).
func (m *Map) Store(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	// Copy so the caller's buffer can be reused/freed independently.
	m.data[key] = append([]byte(nil), value...)
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Exists reports whether key is present.
func (m *Map) Exists(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Remove deletes key and reports whether it was present.
func (m *Map) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

// Keys returns a snapshot of every key currently stored. Insertion
// order is not preserved.
func (m *Map) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Count returns the number of distinct keys currently stored.
func (m *Map) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Reset clears the map. Test-only convenience, not part of the
// wire-facing contract.
func (m *Map) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
}
