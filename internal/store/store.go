// Package store holds the identifier-keyed tables the driver renders from:
// encoded scripts, decoded images and raw font data.
//
// Identifiers are opaque byte strings compared by exact equality. Each entry
// owns copies of its identifier and payload, so callers may reuse the
// buffers they pass in. All stores are safe for concurrent use; a reader
// holding an entry keeps a consistent snapshot even if the identifier is
// replaced concurrently.
package store

import (
	"sort"
	"sync"
)

// Store is an insert-or-replace table keyed by identifier.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]*T
}

// New returns an empty Store.
func New[T any]() *Store[T] {
	return &Store[T]{entries: make(map[string]*T)}
}

// Put stores v under id, returning the entry it replaced, if any.
func (s *Store[T]) Put(id string, v *T) (old *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old = s.entries[id]
	s.entries[id] = v
	return old
}

// Get returns the entry stored under id.
func (s *Store[T]) Get(id string) (*T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[id]
	return v, ok
}

// Delete removes id and reports whether it was present.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Reset drops every entry.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*T)
}

// Len returns the number of entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns the stored identifiers in sorted order.
func (s *Store[T]) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// swap atomically replaces the entry under id with the value fn derives from
// the current one (nil when absent). Entries are never mutated in place, so
// readers holding the previous value are unaffected.
func (s *Store[T]) swap(id string, fn func(old *T) (*T, error)) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := fn(s.entries[id])
	if err != nil {
		return nil, err
	}
	s.entries[id] = v
	return v, nil
}
