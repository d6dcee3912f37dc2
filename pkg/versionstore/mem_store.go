package versionstore

import (
	"sync"
)

// MemStore is a map-backed Store for tests. Data is not persisted. Grounded
// on the teacher's storage.MemStorage (an in-memory stand-in used by its own
// test suite, there backed by llrb trees per column family; here a single
// map is enough since lookups are by exact key, never a range scan).
type MemStore struct {
	mu   sync.Mutex
	data map[Key][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[Key][]byte)}
}

func (s *MemStore) Reserve(key Key, size int, fill func(buf []byte)) error {
	buf := make([]byte, size)
	fill(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = buf
	return nil
}

func (s *MemStore) Retrieve(key Key, read func(buf []byte) error) (bool, error) {
	s.mu.Lock()
	buf, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := read(buf); err != nil {
		return true, err
	}
	return true, nil
}

func (s *MemStore) Remove(key Key) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Close() error {
	return nil
}
