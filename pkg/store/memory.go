package store

import "sync"

// memoryStore implements Store using an in-memory map.
// Useful for testing.
type memoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemory creates an in-memory store.
//
// Returns a configured Store. Data does not survive process exit;
// intended for tests and dry runs.
func NewMemory() Store {
	return &memoryStore{
		values: make(map[string][]byte),
	}
}

// Get implements Store.Get.
func (s *memoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	value, exists := s.values[key]
	if !exists {
		return nil, ErrKeyNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set implements Store.Set.
func (s *memoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

// Delete implements Store.Delete.
func (s *memoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.values, key)
	return nil
}

// Update implements Store.Update.
func (s *memoryStore) Update(key string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	var current []byte
	if value, exists := s.values[key]; exists {
		current = make([]byte, len(value))
		copy(current, value)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if next == nil {
		delete(s.values, key)
		return nil
	}

	stored := make([]byte, len(next))
	copy(stored, next)
	s.values[key] = stored
	return nil
}

// Close implements Store.Close.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
