package session

import (
	"fmt"
	"sync"
)

// MemStore is an in-memory Store, used by tests and anywhere persistence
// across processes is not needed.
type MemStore struct {
	mu         sync.Mutex
	namespaces map[string]map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{namespaces: make(map[string]map[string][]byte)}
}

// Put implements Store.
func (s *MemStore) Put(namespace, key string, value []byte) error {
	return s.PutAll(namespace, map[string][]byte{key: value})
}

// PutAll implements Store.
func (s *MemStore) PutAll(namespace string, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.namespaces[namespace] = ns
	}
	for key, value := range values {
		cp := make([]byte, len(value))
		copy(cp, value)
		ns[key] = cp
	}
	return nil
}

// Get implements Store.
func (s *MemStore) Get(namespace, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.namespaces[namespace][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotExist, namespace, key)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

// Len returns the number of artifacts stored under a namespace.
func (s *MemStore) Len(namespace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.namespaces[namespace])
}
