package kamba

import (
	"context"
	"sync"
)

// InMemoryKeyValueStore is a KeyValueStore that lives for the duration of the process.
type InMemoryKeyValueStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewInMemoryKeyValueStore creates an empty in-memory store.
func NewInMemoryKeyValueStore() *InMemoryKeyValueStore {
	return &InMemoryKeyValueStore{
		values: make(map[string]string),
	}
}

// Get returns the value stored under key and whether it was present.
func (s *InMemoryKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	return value, exists, nil
}

// Set stores value under key, replacing any previous value.
func (s *InMemoryKeyValueStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Remove deletes key.
func (s *InMemoryKeyValueStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
