// Package memory implements an in-process key-value backend. Nothing
// survives a restart; it exists for tests and for running the catalog
// browser without touching disk.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
)

type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ kv.Backend = (*Store)(nil)

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("get %q: %w", key, kv.ErrNotFound)
	}
	return v, nil
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
