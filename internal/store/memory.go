package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

// MemoryStore keeps encoded snapshots in memory. Used when no durable
// backend is configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	saves int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load decodes the stored snapshot over snap.
func (s *MemoryStore) Load(_ context.Context, key string, snap *game.Snapshot) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := msgpack.Unmarshal(data, snap); err != nil {
		return false, fmt.Errorf("store: decode snapshot %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the stored snapshot.
func (s *MemoryStore) Save(_ context.Context, key string, snap *game.Snapshot) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot %s: %w", key, err)
	}

	s.mu.Lock()
	s.data[key] = data
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves returns how many writes succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
