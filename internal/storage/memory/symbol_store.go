// Package memory implements the storage interfaces with in-process maps.
// Used by tests and single-run backtests that do not need a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// SymbolStore is an in-memory implementation of storage.SymbolStore.
type SymbolStore struct {
	mu   sync.RWMutex
	data map[string]domain.SymbolMeta
}

// NewSymbolStore creates a new in-memory symbol store.
func NewSymbolStore() *SymbolStore {
	return &SymbolStore{data: make(map[string]domain.SymbolMeta)}
}

var _ storage.SymbolStore = (*SymbolStore)(nil)

// Upsert inserts or updates a symbol's metadata.
func (s *SymbolStore) Upsert(_ context.Context, m domain.SymbolMeta) error {
	if m.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[m.Symbol] = m
	return nil
}

// Get retrieves one symbol. Returns ErrNotFound if not exists.
func (s *SymbolStore) Get(_ context.Context, symbol string) (domain.SymbolMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[symbol]
	if !ok {
		return domain.SymbolMeta{}, storage.ErrNotFound
	}
	return m, nil
}

// List retrieves all symbols ordered by symbol ASC.
func (s *SymbolStore) List(_ context.Context) ([]domain.SymbolMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SymbolMeta, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
