package memory

import (
	"context"
	"sort"
	"sync"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	data map[string]domain.StrategyAggregate // keyed by symbol+"/"+strategy
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{data: make(map[string]domain.StrategyAggregate)}
}

var _ storage.AggregateStore = (*AggregateStore)(nil)

// Upsert inserts or replaces the aggregate for its symbol and strategy.
func (s *AggregateStore) Upsert(_ context.Context, agg domain.StrategyAggregate) error {
	if agg.Symbol == "" || agg.Strategy == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[agg.Symbol+"/"+agg.Strategy] = agg
	return nil
}

// List returns all aggregates ordered by symbol then strategy.
func (s *AggregateStore) List(_ context.Context) ([]domain.StrategyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StrategyAggregate, 0, len(s.data))
	for _, agg := range s.data {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out, nil
}
