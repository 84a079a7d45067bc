package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Candle // keyed by symbol
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{data: make(map[string][]domain.Candle)}
}

var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk appends candles.
func (s *CandleStore) InsertBulk(_ context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	for _, c := range candles {
		if c.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range candles {
		s.data[c.Symbol] = append(s.data[c.Symbol], c)
	}
	return nil
}

// GetRange retrieves candles for a symbol within [start, end] inclusive,
// ordered by timestamp ASC.
func (s *CandleStore) GetRange(_ context.Context, symbol string, start, end time.Time) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Candle
	for _, c := range s.data[symbol] {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
