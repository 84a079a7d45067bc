package memory

import (
	"context"
	"sort"
	"sync"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]domain.TradeResult // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{data: make(map[string]domain.TradeResult)}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a settled trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(_ context.Context, t domain.TradeResult) error {
	if t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[t.TradeID] = t
	return nil
}

// InsertBulk adds multiple trades atomically. Fails the entire batch on
// any duplicate, existing or intra-batch.
func (s *TradeStore) InsertBulk(_ context.Context, trades []domain.TradeResult) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		s.data[t.TradeID] = t
	}
	return nil
}

// GetByID retrieves one trade. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (domain.TradeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[tradeID]
	if !ok {
		return domain.TradeResult{}, storage.ErrNotFound
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by entry time
// ASC, trade_id ASC.
func (s *TradeStore) GetBySymbol(_ context.Context, symbol string) ([]domain.TradeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TradeResult
	for _, t := range s.data {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	sortTrades(out)
	return out, nil
}

// GetBySymbolStrategy retrieves trades for one symbol/strategy pair,
// ordered by entry time ASC, trade_id ASC.
func (s *TradeStore) GetBySymbolStrategy(_ context.Context, symbol, strategy string) ([]domain.TradeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TradeResult
	for _, t := range s.data {
		if t.Symbol == symbol && t.Strategy == strategy {
			out = append(out, t)
		}
	}
	sortTrades(out)
	return out, nil
}

func sortTrades(trades []domain.TradeResult) {
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].EntryTime.Equal(trades[j].EntryTime) {
			return trades[i].EntryTime.Before(trades[j].EntryTime)
		}
		return trades[i].TradeID < trades[j].TradeID
	})
}
