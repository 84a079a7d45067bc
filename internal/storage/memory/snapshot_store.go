package memory

import (
	"context"
	"sort"
	"sync"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []domain.CandleSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk appends snapshots.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []domain.CandleSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap.Symbol == "" || snap.Strategy == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, snapshots...)
	return nil
}

// GetBySymbolStrategy retrieves snapshots for a symbol and strategy,
// ordered by timestamp ASC.
func (s *SnapshotStore) GetBySymbolStrategy(_ context.Context, symbol, strategy string) ([]domain.CandleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CandleSnapshot
	for _, snap := range s.data {
		if snap.Symbol == symbol && snap.Strategy == strategy {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
