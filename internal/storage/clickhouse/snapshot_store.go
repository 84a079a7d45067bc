package clickhouse

import (
	"context"
	"fmt"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk appends snapshots via a prepared batch.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snaps []domain.CandleSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	for _, snap := range snaps {
		if snap.Symbol == "" || snap.Strategy == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO run_snapshots (
			symbol, strategy, ts, balance, status, contracts, pnl
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		err = batch.Append(
			snap.Symbol, snap.Strategy, snap.Timestamp,
			snap.Balance, int8(snap.Status), int64(snap.Contracts), snap.Pnl,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySymbolStrategy retrieves snapshots for one symbol/strategy pair,
// ordered by timestamp ASC.
func (s *SnapshotStore) GetBySymbolStrategy(ctx context.Context, symbol, strategy string) ([]domain.CandleSnapshot, error) {
	query := `
		SELECT symbol, strategy, ts, balance, status, contracts, pnl
		FROM run_snapshots
		WHERE symbol = ? AND strategy = ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, strategy)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.CandleSnapshot
	for rows.Next() {
		var snap domain.CandleSnapshot
		var status int8
		var contracts int64
		err := rows.Scan(
			&snap.Symbol, &snap.Strategy, &snap.Timestamp,
			&snap.Balance, &status, &contracts, &snap.Pnl,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Status = int(status)
		snap.Contracts = int(contracts)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}
