// Package storage defines the store interfaces the engine and tooling
// read and write through. Relational state (symbols, trade log) lives in
// Postgres, high-volume timeseries (candles, per-candle snapshots) in
// ClickHouse; package memory backs both for tests and single-run use.
package storage

import (
	"context"
	"time"

	"futures-sim-lab/internal/domain"
)

// SymbolStore provides access to instrument metadata.
type SymbolStore interface {
	// Upsert inserts or updates a symbol's metadata.
	Upsert(ctx context.Context, m domain.SymbolMeta) error

	// Get retrieves one symbol. Returns ErrNotFound if not exists.
	Get(ctx context.Context, symbol string) (domain.SymbolMeta, error)

	// List retrieves all symbols ordered by symbol ASC.
	List(ctx context.Context) ([]domain.SymbolMeta, error)
}

// TradeStore provides access to the settled trade log.
type TradeStore interface {
	// Insert adds a settled trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t domain.TradeResult) error

	// InsertBulk adds multiple trades atomically. Fails the entire batch
	// on any duplicate.
	InsertBulk(ctx context.Context, trades []domain.TradeResult) error

	// GetByID retrieves one trade. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (domain.TradeResult, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by
	// entry time ASC, trade_id ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.TradeResult, error)

	// GetBySymbolStrategy retrieves trades for one symbol/strategy pair,
	// ordered by entry time ASC, trade_id ASC.
	GetBySymbolStrategy(ctx context.Context, symbol, strategy string) ([]domain.TradeResult, error)
}

// CandleStore provides access to the candle timeseries.
type CandleStore interface {
	// InsertBulk appends candles. Duplicate (symbol, timestamp) pairs
	// are the caller's responsibility; timeseries stores do not dedupe.
	InsertBulk(ctx context.Context, candles []domain.Candle) error

	// GetRange retrieves candles for a symbol within [start, end]
	// inclusive, ordered by timestamp ASC.
	GetRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error)
}

// SnapshotStore provides access to per-candle run snapshots.
type SnapshotStore interface {
	// InsertBulk appends snapshots.
	InsertBulk(ctx context.Context, snaps []domain.CandleSnapshot) error

	// GetBySymbolStrategy retrieves snapshots for one symbol/strategy
	// pair, ordered by timestamp ASC.
	GetBySymbolStrategy(ctx context.Context, symbol, strategy string) ([]domain.CandleSnapshot, error)
}

// AggregateStore provides access to per-strategy summary metrics.
type AggregateStore interface {
	// Upsert inserts or replaces the aggregate for (symbol, strategy).
	Upsert(ctx context.Context, agg domain.StrategyAggregate) error

	// List retrieves all aggregates ordered by symbol ASC, strategy ASC.
	List(ctx context.Context) ([]domain.StrategyAggregate, error)
}
