package postgres

import (
	"context"
	"fmt"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// SymbolStore implements storage.SymbolStore using PostgreSQL.
type SymbolStore struct {
	pool *Pool
}

// NewSymbolStore creates a new SymbolStore.
func NewSymbolStore(pool *Pool) *SymbolStore {
	return &SymbolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SymbolStore = (*SymbolStore)(nil)

// Upsert inserts or updates a symbol's metadata.
func (s *SymbolStore) Upsert(ctx context.Context, m domain.SymbolMeta) error {
	if m.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO symbols (symbol, symbol_short, exchange_symbol, price_precision, is_altcoin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			symbol_short = EXCLUDED.symbol_short,
			exchange_symbol = EXCLUDED.exchange_symbol,
			price_precision = EXCLUDED.price_precision,
			is_altcoin = EXCLUDED.is_altcoin
	`

	_, err := s.pool.Exec(ctx, query,
		m.Symbol, m.SymbolShort, m.ExchangeSymbol, m.Precision, m.IsAltcoin,
	)
	if err != nil {
		return fmt.Errorf("upsert symbol: %w", err)
	}
	return nil
}

// Get retrieves one symbol. Returns ErrNotFound if not exists.
func (s *SymbolStore) Get(ctx context.Context, symbol string) (domain.SymbolMeta, error) {
	query := `
		SELECT symbol, symbol_short, exchange_symbol, price_precision, is_altcoin
		FROM symbols
		WHERE symbol = $1
	`

	var m domain.SymbolMeta
	err := s.pool.QueryRow(ctx, query, symbol).Scan(
		&m.Symbol, &m.SymbolShort, &m.ExchangeSymbol, &m.Precision, &m.IsAltcoin,
	)
	if err != nil {
		if isNotFoundError(err) {
			return domain.SymbolMeta{}, storage.ErrNotFound
		}
		return domain.SymbolMeta{}, fmt.Errorf("get symbol: %w", err)
	}
	return m, nil
}

// List retrieves all symbols ordered by symbol ASC.
func (s *SymbolStore) List(ctx context.Context) ([]domain.SymbolMeta, error) {
	query := `
		SELECT symbol, symbol_short, exchange_symbol, price_precision, is_altcoin
		FROM symbols
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []domain.SymbolMeta
	for rows.Next() {
		var m domain.SymbolMeta
		err := rows.Scan(&m.Symbol, &m.SymbolShort, &m.ExchangeSymbol, &m.Precision, &m.IsAltcoin)
		if err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return out, nil
}
