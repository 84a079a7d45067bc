package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, symbol, strategy, trade_num, status, side,
	entry_time, exit_time, entry_price, exit_price,
	target_contracts, filled_contracts,
	conf, pnl, exit_balance, duration, forced
`

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, symbol, strategy, trade_num, status, side,
		entry_time, exit_time, entry_price, exit_price,
		target_contracts, filled_contracts,
		conf, pnl, exit_balance, duration, forced
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12,
		$13, $14, $15, $16, $17
	)
`

// Insert adds a settled trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t domain.TradeResult) error {
	if t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails the entire batch on
// any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []domain.TradeResult) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves one trade. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (domain.TradeResult, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return domain.TradeResult{}, storage.ErrNotFound
		}
		return domain.TradeResult{}, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by entry time
// ASC, trade_id ASC.
func (s *TradeStore) GetBySymbol(ctx context.Context, symbol string) ([]domain.TradeResult, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE symbol = $1
		ORDER BY entry_time ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetBySymbolStrategy retrieves trades for one symbol/strategy pair,
// ordered by entry time ASC, trade_id ASC.
func (s *TradeStore) GetBySymbolStrategy(ctx context.Context, symbol, strategy string) ([]domain.TradeResult, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE symbol = $1 AND strategy = $2
		ORDER BY entry_time ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, strategy)
	if err != nil {
		return nil, fmt.Errorf("get trades by symbol/strategy: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func tradeArgs(t domain.TradeResult) []any {
	return []any{
		t.TradeID, t.Symbol, t.Strategy, t.TradeNum, t.Status, t.Side,
		t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice,
		t.TargetContracts, t.FilledContracts,
		t.Conf, t.Pnl, t.ExitBalance, t.Duration, t.Forced,
	}
}

// scanTrade scans a single row into a TradeResult.
func scanTrade(row pgx.Row) (domain.TradeResult, error) {
	var t domain.TradeResult
	err := row.Scan(
		&t.TradeID, &t.Symbol, &t.Strategy, &t.TradeNum, &t.Status, &t.Side,
		&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice,
		&t.TargetContracts, &t.FilledContracts,
		&t.Conf, &t.Pnl, &t.ExitBalance, &t.Duration, &t.Forced,
	)
	if err != nil {
		return domain.TradeResult{}, err
	}
	return t, nil
}

// scanTrades scans multiple rows into a slice of TradeResult.
func scanTrades(rows pgx.Rows) ([]domain.TradeResult, error) {
	var trades []domain.TradeResult

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}
