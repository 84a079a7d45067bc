package clickhouse

import (
	"context"
	"fmt"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// AggregateStore implements storage.AggregateStore using ClickHouse.
// The table is a ReplacingMergeTree keyed on (symbol, strategy) with an
// insert-time version column, so Upsert is a plain insert and reads use
// FINAL.
type AggregateStore struct {
	conn *Conn
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(conn *Conn) *AggregateStore {
	return &AggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

const aggregateColumns = `
	symbol, strategy,
	total_trades, wins, losses, win_rate, unfilled,
	pnl_mean, pnl_median, pnl_p10, pnl_p90, pnl_min, pnl_max, pnl_stddev,
	max_drawdown, max_consecutive_losses,
	final_balance, min_balance, max_balance
`

// Upsert inserts or replaces the aggregate for (symbol, strategy).
func (s *AggregateStore) Upsert(ctx context.Context, a domain.StrategyAggregate) error {
	if a.Symbol == "" || a.Strategy == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO strategy_aggregates (` + aggregateColumns + `, version)
		VALUES (
			?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?,
			?, ?,
			?, ?, ?,
			now64(3)
		)
	`

	err := s.conn.Exec(ctx, query,
		a.Symbol, a.Strategy,
		a.TotalTrades, a.Wins, a.Losses, a.WinRate, a.Unfilled,
		a.PnlMean, a.PnlMedian, a.PnlP10, a.PnlP90, a.PnlMin, a.PnlMax, a.PnlStddev,
		a.MaxDrawdown, a.MaxConsecutiveLosses,
		a.FinalBalance, a.MinBalance, a.MaxBalance,
	)
	if err != nil {
		return fmt.Errorf("upsert strategy aggregate: %w", err)
	}
	return nil
}

// List retrieves all aggregates ordered by symbol ASC, strategy ASC.
func (s *AggregateStore) List(ctx context.Context) ([]domain.StrategyAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM strategy_aggregates FINAL
		ORDER BY symbol ASC, strategy ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategy aggregates: %w", err)
	}
	defer rows.Close()

	var out []domain.StrategyAggregate
	for rows.Next() {
		var a domain.StrategyAggregate
		var totalTrades, wins, losses, unfilled, maxLosses uint32
		err := rows.Scan(
			&a.Symbol, &a.Strategy,
			&totalTrades, &wins, &losses, &a.WinRate, &unfilled,
			&a.PnlMean, &a.PnlMedian, &a.PnlP10, &a.PnlP90, &a.PnlMin, &a.PnlMax, &a.PnlStddev,
			&a.MaxDrawdown, &maxLosses,
			&a.FinalBalance, &a.MinBalance, &a.MaxBalance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan strategy aggregate row: %w", err)
		}
		a.TotalTrades = int(totalTrades)
		a.Wins = int(wins)
		a.Losses = int(losses)
		a.Unfilled = int(unfilled)
		a.MaxConsecutiveLosses = int(maxLosses)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy aggregate rows: %w", err)
	}
	return out, nil
}
