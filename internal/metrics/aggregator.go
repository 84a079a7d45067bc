// Package metrics computes per-strategy summary statistics over the
// settled trade log.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// ErrNoTrades is returned when no trades are available for aggregation.
var ErrNoTrades = errors.New("no trades available for aggregation")

// Aggregator computes strategy aggregates from the trade log.
type Aggregator struct {
	tradeStore storage.TradeStore
	aggStore   storage.AggregateStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(tradeStore storage.TradeStore, aggStore storage.AggregateStore) *Aggregator {
	return &Aggregator{
		tradeStore: tradeStore,
		aggStore:   aggStore,
	}
}

// ComputeAggregate loads all settled trades for one symbol/strategy pair,
// computes the aggregate and persists it. Returns ErrNoTrades if the pair
// has no trades.
func (a *Aggregator) ComputeAggregate(ctx context.Context, symbol, strategy string) (domain.StrategyAggregate, error) {
	trades, err := a.tradeStore.GetBySymbolStrategy(ctx, symbol, strategy)
	if err != nil {
		return domain.StrategyAggregate{}, fmt.Errorf("loading trades for %s/%s: %w", symbol, strategy, err)
	}
	if len(trades) == 0 {
		return domain.StrategyAggregate{}, ErrNoTrades
	}

	agg := computeFromTrades(symbol, strategy, trades)

	if err := a.aggStore.Upsert(ctx, agg); err != nil {
		return domain.StrategyAggregate{}, fmt.Errorf("storing aggregate for %s/%s: %w", symbol, strategy, err)
	}
	return agg, nil
}

// ComputeAll recomputes aggregates for every symbol/strategy pair present
// in the trade log of the given symbols.
func (a *Aggregator) ComputeAll(ctx context.Context, symbols []string) ([]domain.StrategyAggregate, error) {
	var out []domain.StrategyAggregate
	for _, symbol := range symbols {
		trades, err := a.tradeStore.GetBySymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("loading trades for %s: %w", symbol, err)
		}

		seen := make(map[string]struct{})
		for _, t := range trades {
			if _, ok := seen[t.Strategy]; ok {
				continue
			}
			seen[t.Strategy] = struct{}{}

			agg, err := a.ComputeAggregate(ctx, symbol, t.Strategy)
			if err != nil {
				return nil, err
			}
			out = append(out, agg)
		}
	}
	return out, nil
}
