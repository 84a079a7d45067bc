package engine

import (
	"context"
	"fmt"

	"futures-sim-lab/internal/domain"
)

// Backtest drives one symbol's candle stream through a set of strategies
// sharing a single account. One pass, in order, no lookahead.
type Backtest struct {
	Meta       domain.SymbolMeta
	Account    *Account
	Candles    []domain.Candle
	Strategies []Strategy
	StartIndex int
	Record     bool

	Snapshots []domain.CandleSnapshot
}

// BacktestConfig configures a single-symbol run.
type BacktestConfig struct {
	Meta         domain.SymbolMeta
	Candles      []domain.Candle
	Strategies   []Strategy
	StartIndex   int
	StartBalance float64
	Record       bool
}

// NewBacktest wires the run and initializes every strategy against it.
func NewBacktest(cfg BacktestConfig) *Backtest {
	bt := &Backtest{
		Meta:       cfg.Meta,
		Account:    NewAccount(cfg.StartBalance),
		Candles:    cfg.Candles,
		Strategies: cfg.Strategies,
		StartIndex: cfg.StartIndex,
		Record:     cfg.Record,
	}
	for _, s := range bt.Strategies {
		s.Init(bt)
	}
	return bt
}

// Run replays the candle stream once. Candles before StartIndex warm up
// derived fields without trading. Strategies decide in attachment order.
func (b *Backtest) Run(ctx context.Context) error {
	for i, c := range b.Candles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i < b.StartIndex {
			continue
		}

		for _, s := range b.Strategies {
			if err := s.Decide(c); err != nil {
				return fmt.Errorf("%s %s at %s: %w", b.Meta.Symbol, s.Name(), c.Timestamp.Format("2006-01-02 15:04"), err)
			}
		}

		if b.Record {
			for _, s := range b.Strategies {
				b.Snapshots = append(b.Snapshots, s.Snapshot(c))
			}
		}
	}
	return nil
}

// Results flattens every strategy's settled trades.
func (b *Backtest) Results() []domain.TradeResult {
	var out []domain.TradeResult
	for _, s := range b.Strategies {
		out = append(out, s.Results()...)
	}
	return out
}
