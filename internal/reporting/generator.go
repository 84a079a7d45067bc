package reporting

import (
	"context"
	"time"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	symbolStore    storage.SymbolStore
	tradeStore     storage.TradeStore
	aggregateStore storage.AggregateStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	symbolStore storage.SymbolStore,
	tradeStore storage.TradeStore,
	aggStore storage.AggregateStore,
) *Generator {
	return &Generator{
		symbolStore:    symbolStore,
		tradeStore:     tradeStore,
		aggregateStore: aggStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report from the stored aggregates and
// trade log.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	aggs, err := g.aggregateStore.List(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := g.generateDataSummary(ctx, aggs)
	if err != nil {
		return nil, err
	}

	symbolSet := make(map[string]struct{})
	strategySet := make(map[string]struct{})
	for _, agg := range aggs {
		symbolSet[agg.Symbol] = struct{}{}
		strategySet[agg.Strategy] = struct{}{}
	}

	return &Report{
		GeneratedAt:     g.now(),
		SymbolCount:     len(symbolSet),
		StrategyCount:   len(strategySet),
		DataSummary:     *summary,
		StrategyMetrics: metricRows(aggs),
	}, nil
}

// generateDataSummary computes totals and the trade date range.
func (g *Generator) generateDataSummary(ctx context.Context, aggs []domain.StrategyAggregate) (*DataSummary, error) {
	summary := &DataSummary{}
	for _, agg := range aggs {
		summary.TotalTrades += agg.TotalTrades
		summary.TotalUnfilled += agg.Unfilled
	}

	symbols, err := g.symbolStore.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range symbols {
		trades, err := g.tradeStore.GetBySymbol(ctx, m.Symbol)
		if err != nil {
			return nil, err
		}
		for _, t := range trades {
			if summary.DateRangeStart.IsZero() || t.EntryTime.Before(summary.DateRangeStart) {
				summary.DateRangeStart = t.EntryTime
			}
			if t.ExitTime.After(summary.DateRangeEnd) {
				summary.DateRangeEnd = t.ExitTime
			}
		}
	}
	return summary, nil
}

// metricRows maps aggregates to report rows. Aggregates arrive sorted by
// symbol then strategy from the store.
func metricRows(aggs []domain.StrategyAggregate) []StrategyMetricRow {
	rows := make([]StrategyMetricRow, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, StrategyMetricRow{
			Symbol:   agg.Symbol,
			Strategy: agg.Strategy,

			TotalTrades: agg.TotalTrades,
			WinRate:     agg.WinRate,
			Unfilled:    agg.Unfilled,

			PnlMean:   agg.PnlMean,
			PnlMedian: agg.PnlMedian,
			PnlP10:    agg.PnlP10,
			PnlP90:    agg.PnlP90,
			PnlStddev: agg.PnlStddev,

			MaxDrawdown:          agg.MaxDrawdown,
			MaxConsecutiveLosses: agg.MaxConsecutiveLosses,

			FinalBalance: agg.FinalBalance,
		})
	}
	return rows
}
