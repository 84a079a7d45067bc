// Package reporting renders backtest results as Markdown and CSV.
package reporting

import "time"

// Report is the rendered summary of one backtest run or of the stored
// trade log.
type Report struct {
	GeneratedAt   time.Time
	SymbolCount   int
	StrategyCount int

	DataSummary DataSummary

	// Strategy metrics sorted by symbol, strategy.
	StrategyMetrics []StrategyMetricRow
}

// DataSummary describes the data the report covers.
type DataSummary struct {
	TotalTrades    int
	TotalUnfilled  int
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}

// StrategyMetricRow is one row in the strategy metrics table.
type StrategyMetricRow struct {
	Symbol   string
	Strategy string

	TotalTrades int
	WinRate     float64
	Unfilled    int

	PnlMean   float64
	PnlMedian float64
	PnlP10    float64
	PnlP90    float64
	PnlStddev float64

	MaxDrawdown          float64
	MaxConsecutiveLosses int

	FinalBalance float64
}
