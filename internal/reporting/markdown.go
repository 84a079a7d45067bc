package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Symbols: %d | Strategies: %d\n\n", r.SymbolCount, r.StrategyCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.DataSummary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Force-filled Closes | %d |\n", r.DataSummary.TotalUnfilled))
	if !r.DataSummary.DateRangeStart.IsZero() {
		sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", r.DataSummary.DateRangeStart.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", r.DataSummary.DateRangeEnd.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	// Strategy Metrics
	sb.WriteString("## Strategy Metrics\n\n")
	if len(r.StrategyMetrics) > 0 {
		sb.WriteString("| Symbol | Strategy | Trades | WinRate | Unfilled | Mean | Median | P10 | P90 | Stddev | MaxDD | MaxLoss | Balance |\n")
		sb.WriteString("|--------|----------|--------|---------|----------|------|--------|-----|-----|--------|-------|---------|--------|\n")
		for _, m := range r.StrategyMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.4f | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %d | %.2f |\n",
				m.Symbol, m.Strategy,
				m.TotalTrades, m.WinRate, m.Unfilled,
				m.PnlMean, m.PnlMedian, m.PnlP10, m.PnlP90, m.PnlStddev,
				m.MaxDrawdown, m.MaxConsecutiveLosses, m.FinalBalance))
		}
	} else {
		sb.WriteString("No strategy metrics available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
