package reporting

import (
	"fmt"
	"strings"
	"time"

	"futures-sim-lab/internal/domain"
)

// RenderCSV renders strategy metric rows as CSV string.
func RenderCSV(metrics []StrategyMetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("symbol,strategy,total_trades,win_rate,unfilled,")
	sb.WriteString("pnl_mean,pnl_median,pnl_p10,pnl_p90,pnl_stddev,")
	sb.WriteString("max_drawdown,max_consecutive_losses,final_balance\n")

	// Rows
	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%.6f\n",
			m.Symbol,
			m.Strategy,
			m.TotalTrades,
			m.WinRate,
			m.Unfilled,
			m.PnlMean,
			m.PnlMedian,
			m.PnlP10,
			m.PnlP90,
			m.PnlStddev,
			m.MaxDrawdown,
			m.MaxConsecutiveLosses,
			m.FinalBalance,
		))
	}

	return sb.String()
}

// RenderTradesCSV renders the settled trade log as CSV string.
func RenderTradesCSV(trades []domain.TradeResult) string {
	var sb strings.Builder

	sb.WriteString("trade_id,symbol,strategy,trade_num,status,side,")
	sb.WriteString("entry_time,exit_time,entry_price,exit_price,")
	sb.WriteString("target_contracts,filled_contracts,conf,pnl,exit_balance,duration,forced\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%d,%s,%s,%.6f,%.6f,%d,%d,%.3f,%.6f,%.6f,%d,%t\n",
			t.TradeID,
			t.Symbol,
			t.Strategy,
			t.TradeNum,
			t.Status,
			t.Side,
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			t.EntryPrice,
			t.ExitPrice,
			t.TargetContracts,
			t.FilledContracts,
			t.Conf,
			t.Pnl,
			t.ExitBalance,
			t.Duration,
			t.Forced,
		))
	}

	return sb.String()
}

// RenderSnapshotsCSV renders per-candle run snapshots as CSV string.
func RenderSnapshotsCSV(snaps []domain.CandleSnapshot) string {
	var sb strings.Builder

	sb.WriteString("symbol,strategy,timestamp,balance,status,contracts,pnl\n")

	for _, s := range snaps {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%d,%d,%.6f\n",
			s.Symbol,
			s.Strategy,
			s.Timestamp.Format(time.RFC3339),
			s.Balance,
			s.Status,
			s.Contracts,
			s.Pnl,
		))
	}

	return sb.String()
}
