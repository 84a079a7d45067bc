package metrics

import (
	"math"
	"testing"
	"time"

	"futures-sim-lab/internal/domain"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func makeTrades() []domain.TradeResult {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	pnls := []float64{0.10, -0.02, 0.05, -0.01, -0.03, 0.08}
	balances := []float64{110, 107.8, 113.2, 112.1, 108.7, 117.4}

	trades := make([]domain.TradeResult, len(pnls))
	for i := range pnls {
		trades[i] = domain.TradeResult{
			TradeID:     string(rune('a' + i)),
			Symbol:      "XBTUSD",
			Strategy:    "trend",
			EntryTime:   start.Add(time.Duration(i) * 24 * time.Hour),
			Pnl:         pnls[i],
			ExitBalance: balances[i],
		}
	}
	trades[4].Forced = true
	return trades
}

func TestComputeFromTrades(t *testing.T) {
	agg := computeFromTrades("XBTUSD", "trend", makeTrades())

	if agg.TotalTrades != 6 {
		t.Errorf("TotalTrades: got %d, want 6", agg.TotalTrades)
	}
	if agg.Wins != 3 || agg.Losses != 3 {
		t.Errorf("Wins/Losses: got %d/%d, want 3/3", agg.Wins, agg.Losses)
	}
	if agg.WinRate != 0.5 {
		t.Errorf("WinRate: got %v, want 0.5", agg.WinRate)
	}
	if agg.Unfilled != 1 {
		t.Errorf("Unfilled: got %d, want 1", agg.Unfilled)
	}
	if !approxEqual(agg.PnlMean, 0.17/6, 1e-12) {
		t.Errorf("PnlMean: got %v", agg.PnlMean)
	}
	if !approxEqual(agg.PnlMedian, 0.02, 1e-12) {
		t.Errorf("PnlMedian: got %v, want 0.02", agg.PnlMedian)
	}
	if !approxEqual(agg.PnlP10, -0.025, 1e-12) {
		t.Errorf("PnlP10: got %v, want -0.025", agg.PnlP10)
	}
	if !approxEqual(agg.PnlP90, 0.09, 1e-12) {
		t.Errorf("PnlP90: got %v, want 0.09", agg.PnlP90)
	}
	if agg.PnlMin != -0.03 || agg.PnlMax != 0.10 {
		t.Errorf("PnlMin/PnlMax: got %v/%v", agg.PnlMin, agg.PnlMax)
	}
	if !approxEqual(agg.PnlStddev, 0.05565, 1e-4) {
		t.Errorf("PnlStddev: got %v, want ~0.05565", agg.PnlStddev)
	}
	if agg.MaxConsecutiveLosses != 2 {
		t.Errorf("MaxConsecutiveLosses: got %d, want 2", agg.MaxConsecutiveLosses)
	}
	// Worst decline is 113.2 down to 108.7.
	if !approxEqual(agg.MaxDrawdown, (113.2-108.7)/113.2, 1e-12) {
		t.Errorf("MaxDrawdown: got %v", agg.MaxDrawdown)
	}
	if agg.FinalBalance != 117.4 {
		t.Errorf("FinalBalance: got %v, want 117.4", agg.FinalBalance)
	}
	if agg.MinBalance != 107.8 || agg.MaxBalance != 117.4 {
		t.Errorf("MinBalance/MaxBalance: got %v/%v", agg.MinBalance, agg.MaxBalance)
	}
}

func TestComputeFromTradesSortsInput(t *testing.T) {
	trades := makeTrades()
	shuffled := []domain.TradeResult{trades[3], trades[0], trades[5], trades[2], trades[4], trades[1]}

	agg := computeFromTrades("XBTUSD", "trend", shuffled)
	if agg.MaxConsecutiveLosses != 2 {
		t.Errorf("MaxConsecutiveLosses after shuffle: got %d, want 2", agg.MaxConsecutiveLosses)
	}
	if agg.FinalBalance != 117.4 {
		t.Errorf("FinalBalance after shuffle: got %v, want 117.4", agg.FinalBalance)
	}
}

func TestComputeFromTradesEmpty(t *testing.T) {
	agg := computeFromTrades("XBTUSD", "trend", nil)
	if agg.TotalTrades != 0 {
		t.Errorf("TotalTrades: got %d, want 0", agg.TotalTrades)
	}
	if agg.Symbol != "XBTUSD" || agg.Strategy != "trend" {
		t.Errorf("Identity fields not set: %s/%s", agg.Symbol, agg.Strategy)
	}
}

func TestComputePercentileSinglePoint(t *testing.T) {
	if got := computePercentile([]float64{0.42}, 0.9); got != 0.42 {
		t.Errorf("Single-point percentile: got %v, want 0.42", got)
	}
}

func TestComputeMaxDrawdownMonotonic(t *testing.T) {
	if got := computeMaxDrawdown([]float64{100, 101, 105, 120}); got != 0 {
		t.Errorf("Drawdown on rising curve: got %v, want 0", got)
	}
}
