package metrics

import (
	"math"
	"sort"

	"futures-sim-lab/internal/domain"
)

// computeFromTrades calculates all per-strategy metrics from settled
// trades. Trades are sorted by EntryTime ASC, TradeID ASC before
// computing order-dependent metrics (MaxDrawdown, MaxConsecutiveLosses).
func computeFromTrades(symbol, strategy string, trades []domain.TradeResult) domain.StrategyAggregate {
	n := len(trades)
	if n == 0 {
		return domain.StrategyAggregate{Symbol: symbol, Strategy: strategy}
	}

	sorted := make([]domain.TradeResult, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EntryTime.Equal(sorted[j].EntryTime) {
			return sorted[i].EntryTime.Before(sorted[j].EntryTime)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	wins, losses, unfilled := 0, 0, 0
	pnls := make([]float64, n)
	balances := make([]float64, n)
	for i, t := range sorted {
		if t.Pnl > 0 {
			wins++
		} else {
			losses++
		}
		if t.Forced {
			unfilled++
		}
		pnls[i] = t.Pnl
		balances[i] = t.ExitBalance
	}

	sortedPnls := make([]float64, n)
	copy(sortedPnls, pnls)
	sort.Float64s(sortedPnls)

	mean := computeMean(pnls)

	minBal, maxBal := balances[0], balances[0]
	for _, b := range balances {
		minBal = math.Min(minBal, b)
		maxBal = math.Max(maxBal, b)
	}

	return domain.StrategyAggregate{
		Symbol:   symbol,
		Strategy: strategy,

		TotalTrades: n,
		Wins:        wins,
		Losses:      losses,
		WinRate:     float64(wins) / float64(n),
		Unfilled:    unfilled,

		PnlMean:   mean,
		PnlMedian: computePercentile(sortedPnls, 0.50),
		PnlP10:    computePercentile(sortedPnls, 0.10),
		PnlP90:    computePercentile(sortedPnls, 0.90),
		PnlMin:    sortedPnls[0],
		PnlMax:    sortedPnls[n-1],
		PnlStddev: computeStddev(pnls, mean),

		MaxDrawdown:          computeMaxDrawdown(balances),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(pnls),

		FinalBalance: balances[n-1],
		MinBalance:   minBal,
		MaxBalance:   maxBal,
	}
}

func computeMean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(vals []float64, mean float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range vals {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation over a pre-sorted slice.
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown is the worst fractional peak-to-trough decline over
// the exit-balance curve. Balances must be in chronological order.
func computeMaxDrawdown(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}

	peak := balances[0]
	maxDrawdown := 0.0
	for _, b := range balances {
		if b > peak {
			peak = b
		}
		if peak > 0 {
			if dd := (peak - b) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of pnl <= 0.
// Pnls must be in chronological order.
func computeMaxConsecutiveLosses(pnls []float64) int {
	maxStreak, streak := 0, 0
	for _, p := range pnls {
		if p <= 0 {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}
	return maxStreak
}
