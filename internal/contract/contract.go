// Package contract implements the exchange's contract valuation formulas.
// These must stay bit-exact with the live exchange: inverse contracts
// (XBT-margined, 1 contract = 1 USD) versus altcoin quanto contracts
// (margin pnl linear in price).
package contract

import "math"

// Contracts returns the signed whole-contract position for a given margin
// balance, leverage and entry price. Inverse instruments scale with price,
// altcoin instruments scale with its reciprocal.
func Contracts(balance, leverage, price float64, side int, altcoin bool) int {
	if price == 0 {
		return 0
	}
	if altcoin {
		return int(balance * leverage * float64(side) / price)
	}
	return int(balance * leverage * price * float64(side))
}

// PnlPct returns the percent pnl of a position, side-adjusted.
// Either price being zero yields zero (nothing filled to measure against).
func PnlPct(side int, entry, exit float64) float64 {
	if entry == 0 || exit == 0 {
		return 0
	}
	if side == 1 {
		return (exit - entry) / entry
	}
	return (entry - exit) / exit
}

// PnlMargin returns the realized pnl in margin currency for a signed
// contract count settled from entry to exit.
func PnlMargin(contracts int, entry, exit float64, altcoin bool) float64 {
	if entry == 0 || exit == 0 {
		return 0
	}
	if altcoin {
		return float64(contracts) * (exit - entry)
	}
	return float64(contracts) * (1/entry - 1/exit)
}

// PriceAtPnl returns the price at which a position entered at entry reaches
// the given percent pnl. Inverse of PnlPct per side.
func PriceAtPnl(pnl, entry float64, side int) float64 {
	if side == 1 {
		return entry * (1 + pnl)
	}
	return entry / (1 + pnl)
}

// confidence decay steepness; tuned with maxConfidence so that a spread of
// zero yields full confidence and a spread at or past the max yields zero.
const decayGamma = 1.7

const maxConfidence = 1.5

// Confidence maps an EMA spread onto [0, 1.5] with exponential decay.
// spread 0 -> 1.5, spread >= maxSpread -> 0.
func Confidence(spread, maxSpread float64) float64 {
	if maxSpread <= 0 {
		return maxConfidence
	}
	r := math.Abs(spread) / maxSpread
	if r >= 1 {
		return 0
	}
	decay := (1 - math.Exp(-decayGamma*r)) / (1 - math.Exp(-decayGamma))
	return maxConfidence * (1 - decay)
}
