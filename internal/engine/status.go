// Package engine is the discrete-event order simulation core: it replays
// candles through strategies, mutates order/trade state the way the
// exchange would, and settles realized pnl into an account ledger. The
// whole package is single-threaded and deterministic; one candle is
// processed to completion before the next is considered.
package engine

// Status is the closed set of position states a strategy can be in.
// The mean-reversion variants double the signed code magnitude, matching
// the status codes recorded on settled trades.
type Status int

// Status constants.
const (
	Flat Status = iota
	Long
	Short
	LongMeanRev
	ShortMeanRev
)

// Code returns the signed status code: 0 flat, +-1 simple, +-2 mean-rev.
func (s Status) Code() int {
	switch s {
	case Flat:
		return 0
	case Long:
		return 1
	case Short:
		return -1
	case LongMeanRev:
		return 2
	case ShortMeanRev:
		return -2
	}
	return 0
}

// Side returns the position direction: +1, -1, or 0 when flat.
func (s Status) Side() int {
	switch s {
	case Flat:
		return 0
	case Long, LongMeanRev:
		return 1
	case Short, ShortMeanRev:
		return -1
	}
	return 0
}

// MeanRev reports whether the status is a mean-reversion variant.
func (s Status) MeanRev() bool {
	return s == LongMeanRev || s == ShortMeanRev
}

// statusFor builds the status for an entry decision.
func statusFor(side int, meanrev bool) Status {
	switch {
	case side == 0:
		return Flat
	case side > 0 && meanrev:
		return LongMeanRev
	case side > 0:
		return Long
	case meanrev:
		return ShortMeanRev
	default:
		return Short
	}
}

func (s Status) String() string {
	switch s {
	case Flat:
		return "flat"
	case Long:
		return "long"
	case Short:
		return "short"
	case LongMeanRev:
		return "long-meanrev"
	case ShortMeanRev:
		return "short-meanrev"
	}
	return "unknown"
}
