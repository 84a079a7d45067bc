// Package features computes the derived candle columns strategies read:
// breakout bands, the volatility norm and the EMA trend fields. All
// windows look strictly backward, so a candle's derived values depend
// only on candles before it.
package features

import (
	"math"

	"futures-sim-lab/internal/domain"
)

// Config holds the window sizes for the derived columns.
type Config struct {
	TrendWindow int // trend breakout bands
	RevWindow   int // reversal fade bands
	ChopWindow  int // chop range bands
	TPWindow    int // take-profit outer bands
	NormWindow  int // volatility norm

	EMAFast int
	EMASlow int

	// RefRange is the per-candle range a norm of 1 corresponds to.
	RefRange float64
	// ConfScale maps the EMA spread onto the [-0.5, 0.5] confidence input.
	ConfScale float64
}

// DefaultConfig returns the stock window sizes.
func DefaultConfig() Config {
	return Config{
		TrendWindow: 18,
		RevWindow:   56,
		ChopWindow:  96,
		TPWindow:    200,
		NormWindow:  48,
		EMAFast:     50,
		EMASlow:     200,
		RefRange:    0.01,
		ConfScale:   5,
	}
}

// Apply fills the derived fields of every candle in place. Candles must
// be sorted by timestamp. The first candle of each window has no prior
// data and keeps zero bands; runs start past the warmup anyway.
func Apply(candles []domain.Candle, cfg Config) {
	applyBands(candles, cfg.TrendWindow, func(c *domain.Candle, hi, lo float64) {
		c.TrendHigh, c.TrendLow = hi, lo
	})
	applyBands(candles, cfg.RevWindow, func(c *domain.Candle, hi, lo float64) {
		c.RevHigh, c.RevLow = hi, lo
	})
	applyBands(candles, cfg.ChopWindow, func(c *domain.Candle, hi, lo float64) {
		c.ChopHigh, c.ChopLow = hi, lo
	})
	applyBands(candles, cfg.TPWindow, func(c *domain.Candle, hi, lo float64) {
		c.TPHigh, c.TPLow = hi, lo
	})
	applyNorm(candles, cfg)
	applyEMA(candles, cfg)
}

// applyBands sets rolling max-high/min-low bands over the prior window.
func applyBands(candles []domain.Candle, window int, set func(*domain.Candle, float64, float64)) {
	if window <= 0 {
		return
	}
	for i := 1; i < len(candles); i++ {
		start := i - window
		if start < 0 {
			start = 0
		}
		hi, lo := math.Inf(-1), math.Inf(1)
		for j := start; j < i; j++ {
			if candles[j].High > hi {
				hi = candles[j].High
			}
			if candles[j].Low < lo {
				lo = candles[j].Low
			}
		}
		set(&candles[i], hi, lo)
	}
}

// applyNorm sets the volatility norm: the mean relative candle range over
// the prior window, expressed in units of RefRange.
func applyNorm(candles []domain.Candle, cfg Config) {
	if cfg.NormWindow <= 0 || cfg.RefRange <= 0 {
		return
	}
	for i := 1; i < len(candles); i++ {
		start := i - cfg.NormWindow
		if start < 0 {
			start = 0
		}
		var sum float64
		for j := start; j < i; j++ {
			if candles[j].Close != 0 {
				sum += (candles[j].High - candles[j].Low) / candles[j].Close
			}
		}
		mean := sum / float64(i-start)
		candles[i].Norm = mean / cfg.RefRange
	}
}

// applyEMA sets the EMA spread, the regime sign and the confidence input.
// Standard smoothing factor k = 2/(n+1); both EMAs are seeded with the
// first close.
func applyEMA(candles []domain.Candle, cfg Config) {
	if len(candles) == 0 || cfg.EMAFast <= 0 || cfg.EMASlow <= 0 {
		return
	}

	kFast := 2 / float64(cfg.EMAFast+1)
	kSlow := 2 / float64(cfg.EMASlow+1)

	fast := candles[0].Close
	slow := candles[0].Close

	for i := range candles {
		if i > 0 {
			fast = candles[i].Close*kFast + fast*(1-kFast)
			slow = candles[i].Close*kSlow + slow*(1-kSlow)
		}

		c := &candles[i]
		if slow != 0 {
			c.EMASpread = (fast - slow) / slow
		}
		if fast >= slow {
			c.Trend = 1
		} else {
			c.Trend = -1
		}
		c.Conf = clamp(c.EMASpread*cfg.ConfScale, -0.5, 0.5)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
