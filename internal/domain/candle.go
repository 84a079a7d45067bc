package domain

import "time"

// Candle is one OHLC bar plus the derived columns strategies read during
// simulation. The feed produces the raw fields; internal/features appends
// the derived ones before a run starts. Immutable once the run begins.
type Candle struct {
	Symbol    string
	Timestamp time.Time // close time of the bar
	Open      float64
	High      float64
	Low       float64
	Close     float64

	// Derived: breakout bands per strategy family.
	TrendHigh float64
	TrendLow  float64
	RevHigh   float64
	RevLow    float64
	ChopHigh  float64
	ChopLow   float64
	TPHigh    float64
	TPLow     float64

	// Derived: volatility norm used for ladder spacing.
	Norm float64

	// Derived: confidence inputs.
	EMASpread float64 // (fast - slow) / slow
	Trend     int     // regime sign, +1 or -1
	Conf      float64 // model confidence input, roughly [-0.5, 0.5]
}
