package domain

import "math"

// SymbolMeta describes one tradeable instrument.
type SymbolMeta struct {
	Symbol         string // internal symbol, e.g. "XBTUSD"
	SymbolShort    string // short display name, e.g. "XBT"
	ExchangeSymbol string // symbol as the exchange knows it
	Precision      int    // display decimals for prices
	IsAltcoin      bool   // altcoin (quanto) vs inverse contract valuation
}

// Tick returns the minimum price increment for the instrument.
func (m SymbolMeta) Tick() float64 {
	return math.Pow(10, -float64(m.Precision))
}
