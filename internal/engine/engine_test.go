package engine

import (
	"time"

	"futures-sim-lab/internal/domain"
)

// Shared test fixtures for the engine package.

var testStart = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func testMeta() domain.SymbolMeta {
	return domain.SymbolMeta{
		Symbol:         "XBTUSD",
		SymbolShort:    "XBT",
		ExchangeSymbol: "XBTUSD",
		Precision:      0,
	}
}

// bar builds a candle with timestamps one hour apart.
func bar(i int, open, high, low, close float64) domain.Candle {
	return domain.Candle{
		Symbol:    "XBTUSD",
		Timestamp: testStart.Add(time.Duration(i) * time.Hour),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
	}
}

// testCore builds a strategy core attached to a fresh backtest.
func testCore(balance float64) *strategyCore {
	bt := &Backtest{Meta: testMeta(), Account: NewAccount(balance)}
	s := &strategyCore{name: "test", weight: 1, lev: 3}
	s.attach(bt)
	return s
}

// testTrade builds a bare base trade on the core.
func testTrade(s *strategyCore, side int, price float64, contracts int) *Trade {
	t := &Trade{}
	t.initBase(bar(0, price, price, price, price), price, contracts, s, 1, statusFor(side, false))
	return t
}
