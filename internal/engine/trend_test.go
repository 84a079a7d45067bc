package engine

import (
	"math"
	"testing"

	"futures-sim-lab/internal/domain"
)

// trendBar builds a candle with the trend bands set.
func trendBar(i int, open, high, low, close, bandHigh, bandLow float64) domain.Candle {
	c := bar(i, open, high, low, close)
	c.TrendHigh = bandHigh
	c.TrendLow = bandLow
	return c
}

func newTrendBacktest(cfg TrendConfig) (*TrendStrategy, *Backtest) {
	s := NewTrendStrategy(cfg)
	bt := NewBacktest(BacktestConfig{
		Meta:         testMeta(),
		Strategies:   []Strategy{s},
		StartBalance: 1.0,
	})
	return s, bt
}

func TestTrendBreakoutEntry(t *testing.T) {
	s, bt := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3})

	// High crosses the upper band: enter long with entry slippage.
	c := trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)
	if err := s.Decide(c); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if s.Status() != Long {
		t.Fatalf("status = %v, want Long", s.Status())
	}
	if s.trade == nil {
		t.Fatal("no live trade after breakout")
	}

	wantEntry := 10100 * (1 + trendSlippage)
	if got := s.trade.EntryPrice; math.Abs(got-wantEntry) > 1e-9 {
		t.Errorf("entry price = %v, want %v", got, wantEntry)
	}
	wantContracts := int(3 * wantEntry)
	if got := s.trade.Contracts; got != wantContracts {
		t.Errorf("contracts = %d, want %d", got, wantContracts)
	}
	_ = bt
}

func TestTrendExitAndReverse(t *testing.T) {
	s, bt := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3})

	if err := s.Decide(trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	// Low breaks the lower band: the long exits and a short opens on the
	// same candle.
	if err := s.Decide(trendBar(1, 10100, 10200, 9400, 9450, 10300, 9500)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if s.Status() != Short {
		t.Fatalf("status after band break = %v, want Short", s.Status())
	}
	if s.TradeCount() != 1 {
		t.Fatalf("settled trades = %d, want 1", s.TradeCount())
	}

	settled := s.lastTrade()
	wantExit := 9500 * (1 - trendSlippage)
	if got := settled.ExitPrice; math.Abs(got-wantExit) > 1e-9 {
		t.Errorf("exit price = %v, want %v", got, wantExit)
	}
	if settled.PnlFinal >= 0 {
		t.Errorf("losing breakout settled with pnl %v", settled.PnlFinal)
	}
	if bt.Account.Balance() >= 1.0 {
		t.Errorf("balance after a losing trade = %v, want < 1", bt.Account.Balance())
	}
}

func TestTrendOppositeFadesBreakout(t *testing.T) {
	s, _ := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3, Opposite: true})

	if err := s.Decide(trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if s.Status() != Short {
		t.Errorf("opposite variant status = %v, want Short", s.Status())
	}
}

func TestTrendMeanRevArming(t *testing.T) {
	s, _ := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3, MeanRev: true})

	if err := s.Decide(trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	// Exit far above entry: pnl at the close is over the arming
	// threshold, so the next entry is a mean-reversion one.
	if err := s.Decide(trendBar(1, 11000, 11100, 10780, 11050, 11300, 10800)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if !s.MeanRev {
		t.Fatal("mean-reversion not armed after a large win")
	}
	// The same candle re-enters long at the exit band with the doubled
	// status magnitude.
	if s.Status() != LongMeanRev {
		t.Fatalf("status = %v, want LongMeanRev", s.Status())
	}
	if s.trade.StopPx == 0 {
		t.Error("mean-reversion trade has no hard stop price")
	}
}

func TestTrendMeanRevHardStop(t *testing.T) {
	s, _ := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3, MeanRev: true})

	if err := s.Decide(trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if err := s.Decide(trendBar(1, 11000, 11100, 10780, 11050, 11300, 10800)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if s.Status() != LongMeanRev {
		t.Fatalf("status = %v, want LongMeanRev", s.Status())
	}
	stopPx := s.trade.StopPx

	// Drawdown past the hard stop with the band untouched: the trade
	// exits at the stop price.
	if err := s.Decide(trendBar(2, 10800, 10850, stopPx-50, 10400, 11300, 10200)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if s.Status() != Flat {
		t.Fatalf("status after hard stop = %v, want Flat", s.Status())
	}
	if s.MeanRev {
		t.Error("mean-reversion flag not cleared after its trade exited")
	}
	last := s.lastTrade()
	if last.PnlFinal > trendStopPct/2 {
		t.Errorf("hard-stopped trade pnl = %v, want a loss near the stop", last.PnlFinal)
	}
}

func TestTrendConfidenceSizing(t *testing.T) {
	s, _ := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3, UseConfidence: true})

	c := trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)
	c.EMASpread = 0 // full confidence
	if err := s.Decide(c); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	wantEntry := 10100 * (1 + trendSlippage)
	wantContracts := int(1.5 * 1 * float64(int(3*wantEntry)))
	if got := s.trade.Contracts; got != wantContracts {
		t.Errorf("contracts at full confidence = %d, want %d", got, wantContracts)
	}
	if s.trade.Conf != 1.5 {
		t.Errorf("conf = %v, want 1.5", s.trade.Conf)
	}
}

func TestTrendFinalOrders(t *testing.T) {
	s, _ := newTrendBacktest(TrendConfig{Weight: 1, Leverage: 3})

	if err := s.Decide(trendBar(0, 10000, 10150, 9900, 10100, 10100, 9500)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	live := LiveState{WalletBalance: 1.0, PositionContracts: 30000}
	orders := s.FinalOrders(live, 1)

	if len(orders) != 2 {
		t.Fatalf("final orders = %d, want stopclose and stopbuy", len(orders))
	}

	stopClose := orders[0]
	if stopClose.Name != "stopclose" || stopClose.Contracts != -30000 {
		t.Errorf("stopclose = %q %d", stopClose.Name, stopClose.Contracts)
	}
	if stopClose.ExecInst != "Close,IndexPrice" {
		t.Errorf("stopclose ExecInst = %q", stopClose.ExecInst)
	}

	stopBuy := orders[1]
	if stopBuy.Name != "stopbuy" || stopBuy.Side != -1 {
		t.Errorf("stopbuy = %q side %d", stopBuy.Name, stopBuy.Side)
	}
	if stopBuy.ExecInst != "IndexPrice" {
		t.Errorf("stopbuy ExecInst = %q", stopBuy.ExecInst)
	}

	// Both stops rest at the lower band, one tick away from the sell side.
	if stopClose.Price != 9501 {
		t.Errorf("stopclose price = %v, want the band 9500 nudged to 9501", stopClose.Price)
	}
	if stopBuy.Price != stopClose.Price {
		t.Errorf("stopbuy price = %v, stopclose price = %v, want equal", stopBuy.Price, stopClose.Price)
	}
}
