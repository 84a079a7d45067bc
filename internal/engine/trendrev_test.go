package engine

import (
	"testing"

	"futures-sim-lab/internal/domain"
)

// revBar builds a candle with the reversal bands set. Trend/Conf default
// to a neutral confidence of 1.
func revBar(i int, open, high, low, close, bandHigh, bandLow float64) domain.Candle {
	c := bar(i, open, high, low, close)
	c.RevHigh = bandHigh
	c.RevLow = bandLow
	c.Trend = -1
	c.Conf = 0.25
	return c
}

func newRevBacktest() (*RevStrategy, *Backtest) {
	s := NewRevStrategy(RevConfig{Weight: 1, Leverage: 3})
	bt := NewBacktest(BacktestConfig{
		Meta:         testMeta(),
		Strategies:   []Strategy{s},
		StartBalance: 1.0,
	})
	return s, bt
}

func TestRevEnterFadesBandTouch(t *testing.T) {
	s, _ := newRevBacktest()

	// High pokes above the band: fade it short. The limit entry rests
	// above the band and fills against the same candle's high.
	c := revBar(0, 9950, 10050, 9900, 10000, 10000, 9000)
	if err := s.Decide(c); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	tr := s.trade
	if tr == nil {
		t.Fatal("no live trade after band touch")
	}
	if tr.Side != -1 {
		t.Errorf("side = %d, want -1", tr.Side)
	}

	// limitopen at band*(1+slippage), tick-adjusted up for a sell.
	if tr.LimitOpen.Price != 10041 {
		t.Errorf("limitopen price = %v, want 10041", tr.LimitOpen.Price)
	}
	if !tr.LimitOpen.Filled {
		t.Error("limitopen did not fill against the touch candle")
	}
	if !tr.Stop.Active || !tr.LimitClose.Active {
		t.Error("stop and close not armed after the entry fill")
	}
	if tr.Stop.Side != 1 || tr.LimitClose.Side != 1 {
		t.Errorf("reduce sides = %d/%d, want 1/1", tr.Stop.Side, tr.LimitClose.Side)
	}
	// side*Trend == 1 with Conf 0.25: sized up to conf 1.
	if tr.Conf != 1 {
		t.Errorf("conf = %v, want 1", tr.Conf)
	}
}

func TestRevStopCancelsClose(t *testing.T) {
	s, _ := newRevBacktest()

	if err := s.Decide(revBar(0, 9950, 10050, 9900, 10000, 10000, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	tr := s.trade
	stopPx := tr.Stop.Price

	// Price runs through the stop; the close is cancelled and the trade
	// is marked stopped.
	if err := s.Decide(revBar(1, 10100, stopPx+20, 10050, stopPx, 10600, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if !tr.Stop.Filled {
		t.Fatal("stop did not fire")
	}
	if !tr.LimitClose.Cancelled {
		t.Error("close not cancelled after the stop fill")
	}
	if !tr.Stopped {
		t.Error("trade not marked stopped")
	}
}

func TestRevForcedCloseAfterFourCandles(t *testing.T) {
	s, _ := newRevBacktest()

	if err := s.Decide(revBar(0, 9950, 10050, 9900, 10000, 10000, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	tr := s.trade

	// Four quiet candles inside the bands: neither the stop nor the
	// tracking close is touched.
	for i := 1; i <= 4; i++ {
		if err := s.Decide(revBar(i, 9900, 9950, 9850, 9900, 10000, 9000)); err != nil {
			t.Fatalf("Decide candle %d: %v", i, err)
		}
	}

	if !tr.LimitClose.Filled || !tr.LimitClose.MarketFilled {
		t.Fatal("close not force-filled after four candles")
	}
	if tr.LimitClose.Price != 9900 {
		t.Errorf("forced fill price = %v, want the candle close 9900", tr.LimitClose.Price)
	}
	if !tr.Stop.Cancelled {
		t.Error("stop not cancelled on the forced close")
	}
	if !tr.Forced {
		t.Error("trade not marked forced")
	}
	if s.UnfilledTrades() != 1 {
		t.Errorf("unfilled trades = %d, want 1", s.UnfilledTrades())
	}
}

func TestRevEntryForceFillAfterFourCandles(t *testing.T) {
	s, _ := newRevBacktest()

	// The high pokes the band but stops short of the resting limit entry
	// at 10041, so the fade arms without filling.
	if err := s.Decide(revBar(0, 9950, 10010, 9900, 9980, 10000, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	tr := s.trade
	if tr.LimitOpen.Filled {
		t.Fatal("limit entry filled against the touch candle")
	}

	// Three more candles under the entry price. The fourth candle of the
	// trade market-fills the entry at its close.
	for i := 1; i <= 3; i++ {
		if err := s.Decide(revBar(i, 9950, 9990, 9900, 9960, 10000, 9000)); err != nil {
			t.Fatalf("Decide candle %d: %v", i, err)
		}
	}

	if !tr.LimitOpen.Filled || !tr.LimitOpen.MarketFilled {
		t.Fatal("entry not market-filled on the fourth candle")
	}
	if tr.LimitOpen.Price != 9960 {
		t.Errorf("forced entry price = %v, want the candle close 9960", tr.LimitOpen.Price)
	}
	if tr.Contracts == 0 {
		t.Error("no position after the forced entry fill")
	}
	if !tr.Stop.Active || !tr.LimitClose.Active {
		t.Error("stop and close not armed after the forced entry fill")
	}

	// Reconciliation turns the market-filled entry into a market buy when
	// nothing is resting live yet.
	live := LiveState{WalletBalance: 1.0, Orders: map[string]LiveOrder{}}
	orders := s.FinalOrders(live, 1)

	var marketBuy *Order
	for _, o := range orders {
		if o.Name == "marketbuy" {
			marketBuy = o
		}
	}
	if marketBuy == nil {
		t.Fatalf("final orders missing marketbuy (got %d orders)", len(orders))
	}
	if marketBuy.Exec != ExecMarket {
		t.Errorf("marketbuy exec = %q, want Market", marketBuy.Exec)
	}
}

func TestRevExitForcesUnfilledClose(t *testing.T) {
	s, bt := newRevBacktest()

	if err := s.Decide(revBar(0, 9950, 10050, 9900, 10000, 10000, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	// The short fade settles when the low breaks its band beyond the
	// previous candle's band. The low stops short of the resting close,
	// so the close is market-filled at the candle close and the band
	// break immediately arms the opposite fade.
	if err := s.Decide(revBar(1, 9000, 9050, 8990, 9000, 10000, 9100)); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if s.TradeCount() != 2 {
		t.Fatalf("trades = %d, want the settled fade plus the new one", s.TradeCount())
	}

	settled := s.tradeAt(1)
	if settled.Active {
		t.Fatal("first fade still active after the band break")
	}
	if !settled.Forced {
		t.Error("unfilled close should settle as forced")
	}
	if settled.ExitPrice != 9000 {
		t.Errorf("exit price = %v, want the candle close 9000", settled.ExitPrice)
	}
	if settled.PnlFinal <= 0 {
		t.Errorf("short fade into a selloff settled with pnl %v", settled.PnlFinal)
	}
	if s.UnfilledTrades() != 1 {
		t.Errorf("unfilled trades = %d, want 1", s.UnfilledTrades())
	}
	if bt.Account.Balance() <= 1.0 {
		t.Errorf("balance = %v, want > 1 after the win", bt.Account.Balance())
	}

	next := s.trade
	if next == nil || next.Side != 1 {
		t.Fatal("opposite fade not armed after the band break")
	}
}

func TestRevTrackingClosePrice(t *testing.T) {
	s, _ := newRevBacktest()

	if err := s.Decide(revBar(0, 9950, 10050, 9900, 10000, 10000, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	tr := s.trade

	// The resting close tracks the opposite band as it moves.
	if err := s.Decide(revBar(1, 9900, 9950, 9850, 9900, 10000, 9100)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	want := 9100 * (1 + revSlippage*-1)
	if got := tr.LimitClose.Price; got != float64(int(want+0.5)) {
		t.Errorf("tracked close price = %v, want %v rounded", got, want)
	}
}

func TestRevFinalOrders(t *testing.T) {
	s, _ := newRevBacktest()

	if err := s.Decide(revBar(0, 9950, 10050, 9900, 10000, 10000, 9000)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	tr := s.trade

	live := LiveState{
		WalletBalance:     1.0,
		PositionContracts: tr.LimitOpen.Contracts,
		Orders:            map[string]LiveOrder{},
	}
	orders := s.FinalOrders(live, 1)

	// Entry filled: expect the tracking close, the next fade's entry and
	// stop, and the current stop covering the live position.
	var names []string
	for _, o := range orders {
		names = append(names, o.Name)
	}

	wantNames := map[string]bool{"limitclose": false, "limitopen": false, "stop": false}
	for _, n := range names {
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
		}
	}
	for n, seen := range wantNames {
		if !seen {
			t.Errorf("final orders missing %q (got %v)", n, names)
		}
	}

	// The close covers exactly the live position.
	for _, o := range orders {
		if o.Name == "limitclose" && o.Contracts != -live.PositionContracts {
			t.Errorf("limitclose contracts = %d, want %d", o.Contracts, -live.PositionContracts)
		}
	}
}
