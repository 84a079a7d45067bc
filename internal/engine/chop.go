package engine

import (
	"futures-sim-lab/internal/contract"
	"futures-sim-lab/internal/domain"
)

// Chop strategy tuning.
const (
	chopDefaultLev = 5.0

	// Unfilled entry rungs are cancelled after this many candles.
	chopCancelAfter = 5
	// Whatever is still open is force-closed after this many candles.
	chopCloseAfter = 40
)

// ChopConfig configures a ChopStrategy.
type ChopConfig struct {
	Weight   float64
	Leverage float64
}

// ChopStrategy scales into range extremes with a ladder of limit entries,
// each rung paired with a stop rung and a take-profit rung. Rung spacing
// scales with the candle's normalized volatility.
type ChopStrategy struct {
	strategyCore

	trade *ChopTrade
}

var _ Strategy = (*ChopStrategy)(nil)

// NewChopStrategy builds a chop strategy with the stock tuning.
func NewChopStrategy(cfg ChopConfig) *ChopStrategy {
	s := &ChopStrategy{}
	s.name = "chop"
	s.weight = cfg.Weight
	s.lev = cfg.Leverage
	if s.lev == 0 {
		s.lev = chopDefaultLev
	}
	return s
}

func (s *ChopStrategy) Init(bt *Backtest) {
	s.attach(bt)
}

// Decide drives the live trade's ladders, then fades touches of the chop
// bands when flat.
func (s *ChopStrategy) Decide(c domain.Candle) error {
	s.candle = c

	if s.status != Flat {
		if err := s.trade.CheckOrders(c); err != nil {
			return err
		}
		if !s.trade.Active {
			s.trade.exit()
			s.trade = nil
		}
		return nil
	}

	if c.High >= c.ChopHigh {
		s.status = Short
		return s.enterTrade(c, c.ChopHigh)
	}
	if c.Low <= c.ChopLow {
		s.status = Long
		return s.enterTrade(c, c.ChopLow)
	}
	return nil
}

// initTrade sizes and builds a ChopTrade; balance arrives pre-weighted.
func (s *ChopStrategy) initTrade(c domain.Candle, entryPrice float64, side int, balance float64, temp bool) *ChopTrade {
	contracts := contract.Contracts(balance, s.lev, entryPrice, side, s.meta.IsAltcoin)

	t := &ChopTrade{}
	t.init(c, entryPrice, contracts, s, side, temp)
	return t
}

func (s *ChopStrategy) enterTrade(c domain.Candle, entryPrice float64) error {
	t := s.initTrade(c, entryPrice, s.status.Side(), s.acct.Balance()*s.weight, false)
	s.trade = t
	s.live = &t.Trade
	return t.CheckOrders(c)
}

// FinalOrders reconciles the three ladders of the live trade against the
// exchange, or renders both prospective entry ladders when flat.
func (s *ChopStrategy) FinalOrders(live LiveState, weight float64) []*Order {
	c := s.candle
	balance := live.WalletBalance * weight
	var orders []*Order

	if s.trade != nil {
		t := s.trade
		target := contract.Contracts(balance, s.lev, t.AnchorStart, t.Side, s.meta.IsAltcoin)

		orders = append(orders, t.Entries.UnfilledOrders(target, 0)...)
		orders = append(orders, t.Stops.UnfilledOrders(target, live.PositionContracts)...)
		orders = append(orders, t.TakeProfits.UnfilledOrders(target, live.PositionContracts)...)
		return checkFinalOrders(orders)
	}

	long := s.initTrade(c, c.ChopLow, 1, balance, true)
	orders = append(orders, long.Entries.Orders...)
	orders = append(orders, long.Stops.Orders...)

	short := s.initTrade(c, c.ChopHigh, -1, balance, true)
	orders = append(orders, short.Entries.Orders...)
	orders = append(orders, short.Stops.Orders...)

	return checkFinalOrders(orders)
}

// ChopTrade owns the three ladders of one scale-in. The entry anchor is
// pushed into the range from the band touch, stops hang past the furthest
// entry rung, take-profits stretch from the touch back to the opposite
// extreme.
type ChopTrade struct {
	Trade

	AnchorStart float64
	AnchorPrice float64

	Entries     *Ladder
	Stops       *Ladder
	TakeProfits *Ladder
}

func (t *ChopTrade) init(c domain.Candle, entryPrice float64, contracts int, s *ChopStrategy, side int, temp bool) {
	t.initBase(c, entryPrice, contracts, &s.strategyCore, 1, statusFor(side, false))

	if !temp {
		s.trades = append(s.trades, &t.Trade)
	}

	t.AnchorStart = t.EntryTarget
	t.AnchorPrice = t.AnchorStart * (1 + c.Norm*0.005*float64(side)*-1)

	t.Entries = NewLadder(LadderConfig{
		Kind:     KindEntry,
		Anchor:   t.AnchorPrice,
		Spread:   0.002 * c.Norm,
		Activate: true,
		Exec:     ExecLimit,
		Trade:    &t.Trade,
	})

	t.Stops = NewLadder(LadderConfig{
		Kind:   KindStop,
		Anchor: contract.PriceAtPnl(-0.01*c.Norm, t.Entries.MaxPrice, side),
		Spread: 0.002 * c.Norm,
		Exec:   ExecStop,
		Trade:  &t.Trade,
	})

	outer := c.TPLow
	if side == 1 {
		outer = c.TPHigh
	}
	t.TakeProfits = NewLadder(LadderConfig{
		Kind:     KindClose,
		Anchor:   t.AnchorStart,
		Outer:    outer,
		HasOuter: true,
		Exec:     ExecLimit,
		Trade:    &t.Trade,
	})

	t.Entries.link(t.Entries, t.Stops, t.TakeProfits)
	t.Stops.link(t.Entries, t.Stops, t.TakeProfits)
	t.TakeProfits.link(t.Entries, t.Stops, t.TakeProfits)
}

// CheckOrders drives the three ladders for one candle. Unfilled entry
// rungs are cancelled after chopCancelAfter candles; at chopCloseAfter
// the remaining position is closed at the candle open and everything
// still resting is cancelled.
func (t *ChopTrade) CheckOrders(c domain.Candle) error {
	t.addCandle(c)

	switch t.Duration() {
	case chopCancelAfter:
		t.cancelUnfilledRungs(c)
	case chopCloseAfter:
		if err := t.closeAll(c); err != nil {
			return err
		}
	}

	if err := t.Entries.Check(c); err != nil {
		return err
	}
	if err := t.Stops.Check(c); err != nil {
		return err
	}
	if err := t.TakeProfits.Check(c); err != nil {
		return err
	}

	if !t.Entries.Active && t.Contracts == 0 {
		t.Active = false
	}
	if t.Stops.Filled || t.TakeProfits.Filled {
		t.Active = false
	}
	return nil
}

// cancelUnfilledRungs drops every entry rung that never filled together
// with its paired stop and take-profit rungs.
func (t *ChopTrade) cancelUnfilledRungs(c domain.Candle) {
	for i, o := range t.Entries.Orders {
		if !o.Filled {
			t.Entries.CancelRung(i, c)
			t.Stops.CancelRung(i, c)
			t.TakeProfits.CancelRung(i, c)
		}
	}
}

// closeAll flattens the position at the candle open and cancels every
// order still resting.
func (t *ChopTrade) closeAll(c domain.Candle) error {
	if err := t.closePosition(c); err != nil {
		return err
	}
	for _, l := range []*Ladder{t.Entries, t.Stops, t.TakeProfits} {
		for _, o := range l.Orders {
			if !o.Filled {
				o.Cancel(c)
			}
		}
	}
	t.Forced = true
	t.Active = false
	return nil
}

// exit settles the trade once its ladders have resolved.
func (t *ChopTrade) exit() {
	t.FilledContracts = t.Entries.FilledContracts
	t.settle()
}
