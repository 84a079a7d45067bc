package engine

import (
	"math"

	"futures-sim-lab/internal/contract"
	"futures-sim-lab/internal/domain"
)

// Reversal strategy tuning.
const (
	revSlippage = 0.004
	revStopPct  = -0.04

	// Resting orders give up after this many candles: an entry still
	// unfilled on the fourth candle market-fills at its close, and a
	// filled entry whose close is still resting four candles later gets
	// the close market-filled the same way.
	revForceCloseAfter = 4
)

// RevConfig configures a RevStrategy.
type RevConfig struct {
	Weight   float64
	Leverage float64
}

// RevStrategy fades touches of the rolling reversal bands with resting
// orders: a limit entry at the band, a hard stop, and a limit close that
// tracks the opposite band.
type RevStrategy struct {
	strategyCore

	stopPct float64

	lastHigh float64
	lastLow  float64

	trade   *RevTrade
	history []*RevTrade
}

var _ Strategy = (*RevStrategy)(nil)

// NewRevStrategy builds a reversal strategy with the stock tuning.
func NewRevStrategy(cfg RevConfig) *RevStrategy {
	s := &RevStrategy{stopPct: revStopPct}
	s.name = "trendrev"
	s.weight = cfg.Weight
	s.lev = cfg.Leverage
	s.slippage = revSlippage
	return s
}

func (s *RevStrategy) Init(bt *Backtest) {
	s.attach(bt)
}

// Decide checks the live trade's orders, exits on a band re-break beyond
// the previous band, then arms a new fade when flat.
func (s *RevStrategy) Decide(c domain.Candle) error {
	s.candle = c

	if s.trade != nil {
		if err := s.trade.CheckOrders(c); err != nil {
			return err
		}

		if s.trade.Side == 1 {
			if c.High > c.RevHigh && c.High > s.lastHigh {
				if err := s.exitTrade(c); err != nil {
					return err
				}
			}
		} else {
			if c.Low < c.RevLow && c.Low < s.lastLow {
				if err := s.exitTrade(c); err != nil {
					return err
				}
			}
		}

		if s.trade != nil && !s.trade.Active {
			s.trade = nil
		}
	}

	if s.trade == nil {
		if c.High > c.RevHigh {
			s.enterTrade(c, -1, c.RevHigh)
		} else if c.Low < c.RevLow {
			s.enterTrade(c, 1, c.RevLow)
		}
	}

	s.lastHigh = c.RevHigh
	s.lastLow = c.RevLow
	return nil
}

// initTrade sizes and builds a RevTrade without installing it as live.
// Entries aligned with the prevailing trend size up, counter-trend ones
// size down.
func (s *RevStrategy) initTrade(c domain.Candle, side int, entryPrice, balance float64, temp bool) *RevTrade {
	if balance <= 0 {
		balance = s.acct.Balance()
	}

	contracts := int(s.weight * float64(contract.Contracts(balance, s.lev, entryPrice, side, s.meta.IsAltcoin)))

	var conf float64
	if side*c.Trend == 1 {
		conf = 1.5 - math.Abs(c.Conf)*2
	} else {
		conf = 0.5 + math.Abs(c.Conf)*2
	}

	t := &RevTrade{}
	t.init(c, entryPrice, contracts, s, conf, side, temp)
	return t
}

// enterTrade opens a new fade and immediately checks its orders against
// the entry candle.
func (s *RevStrategy) enterTrade(c domain.Candle, side int, entryPrice float64) error {
	t := s.initTrade(c, side, entryPrice, -1, false)
	s.trade = t
	s.live = &t.Trade
	s.status = statusFor(side, false)
	return t.CheckOrders(c)
}

// exitTrade settles the live trade. A filled entry whose close never
// filled gets the close market-filled at the candle close and counts as
// unfilled.
func (s *RevStrategy) exitTrade(c domain.Candle) error {
	t := s.trade

	if !t.Stopped && t.LimitOpen.Filled && !t.LimitClose.Filled {
		t.Stop.Cancel(c)
		if err := t.LimitClose.FillMarket(c, c.Close); err != nil {
			return err
		}
		t.Forced = true
		s.unfilled++
	}

	if t.LimitOpen.Filled {
		t.FilledContracts = t.LimitOpen.Contracts
	}
	t.settle()
	s.trade = nil
	return nil
}

// FinalOrders reconciles the three resting orders of the live fade, the
// market close of the previous fade when it was forced, and the next
// fade's entry and stop when the current entry already filled.
func (s *RevStrategy) FinalOrders(live LiveState, weight float64) []*Order {
	t := s.trade
	if t == nil {
		return nil
	}

	c := s.candle
	balance := live.WalletBalance * weight
	var orders []*Order

	t.rescaleOrders(balance)
	t.Stop.Contracts = 0

	// A previous forced close that is still resting live becomes a
	// market close.
	if n := len(s.history); n >= 2 {
		prevClose := s.history[n-2].LimitClose
		if prevClose.MarketFilled {
			if actual, ok := live.OrderByKey(prevClose.Key); ok && actual.Side == prevClose.Side {
				prevClose.SetName("marketclose")
				prevClose.Exec = ExecMarket
				prevClose.ExecInst = "Close"
				orders = append(orders, prevClose)
			}
		}
	}

	if live.PositionContracts != 0 {
		t.LimitClose.Contracts = -live.PositionContracts
		orders = append(orders, t.LimitClose)
	}

	buy := t.LimitOpen
	buyActual, buyResting := live.OrderByKey(buy.Key)
	if buy.Filled {
		if buy.MarketFilled && live.PositionContracts == 0 && t.Duration() == revForceCloseAfter {
			buy.SetName("marketbuy")
			buy.Exec = ExecMarket
			orders = append(orders, buy)
			t.Stop.Contracts += -buy.Contracts
		}

		// Arm the opposite fade at its own band.
		px := c.RevHigh
		if t.Side == -1 {
			px = c.RevLow
		}
		next := s.initTrade(c, -t.Side, px, balance, true)
		orders = append(orders, next.LimitOpen, next.Stop)
	} else if buyResting || !buy.Cancelled {
		orders = append(orders, buy)
	}

	if !t.Stop.Filled {
		t.Stop.Contracts += -live.PositionContracts
		if buyResting {
			t.Stop.Contracts += -buyActual.Contracts
		}
		orders = append(orders, t.Stop)
	}

	return checkFinalOrders(orders)
}

// RevTrade holds one fade: limit entry at the band, hard stop, and a
// limit close tracking the opposite band candle by candle.
type RevTrade struct {
	Trade

	LimitOpen  *Order
	Stop       *Order
	LimitClose *Order

	StopPx  float64
	Stopped bool

	stopPct        float64
	slip           float64
	sinceEntryFill int
}

func (t *RevTrade) init(c domain.Candle, entryPrice float64, contracts int, s *RevStrategy, conf float64, side int, temp bool) {
	t.initBase(c, entryPrice, contracts, &s.strategyCore, conf, statusFor(side, false))
	t.stopPct = s.stopPct
	t.slip = s.slippage

	if !temp {
		s.trades = append(s.trades, &t.Trade)
		s.history = append(s.history, t)
	}

	limitBuyPrice := t.EntryTarget * (1 + t.slip*float64(t.Side)*-1)
	t.StopPx = contract.PriceAtPnl(t.stopPct, limitBuyPrice, t.Side)

	sized := int(float64(t.TargetContracts) * t.Conf)

	t.LimitOpen = NewOrder(OrderConfig{
		Price:     limitBuyPrice,
		Side:      t.Side,
		Contracts: sized,
		Kind:      KindEntry,
		Exec:      ExecLimit,
		Name:      "limitopen",
		Activate:  true,
		Trade:     &t.Trade,
	})

	t.Stop = NewOrder(OrderConfig{
		Price:     t.StopPx,
		Side:      -t.Side,
		Contracts: -sized,
		Kind:      KindStop,
		Exec:      ExecStop,
		Name:      "stop",
		Trade:     &t.Trade,
	})
	t.Stop.ExecInst = "Close,IndexPrice"

	t.LimitClose = NewOrder(OrderConfig{
		Price:     t.closePrice(c),
		Side:      -t.Side,
		Contracts: -sized,
		Kind:      KindClose,
		Exec:      ExecLimit,
		Name:      "limitclose",
		Trade:     &t.Trade,
	})
	t.LimitClose.ExecInst = "Close"

	t.Orders = []*Order{t.LimitOpen, t.Stop, t.LimitClose}
}

// closePrice targets the opposite band, padded with slippage, whole-tick.
func (t *RevTrade) closePrice(c domain.Candle) float64 {
	band := c.RevLow
	if t.Side == 1 {
		band = c.RevHigh
	}
	return math.Round(band * (1 + t.slip*float64(t.Side)))
}

// CheckOrders runs the fill cascade for one candle: an entry fill arms
// the stop and close, a stop fill cancels the close and marks the trade
// stopped, a close fill cancels the stop. Entries and closes give up
// after four candles and fill at market. The resting close then tracks
// the new band price.
func (t *RevTrade) CheckOrders(c domain.Candle) error {
	t.addCandle(c)

	if t.LimitOpen.Filled {
		t.sinceEntryFill++
	}

	for _, o := range []*Order{t.LimitOpen, t.Stop, t.LimitClose} {
		if !o.Active || o.Filled || o.Cancelled {
			continue
		}
		if err := o.Check(c); err != nil {
			return err
		}

		// An entry still resting on the fourth candle fills at its close.
		if o.Kind == KindEntry && !o.Filled && t.Duration() == revForceCloseAfter {
			if err := o.FillMarket(c, c.Close); err != nil {
				return err
			}
		}
		if !o.Filled {
			continue
		}

		switch o.Kind {
		case KindEntry:
			t.FilledContracts = o.Contracts
			t.Stop.Active = true
			t.LimitClose.Active = true
		case KindStop:
			t.LimitClose.Cancel(c)
			t.Stopped = true
		case KindClose:
			t.Stop.Cancel(c)
		}
	}

	// Entry filled but the close never did: give up and close at market.
	if t.sinceEntryFill >= revForceCloseAfter &&
		t.LimitOpen.Filled && !t.Stopped &&
		!t.LimitClose.Filled && !t.LimitClose.Cancelled {
		t.Stop.Cancel(c)
		if err := t.LimitClose.FillMarket(c, c.Close); err != nil {
			return err
		}
		t.Forced = true
		t.strat.unfilled++
	}

	if !t.LimitClose.Filled && !t.LimitClose.Cancelled {
		t.LimitClose.Price = t.closePrice(c)
	}
	return nil
}
