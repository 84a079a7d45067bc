package engine

import (
	"futures-sim-lab/internal/contract"
	"futures-sim-lab/internal/domain"
)

// Trend strategy tuning.
const (
	trendSlippage    = 0.0044
	trendMaxSpread   = 0.1
	trendStopPct     = -0.04
	trendMeanRevMin  = 0.05
	trendAltLeverage = 2.5
	recentWinPnl     = 0.05
	recentWinConf    = 0.25
)

// TrendConfig configures a TrendStrategy.
type TrendConfig struct {
	Weight        float64
	Leverage      float64
	MeanRev       bool // arm the mean-reversion re-entry after a large win
	Opposite      bool // fade the breakout instead of following it
	UseConfidence bool // scale contracts by the ema-spread confidence curve
}

// TrendStrategy follows breakouts of the rolling trend bands. Exits and
// opposite-side entries share the same band, so a stop-out can reverse
// the position on the same candle.
type TrendStrategy struct {
	strategyCore

	MeanRevEnabled bool
	MeanRev        bool
	Opposite       bool
	UseConfidence  bool

	stopPct    float64
	meanRevMin float64

	entryPrice float64
	trade      *TrendTrade
}

var _ Strategy = (*TrendStrategy)(nil)

// NewTrendStrategy builds a trend strategy with the stock tuning.
func NewTrendStrategy(cfg TrendConfig) *TrendStrategy {
	s := &TrendStrategy{
		MeanRevEnabled: cfg.MeanRev,
		Opposite:       cfg.Opposite,
		UseConfidence:  cfg.UseConfidence,
		stopPct:        trendStopPct,
		meanRevMin:     trendMeanRevMin,
	}
	s.name = "trend"
	s.weight = cfg.Weight
	s.lev = cfg.Leverage
	s.slippage = trendSlippage
	s.maxSpread = trendMaxSpread
	return s
}

// Init wires the backtest. Altcoin instruments trade at reduced leverage.
func (s *TrendStrategy) Init(bt *Backtest) {
	s.attach(bt)
	if s.meta.IsAltcoin {
		s.lev = trendAltLeverage
	}
}

// modiOpp flips entry direction for the opposite (fading) variant.
func (s *TrendStrategy) modiOpp() int {
	if s.Opposite {
		return -1
	}
	return 1
}

// branch folds status and the opposite modifier into the decide branch:
// +1 position moves with highs, -1 with lows, 0 flat.
func (s *TrendStrategy) branch() int {
	var code int
	switch s.status {
	case Flat:
		return 0
	case Long, Short, LongMeanRev, ShortMeanRev:
		code = s.status.Code()
	}
	k := code * s.modiOpp()
	switch k {
	case 1, -2:
		return 1
	case -1, 2:
		return -1
	}
	return 0
}

// Decide processes one candle: exit first against the band, then enter.
func (s *TrendStrategy) Decide(c domain.Candle) error {
	s.candle = c
	if s.trade != nil {
		s.trade.addCandle(c)
	}

	opp := s.modiOpp()

	switch s.branch() {
	case 0:
		if c.High > c.TrendHigh {
			s.enterTrade(c, 1*opp, c.TrendHigh)
		} else if c.Low < c.TrendLow {
			s.enterTrade(c, -1*opp, c.TrendLow)
		}

	case 1:
		if c.Low < c.TrendLow {
			s.exitTrade(c, c.TrendLow)
		} else if s.trade != nil && s.status.MeanRev() && s.trade.IsStopped() {
			s.exitTrade(c, s.trade.StopPx)
		}

		if !s.MeanRev {
			if s.status == Flat && c.Low < c.TrendLow {
				s.enterTrade(c, -1*opp, c.TrendLow)
			}
		} else if s.status == Flat && c.Low < c.TrendLow {
			s.enterTrade(c, 1, c.TrendLow)
		}

	case -1:
		if c.High > c.TrendHigh {
			s.exitTrade(c, c.TrendHigh)
		} else if s.trade != nil && s.status.MeanRev() && s.trade.IsStopped() {
			s.exitTrade(c, s.trade.StopPx)
		}

		if !s.MeanRev {
			if s.status == Flat && c.High > c.TrendHigh {
				s.enterTrade(c, 1*opp, c.TrendHigh)
			}
		} else if s.status == Flat && c.High > c.TrendHigh {
			s.enterTrade(c, -1, c.TrendHigh)
		}
	}

	return nil
}

// enterTrade opens a position at the band price adjusted for slippage.
func (s *TrendStrategy) enterTrade(c domain.Candle, side int, entryPrice float64) {
	s.status = statusFor(side, s.MeanRev)

	conf := 1.0
	if s.UseConfidence {
		conf = s.confidence(c)
	}

	modi := 1.0
	if s.MeanRev {
		modi = -1
	}
	s.entryPrice = entryPrice * (1 + s.slippage*float64(s.status.Side())*modi*float64(s.modiOpp()))

	contracts := int(conf * s.weight * float64(contract.Contracts(s.acct.Balance(), s.lev, s.entryPrice, s.status.Side(), s.meta.IsAltcoin)))

	t := &TrendTrade{}
	t.init(c, s.entryPrice, contracts, s, conf, s.status)
	s.trade = t
	s.live = &t.Trade
}

// exitTrade closes the position at the band price adjusted for slippage.
// Trades with a drawdown past the stop on an opposite or mean-reversion
// variant exit at the stop price instead of the band.
func (s *TrendStrategy) exitTrade(c domain.Candle, exitPrice float64) {
	t := s.trade

	modi := 1.0
	if s.MeanRev {
		modi = -1
	}
	modiOpp := float64(s.modiOpp())

	t.ExitPrice = exitPrice
	if t.pnlMaxMin(-1, false) < s.stopPct && (s.MeanRev || s.Opposite) {
		exitPrice = contract.PriceAtPnl(s.stopPct, s.entryPrice, s.status.Side())
		modiOpp = 1
	}
	exitPrice = exitPrice * (1 + float64(s.status.Side())*s.slippage*-1*modi*modiOpp)

	t.exit(c, exitPrice)

	if s.MeanRev {
		s.MeanRev = false
	} else if s.MeanRevEnabled && t.PnlCurrent(c) > s.meanRevMin {
		s.MeanRev = true
	}

	s.trade = nil
}

// recentWin reports a large winner among the last few settled trades and
// shrinks confidence after one.
func (s *TrendStrategy) recentWin() float64 {
	n := s.TradeCount()
	off := 2
	if n < 3 {
		off = n - 1
	}
	for y := n; y >= n-off; y-- {
		if t := s.tradeAt(y); t != nil && t.PnlFinal > recentWinPnl {
			return recentWinConf
		}
	}
	return 1
}

// confidence sizes the next trade. Mean-reversion entries run at full
// tilt; otherwise a recent large win caps sizing, else the ema-spread
// decay curve decides.
func (s *TrendStrategy) confidence(c domain.Candle) float64 {
	if s.MeanRev {
		return 1.5
	}
	if rw := s.recentWin(); rw <= 0.5 {
		return rw
	}
	return roundTo(contract.Confidence(c.EMASpread, s.maxSpread), 3)
}

// FinalOrders renders the two stops that should rest live: a stop-close
// protecting the open position and a stop-buy re-arming the breakout.
func (s *TrendStrategy) FinalOrders(live LiveState, weight float64) []*Order {
	var orders []*Order
	c := s.candle
	side := s.status.Side()

	// Both stops rest at the band the position trades against: the close
	// exits there and the buy re-arms the opposite breakout at the same
	// price.
	bandPx := c.TrendHigh
	if side == 1 {
		bandPx = c.TrendLow
	}

	if live.PositionContracts != 0 && side != 0 {
		stopClose := NewOrder(OrderConfig{
			Price:     bandPx,
			Side:      -side,
			Contracts: -live.PositionContracts,
			Kind:      KindClose,
			Exec:      ExecStop,
			Name:      "stopclose",
			Activate:  true,
			Meta:      s.meta,
		})
		stopClose.ExecInst = "Close,IndexPrice"
		orders = append(orders, stopClose)
	}

	reEnterSide := -side
	if reEnterSide != 0 {
		contracts := int(weight * float64(contract.Contracts(live.WalletBalance, s.lev, bandPx, reEnterSide, s.meta.IsAltcoin)))
		stopBuy := NewOrder(OrderConfig{
			Price:     bandPx,
			Side:      reEnterSide,
			Contracts: contracts,
			Kind:      KindEntry,
			Exec:      ExecStop,
			Name:      "stopbuy",
			Activate:  true,
			Meta:      s.meta,
		})
		stopBuy.ExecInst = "IndexPrice"
		orders = append(orders, stopBuy)
	}

	return checkFinalOrders(orders)
}

// TrendTrade fills synthetically at the adjusted entry target the moment
// it opens; the trend loop trades at the band, not with resting orders.
type TrendTrade struct {
	Trade

	// StopPx is the hard stop for mean-reversion entries.
	StopPx float64
}

func (t *TrendTrade) init(c domain.Candle, price float64, contracts int, s *TrendStrategy, conf float64, status Status) {
	t.initBase(c, price, contracts, &s.strategyCore, conf, status)

	t.EntryPrice = price
	t.Contracts = contracts
	t.FilledContracts = contracts

	if status.MeanRev() {
		t.StopPx = contract.PriceAtPnl(s.stopPct, t.EntryPrice, t.Side)
	}
}

// IsStopped reports whether the worst excursion breached the hard stop.
func (t *TrendTrade) IsStopped() bool {
	return t.pnlMaxMin(-1, false) < trendStopPct
}

// exit settles the trade at the given price and posts the realized pnl.
func (t *TrendTrade) exit(c domain.Candle, price float64) {
	t.ExitPrice = price
	t.acct.Post(contract.PnlMargin(t.Contracts, t.EntryPrice, t.ExitPrice, t.meta.IsAltcoin), c.Timestamp)
	t.strat.trades = append(t.strat.trades, &t.Trade)
	t.settle()
}
