package engine

import (
	"errors"
	"time"

	"futures-sim-lab/internal/contract"
	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/idhash"
)

// ErrNoEntryPrice is returned when a close is settled against a trade whose
// entry price is still zero. Nothing has been filled to exit against, so
// the run for that symbol must abort rather than post a wrong pnl.
var ErrNoEntryPrice = errors.New("close against zero entry price")

// Trade is the common lifecycle state shared by all trade variants:
// target sizing, fill accumulation, weighted entry/exit, settlement.
// Exactly one live Trade exists per Strategy at a time.
type Trade struct {
	Num    int
	Status Status
	Side   int
	Active bool
	Conf   float64

	EntryTarget     float64
	EntryPrice      float64 // weighted average of entry fills
	ExitPrice       float64 // weighted average of exit fills
	TargetContracts int
	Contracts       int // accumulated net contracts
	FilledContracts int
	exitContracts   int

	PnlFinal    float64
	ExitBalance float64
	Forced      bool

	Orders  []*Order
	Candles []domain.Candle

	openedAt time.Time

	// Lookup-only back-reference to the owning strategy's shared state.
	strat *strategyCore
	acct  *Account
	meta  domain.SymbolMeta
}

// initBase wires the common trade state. The entry candle is used for the
// open timestamp only; candles are appended per-candle while the trade is
// open.
func (t *Trade) initBase(c domain.Candle, price float64, targetContracts int, strat *strategyCore, conf float64, status Status) {
	t.EntryTarget = price
	t.EntryPrice = 0
	t.TargetContracts = targetContracts
	t.Conf = roundTo(conf, 3)
	t.Status = status
	t.Side = status.Side()
	t.Active = true
	t.Num = len(strat.trades)
	t.openedAt = c.Timestamp
	t.strat = strat
	t.acct = strat.acct
	t.meta = strat.meta
}

func (t *Trade) addCandle(c domain.Candle) {
	t.Candles = append(t.Candles, c)
}

// Duration is the number of candles seen while the trade was open.
func (t *Trade) Duration() int {
	return len(t.Candles)
}

// openOrder folds an entry fill into the weighted entry price.
func (t *Trade) openOrder(price float64, contracts int) {
	if contracts == 0 {
		return
	}
	t.EntryPrice = (t.EntryPrice*float64(t.Contracts) + price*float64(contracts)) / float64(t.Contracts+contracts)
	t.Contracts += contracts
}

// closeOrder folds an exit fill into the weighted exit price and posts the
// realized pnl to the account.
func (t *Trade) closeOrder(price float64, contracts int, ts time.Time) error {
	if contracts == 0 {
		return nil
	}

	t.ExitPrice = (t.ExitPrice*float64(t.exitContracts) + price*float64(contracts)) / float64(t.exitContracts+contracts)

	if t.EntryPrice == 0 {
		return ErrNoEntryPrice
	}

	t.acct.Post(contract.PnlMargin(-contracts, t.EntryPrice, price, t.meta.IsAltcoin), ts)

	t.exitContracts += contracts
	t.Contracts += contracts
	return nil
}

// closePosition force-closes the remaining position at the candle's open.
func (t *Trade) closePosition(c domain.Candle) error {
	return t.closeOrder(c.Open, -t.Contracts, c.Timestamp)
}

// settle marks the trade inactive, computes final pnl from the weighted
// entry/exit and clears the owning strategy's position status.
func (t *Trade) settle() {
	t.strat.status = Flat
	t.strat.live = nil
	t.PnlFinal = contract.PnlPct(t.Side, t.EntryPrice, t.ExitPrice)
	t.ExitBalance = t.acct.Balance()
	t.Active = false
}

// PnlCurrent is the open pnl against a close price.
func (t *Trade) PnlCurrent(c domain.Candle) float64 {
	return contract.PnlPct(t.Side, t.EntryPrice, c.Close)
}

// pnlMaxMin is the best (maxmin=1) or worst (maxmin=-1) excursion relative
// to entry over the trade's candle history.
func (t *Trade) pnlMaxMin(maxmin int, firstOnly bool) float64 {
	return contract.PnlPct(t.Side, t.EntryPrice, t.Extremum(t.Side*maxmin, firstOnly))
}

// IsGood reports whether the settled trade was profitable.
func (t *Trade) IsGood() bool {
	return t.PnlFinal > 0
}

// Extremum returns the extreme touch (highlow=1 highs, -1 lows) over the
// trade's candles. The entry candle contributes only the touch after
// entry and the exit candle only the touch before exit; the status-times-
// direction switch encodes those two special cases. Middle candles
// contribute their full high/low, including the second-to-last one.
func (t *Trade) Extremum(highlow int, firstOnly bool) float64 {
	if len(t.Candles) == 0 {
		return t.EntryPrice
	}

	code := t.Status.Code()

	c := t.Candles[0]
	var ext float64
	switch code * highlow {
	case 1, -2:
		if highlow == 1 {
			ext = c.High
		} else {
			ext = c.Low
		}
	case -1, 2:
		ext = t.EntryPrice
	}

	if firstOnly {
		return ext
	}

	for i := 1; i <= t.Duration()-2; i++ {
		c = t.Candles[i]
		if highlow == 1 && c.High > ext {
			ext = c.High
		} else if highlow == -1 && c.Low < ext {
			ext = c.Low
		}
	}

	c = t.Candles[t.Duration()-1]
	var fExt float64
	switch code * highlow {
	case -1, 2:
		fExt = t.ExitPrice
	case 1, -2:
		if highlow == 1 {
			fExt = c.High
		} else {
			fExt = c.Low
		}
	}

	if (fExt-ext)*float64(highlow) > 0 {
		ext = fExt
	}
	return ext
}

// rescaleOrders recomputes every order's contracts against a live balance.
func (t *Trade) rescaleOrders(balance float64) {
	for _, o := range t.Orders {
		o.Rescale(balance, t.Conf, t.strat.lev)
	}
}

// result renders the settled trade for the trade log.
func (t *Trade) result(symbol, strategy string) domain.TradeResult {
	exitTime := t.openedAt
	if n := len(t.Candles); n > 0 {
		exitTime = t.Candles[n-1].Timestamp
	}

	return domain.TradeResult{
		TradeID:         idhash.ComputeTradeID(symbol, strategy, t.Num, t.openedAt.UnixMilli()),
		Symbol:          symbol,
		Strategy:        strategy,
		TradeNum:        t.Num,
		Status:          t.Status.Code(),
		Side:            t.Side,
		EntryTime:       t.openedAt,
		ExitTime:        exitTime,
		EntryPrice:      t.EntryPrice,
		ExitPrice:       t.ExitPrice,
		TargetContracts: t.TargetContracts,
		FilledContracts: t.FilledContracts,
		Conf:            t.Conf,
		Pnl:             t.PnlFinal,
		ExitBalance:     t.ExitBalance,
		Duration:        len(t.Candles),
		Forced:          t.Forced,
	}
}
