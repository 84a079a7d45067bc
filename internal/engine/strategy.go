package engine

import (
	"futures-sim-lab/internal/contract"
	"futures-sim-lab/internal/domain"
)

// Strategy is one independent decision loop over the candle stream. Each
// strategy owns at most one live trade and a history of settled ones.
type Strategy interface {
	// Init wires the strategy to its backtest before the first candle.
	Init(bt *Backtest)
	// Decide processes one candle in stream order.
	Decide(c domain.Candle) error
	// FinalOrders renders the orders that should be resting on the
	// exchange right now, reconciled against the live account state.
	FinalOrders(live LiveState, weight float64) []*Order

	Name() string
	Weight() float64
	Status() Status
	Snapshot(c domain.Candle) domain.CandleSnapshot
	Results() []domain.TradeResult
	TradeCount() int
	GoodTrades() int
	UnfilledTrades() int
}

// LiveOrder is a resting order as reported by the exchange.
type LiveOrder struct {
	Side      int
	Contracts int
	Price     float64
}

// LiveState is the exchange-side account snapshot used to reconcile
// theoretical orders against reality.
type LiveState struct {
	WalletBalance     float64
	PositionContracts int
	Orders            map[string]LiveOrder // by order key
}

// OrderByKey looks up a resting live order by its role key.
func (ls LiveState) OrderByKey(key string) (LiveOrder, bool) {
	o, ok := ls.Orders[key]
	return o, ok
}

// strategyCore is the state shared by every strategy variant.
type strategyCore struct {
	name      string
	weight    float64
	lev       float64
	status    Status
	maxSpread float64
	slippage  float64

	trades   []*Trade
	live     *Trade // base of the open trade, nil when flat
	unfilled int

	candle domain.Candle // latest candle seen by Decide

	bt   *Backtest
	acct *Account
	meta domain.SymbolMeta
}

// attach wires the shared backtest references.
func (s *strategyCore) attach(bt *Backtest) {
	s.bt = bt
	s.acct = bt.Account
	s.meta = bt.Meta
}

func (s *strategyCore) Name() string    { return s.name }
func (s *strategyCore) Weight() float64 { return s.weight }
func (s *strategyCore) Status() Status  { return s.status }

// TradeCount is the number of settled trades.
func (s *strategyCore) TradeCount() int { return len(s.trades) }

// tradeAt returns the i-th settled trade, 1-based, clamped to the last.
func (s *strategyCore) tradeAt(i int) *Trade {
	if i > len(s.trades) {
		i = len(s.trades)
	}
	if i < 1 {
		return nil
	}
	return s.trades[i-1]
}

// lastTrade returns the most recent settled trade, nil when none.
func (s *strategyCore) lastTrade() *Trade {
	return s.tradeAt(len(s.trades))
}

// GoodTrades counts settled trades with positive pnl.
func (s *strategyCore) GoodTrades() int {
	n := 0
	for _, t := range s.trades {
		if t.IsGood() {
			n++
		}
	}
	return n
}

// UnfilledTrades counts trades whose close had to be market-filled.
func (s *strategyCore) UnfilledTrades() int { return s.unfilled }

// Results renders the settled trade history for the trade log.
func (s *strategyCore) Results() []domain.TradeResult {
	out := make([]domain.TradeResult, 0, len(s.trades))
	for _, t := range s.trades {
		out = append(out, t.result(s.meta.Symbol, s.name))
	}
	return out
}

// Snapshot captures the per-candle recording row.
func (s *strategyCore) Snapshot(c domain.Candle) domain.CandleSnapshot {
	snap := domain.CandleSnapshot{
		Symbol:    s.meta.Symbol,
		Strategy:  s.name,
		Timestamp: c.Timestamp,
		Balance:   s.acct.Balance(),
		Status:    s.status.Code(),
	}
	if s.live != nil {
		snap.Contracts = s.live.Contracts
		if s.live.EntryPrice != 0 {
			snap.Pnl = contract.PnlPct(s.live.Side, s.live.EntryPrice, c.Close)
		}
	}
	return snap
}

// checkFinalOrders drops zero-contract orders before they reach the
// live-sync boundary.
func checkFinalOrders(orders []*Order) []*Order {
	out := orders[:0]
	for _, o := range orders {
		if o.Contracts != 0 {
			out = append(out, o)
		}
	}
	return out
}
