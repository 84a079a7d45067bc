package engine

import (
	"math"
	"time"

	"futures-sim-lab/internal/contract"
	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/idhash"
)

// OrderKind is the role an order plays inside a trade.
type OrderKind int

// Order kinds. Entry orders add contracts into the trade; stop and close
// orders carry the opposite sign so a fill naturally reduces the position.
const (
	KindEntry OrderKind = 1
	KindStop  OrderKind = 2
	KindClose OrderKind = 3
)

// ExecType is the exchange-level order type.
type ExecType string

// Exchange order types.
const (
	ExecLimit  ExecType = "Limit"
	ExecStop   ExecType = "Stop"
	ExecMarket ExecType = "Market"
)

// Order is a single resting or filled instruction.
// Lifecycle: inactive -> active -> filled | cancelled (terminal).
// ActiveNext delays arming by exactly one candle.
type Order struct {
	Name     string
	Key      string
	ExecInst string

	Side      int
	Price     float64
	PxOrig    float64
	Contracts int
	Kind      OrderKind
	Exec      ExecType
	Index     int

	Active       bool
	ActiveNext   bool
	Filled       bool
	MarketFilled bool
	Cancelled    bool
	FilledAt     time.Time

	// Lookup-only back-references; ownership flows strictly downward.
	trade  *Trade
	ladder *Ladder

	meta domain.SymbolMeta
}

// OrderConfig carries everything needed to construct an Order.
type OrderConfig struct {
	Price     float64
	Side      int
	Contracts int
	Kind      OrderKind
	Exec      ExecType
	Name      string
	Activate  bool
	Index     int
	Trade     *Trade
	Ladder    *Ladder
	Meta      domain.SymbolMeta
}

// NewOrder constructs an order with its price tick-adjusted against its
// side so it never rests exactly on the matching boundary.
func NewOrder(cfg OrderConfig) *Order {
	o := &Order{
		Name:      cfg.Name,
		Side:      cfg.Side,
		Contracts: cfg.Contracts,
		Kind:      cfg.Kind,
		Exec:      cfg.Exec,
		Index:     cfg.Index,
		Active:    cfg.Activate,
		trade:     cfg.Trade,
		ladder:    cfg.Ladder,
		meta:      cfg.Meta,
	}

	if o.ladder != nil && o.trade == nil {
		o.trade = o.ladder.trade
	}
	if o.trade != nil {
		o.meta = o.trade.meta
	}

	o.Price = tickPrice(cfg.Price, o.Side, o.meta)
	o.PxOrig = o.Price
	o.setKey()
	return o
}

// SetName renames the order and rebuilds its role key.
func (o *Order) SetName(name string) {
	o.Name = name
	o.setKey()
}

func (o *Order) setKey() {
	o.Key = idhash.OrderKey(o.meta.ExchangeSymbol, o.Name, o.Side, int(o.Kind))
}

// enterExit is -1 for orders that trigger toward the position (entry,
// stop) and +1 for orders that trigger away from it (close).
func (o *Order) enterExit() int {
	if o.Kind == KindClose {
		return 1
	}
	return -1
}

// addSubtract is +1 for orders that open contracts and -1 for orders that
// reduce them.
func (o *Order) addSubtract() int {
	if o.Kind == KindEntry {
		return 1
	}
	return -1
}

// direction is the trigger direction: +1 checks against candle highs, -1
// against candle lows.
func (o *Order) direction() int {
	return o.trade.Side * o.enterExit()
}

// Check fills the order if the candle's relevant extreme crosses its
// price. Calling it on a filled or inactive order is a no-op.
func (o *Order) Check(c domain.Candle) error {
	if !o.Active || o.Filled || o.Cancelled {
		return nil
	}

	checkPrice := c.Low
	if o.direction() == 1 {
		checkPrice = c.High
	}

	if float64(o.direction())*(o.Price-checkPrice) <= 0 {
		return o.fill(c, o.Price, false)
	}
	return nil
}

// FillMarket force-fills the order at an explicit price, marking it as
// market-filled.
func (o *Order) FillMarket(c domain.Candle, price float64) error {
	return o.fill(c, price, true)
}

func (o *Order) fill(c domain.Candle, price float64, market bool) error {
	if o.Filled {
		return nil
	}
	o.Filled = true
	o.FilledAt = c.Timestamp

	if market {
		o.Price = price
		o.MarketFilled = true
	}

	if o.addSubtract() == 1 {
		o.trade.openOrder(o.Price, o.Contracts)
		return nil
	}
	return o.trade.closeOrder(o.Price, o.Contracts, c.Timestamp)
}

// Cancel deactivates the order and stamps the cancel time with the
// current candle's close time. Idempotent.
func (o *Order) Cancel(c domain.Candle) {
	if o.Cancelled {
		return
	}
	o.Active = false
	o.Cancelled = true
	o.FilledAt = c.Timestamp
	if o.ladder != nil {
		o.ladder.openOrders--
	}
}

// Rescale recomputes the contract count from a live balance and
// confidence. Used when the live account diverges from the backtest
// assumption.
func (o *Order) Rescale(balance, conf, leverage float64) {
	o.Contracts = int(conf * float64(contract.Contracts(balance, leverage, o.Price, o.Side, o.meta.IsAltcoin)))
}

// Snapshot renders the order for the live-sync boundary, stamping the
// client order id with the submission time. Replay never calls this, so
// order construction stays clock-free.
func (o *Order) Snapshot(ts time.Time) domain.OrderSnapshot {
	return domain.OrderSnapshot{
		ExchangeSymbol: o.meta.ExchangeSymbol,
		Side:           o.Side,
		Price:          o.Price,
		Contracts:      o.Contracts,
		Key:            o.Key,
		ClOrdID:        idhash.ClOrdID(o.Key, ts.Unix()),
		OrderKind:      string(o.Exec),
		ExecInst:       o.ExecInst,
	}
}

// tickPrice rounds to the instrument's display precision, then nudges one
// minimum tick against the order's side.
func tickPrice(price float64, side int, meta domain.SymbolMeta) float64 {
	p := roundTo(price, meta.Precision)
	return roundTo(p+meta.Tick()*float64(-side), meta.Precision)
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
