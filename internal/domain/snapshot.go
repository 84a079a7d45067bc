package domain

import "time"

// CandleSnapshot is one per-candle, per-strategy row of simulation state,
// recorded only when the driver runs with recording enabled. Not required
// for simulation correctness.
type CandleSnapshot struct {
	Symbol    string
	Strategy  string
	Timestamp time.Time
	Balance   float64
	Status    int // signed status code at the candle
	Contracts int // live trade's accumulated contracts
	Pnl       float64 // open pnl against the candle close
}

// OrderSnapshot is the wire-level view of one order that should currently
// be resting on the exchange. The live-sync collaborator diffs these
// against actual exchange state; the core never talks to the network.
type OrderSnapshot struct {
	ExchangeSymbol string  `json:"symbol"`
	Side           int     `json:"side"`
	Price          float64 `json:"price"`
	Contracts      int     `json:"contracts"`
	Key            string  `json:"key"`      // stable role key: symbol-name-side-kind
	ClOrdID        string  `json:"clOrdID"`  // client order id derived from Key
	OrderKind      string  `json:"ordType"`  // Limit, Stop or Market
	ExecInst       string  `json:"execInst,omitempty"`
}
