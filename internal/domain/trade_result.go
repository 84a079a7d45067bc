package domain

import "time"

// TradeResult is one settled trade as recorded in the trade log.
type TradeResult struct {
	TradeID  string // deterministic hash
	Symbol   string
	Strategy string
	TradeNum int

	Status int // signed status code: +-1 simple, +-2 mean-reversion
	Side   int

	EntryTime time.Time
	ExitTime  time.Time

	EntryPrice float64 // weighted average entry
	ExitPrice  float64 // weighted average exit

	TargetContracts int
	FilledContracts int

	Conf        float64
	Pnl         float64 // percent pnl from weighted entry/exit
	ExitBalance float64 // account balance after settlement
	Duration    int     // candles the trade was open
	Forced      bool    // close was market-filled rather than resting-filled
}

// StrategyAggregate holds per-strategy summary metrics over settled trades.
type StrategyAggregate struct {
	Symbol   string
	Strategy string

	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64
	Unfilled    int // trades whose close had to be force-filled

	PnlMean   float64
	PnlMedian float64
	PnlP10    float64
	PnlP90    float64
	PnlMin    float64
	PnlMax    float64
	PnlStddev float64

	MaxDrawdown          float64 // worst peak-to-trough on exit balances
	MaxConsecutiveLosses int

	FinalBalance float64
	MinBalance   float64
	MaxBalance   float64
}
