package engine

import (
	"fmt"
	"math"

	"futures-sim-lab/internal/domain"
)

// ladderRungs is the number of orders in every ladder.
const ladderRungs = 4

// ladderFractions splits the trade's target contracts across rungs,
// weighted toward the rungs furthest from the anchor.
var ladderFractions = [ladderRungs]float64{1.0 / 6, 1.0 / 4.5, 1.0 / 3.6, 1.0 / 3}

// Ladder is a fixed set of orders of one kind spaced away from an anchor
// price. Entry ladders arm their paired stop rung on fill immediately and
// their paired take-profit rung with a one-candle delay.
type Ladder struct {
	Kind   OrderKind
	Anchor float64
	Spread float64
	Side   int

	// MaxPrice is the price of the rung furthest from the anchor in the
	// ladder's trigger direction.
	MaxPrice float64

	Orders []*Order

	Active          bool
	Filled          bool
	FilledOrders    int
	FilledContracts int
	openOrders      int

	trade *Trade

	// Sibling ladders of the same trade, wired after construction.
	entry *Ladder
	stops *Ladder
	tps   *Ladder
}

// LadderConfig carries everything needed to construct a Ladder. When
// HasOuter is set the spread is derived from the distance between the
// anchor and Outer, and rung prices start one step away from the anchor.
type LadderConfig struct {
	Kind     OrderKind
	Anchor   float64
	Spread   float64
	Outer    float64
	HasOuter bool
	Activate bool
	Exec     ExecType
	Trade    *Trade
}

// NewLadder builds the ladder and its orders. Rung n rests at
// anchor*(1+spread*n*side*enterexit), contracts are the rung fraction of
// the trade's target.
func NewLadder(cfg LadderConfig) *Ladder {
	l := &Ladder{
		Kind:   cfg.Kind,
		Anchor: cfg.Anchor,
		Spread: cfg.Spread,
		Active: cfg.Activate,
		trade:  cfg.Trade,
	}

	enterExit := kindEnterExit(l.Kind)
	addSubtract := kindAddSubtract(l.Kind)
	l.Side = l.trade.Side * addSubtract

	if cfg.HasOuter {
		priceRange := math.Abs(cfg.Outer - l.Anchor)
		l.Spread = (priceRange / float64(ladderRungs+1)) / l.Anchor
	}

	direction := l.trade.Side * enterExit
	l.MaxPrice = l.Anchor * (1 + float64(direction)*float64(ladderRungs-1)*l.Spread)

	modi := "lwr"
	if l.Side == -1 {
		modi = "upr"
	}

	for n := 0; n < ladderRungs; n++ {
		step := n
		if cfg.HasOuter {
			step = n + 1
		}
		price := l.Anchor * (1 + l.Spread*float64(step)*float64(direction))
		contracts := int(math.Round(ladderFractions[n] * float64(l.trade.TargetContracts) * float64(addSubtract)))

		o := NewOrder(OrderConfig{
			Price:     price,
			Side:      l.Side,
			Contracts: contracts,
			Kind:      l.Kind,
			Exec:      cfg.Exec,
			Name:      fmt.Sprintf("%s%d%s", kindLetter(l.Kind), n+1, modi),
			Activate:  cfg.Activate,
			Index:     n,
			Ladder:    l,
		})
		o.ExecInst = kindExecInst(l.Kind)

		l.Orders = append(l.Orders, o)
		l.openOrders++
	}

	return l
}

// link wires the sibling ladders used by the fill cascade and by
// UnfilledOrders.
func (l *Ladder) link(entry, stops, tps *Ladder) {
	l.entry = entry
	l.stops = stops
	l.tps = tps
}

// Check evaluates every live rung against the candle and runs the fill
// cascade: an entry fill arms its stop rung now and its take-profit rung
// next candle, a stop fill cancels its take-profit rung, a take-profit
// fill cancels its stop rung.
func (l *Ladder) Check(c domain.Candle) error {
	if !l.Active {
		return nil
	}
	// Reducing rungs only matter while contracts are open.
	if l.Kind != KindEntry && l.trade.Contracts == 0 {
		return nil
	}

	for i, o := range l.Orders {
		if o.Active && !o.Filled && !o.Cancelled {
			if err := o.Check(c); err != nil {
				return err
			}
			if !o.Filled {
				continue
			}

			switch l.Kind {
			case KindEntry:
				l.stops.Orders[i].Active = true
				l.tps.Orders[i].ActiveNext = true
			case KindStop:
				l.tps.Orders[i].Cancel(c)
			case KindClose:
				l.stops.Orders[i].Cancel(c)
			}

			l.FilledOrders++
			l.FilledContracts += o.Contracts
			continue
		}

		if o.ActiveNext && !o.Cancelled && !o.Filled {
			o.ActiveNext = false
			o.Active = true
		}
	}

	if l.FilledOrders == l.openOrders {
		l.Filled = true
		l.Active = false
	}
	return nil
}

// UnfilledOrders rescales every rung against targetContracts, then
// returns the rungs that should still be resting live. For reducing
// ladders a rung whose entry counterpart never filled is dropped (stops
// excepted), and rungs beyond what the actual position can still cover
// are dropped by walking filled entry rungs back from the furthest one.
func (l *Ladder) UnfilledOrders(targetContracts, actualContracts int) []*Order {
	var out []*Order

	addSubtract := kindAddSubtract(l.Kind)

	for i, o := range l.Orders {
		o.Contracts = int(math.Round(ladderFractions[o.Index] * float64(targetContracts) * float64(addSubtract)))

		if o.Cancelled || o.Filled {
			continue
		}

		if l.Kind == KindEntry {
			out = append(out, o)
			continue
		}

		if !l.entry.Orders[i].Filled {
			if l.Kind == KindStop {
				out = append(out, o)
			}
			continue
		}

		remaining := actualContracts
		for y := l.entry.FilledOrders - 1; y > i; y-- {
			remaining -= l.entry.Orders[y].Contracts
		}
		if (remaining+o.Contracts)*l.entry.Side >= 0 {
			out = append(out, o)
		}
	}

	return out
}

// CancelRung cancels the rung at index i across this ladder.
func (l *Ladder) CancelRung(i int, c domain.Candle) {
	l.Orders[i].Cancel(c)
}

func kindEnterExit(k OrderKind) int {
	if k == KindClose {
		return 1
	}
	return -1
}

func kindAddSubtract(k OrderKind) int {
	if k == KindEntry {
		return 1
	}
	return -1
}

func kindLetter(k OrderKind) string {
	switch k {
	case KindEntry:
		return "O"
	case KindStop:
		return "S"
	case KindClose:
		return "T"
	}
	return "X"
}

func kindExecInst(k OrderKind) string {
	switch k {
	case KindStop:
		return "Close,IndexPrice"
	case KindClose:
		return "Close"
	}
	return ""
}
