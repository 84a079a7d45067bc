// Package livesync reconciles the theoretical order set produced by the
// strategies against the orders actually resting on the exchange. The
// diff is keyed on the deterministic order key, never on exchange order
// ids, so a restart resynchronizes cleanly.
package livesync

import (
	"futures-sim-lab/internal/domain"
)

// MatchedOrder pairs a theoretical order with its live counterpart.
type MatchedOrder struct {
	Theo   domain.OrderSnapshot
	Actual domain.OrderSnapshot
}

// Diff is the result of reconciling theoretical orders against live ones.
type Diff struct {
	// Matched orders exist on both sides; they may still need amending.
	Matched []MatchedOrder
	// Missing orders are theoretical but not resting live: submit them.
	Missing []domain.OrderSnapshot
	// Unmatched orders rest live with no theoretical counterpart:
	// cancel them.
	Unmatched []domain.OrderSnapshot
}

// Reconcile diffs theoretical orders against live ones by order key.
// Duplicate live keys keep the first occurrence; the exchange should
// never hold two orders with the same key.
func Reconcile(theo, actual []domain.OrderSnapshot) Diff {
	liveByKey := make(map[string]domain.OrderSnapshot, len(actual))
	seen := make(map[string]bool, len(actual))
	for _, o := range actual {
		if _, ok := liveByKey[o.Key]; !ok {
			liveByKey[o.Key] = o
		}
	}

	var d Diff
	for _, t := range theo {
		live, ok := liveByKey[t.Key]
		if !ok {
			d.Missing = append(d.Missing, t)
			continue
		}
		seen[t.Key] = true
		d.Matched = append(d.Matched, MatchedOrder{Theo: t, Actual: live})
	}

	for _, o := range actual {
		if !seen[o.Key] {
			d.Unmatched = append(d.Unmatched, o)
		}
	}
	return d
}

// NeedsAmend reports whether a matched order's live price or contracts
// diverge from the theoretical ones.
func (m MatchedOrder) NeedsAmend() bool {
	return m.Theo.Price != m.Actual.Price || m.Theo.Contracts != m.Actual.Contracts
}

// Amendments filters the matched pairs down to those needing an amend.
func (d Diff) Amendments() []MatchedOrder {
	var out []MatchedOrder
	for _, m := range d.Matched {
		if m.NeedsAmend() {
			out = append(out, m)
		}
	}
	return out
}
