package livesync

import (
	"testing"
	"time"

	"futures-sim-lab/internal/domain"
)

func snap(key string, price float64, contracts int) domain.OrderSnapshot {
	return domain.OrderSnapshot{
		ExchangeSymbol: "XBTUSD",
		Key:            key,
		Price:          price,
		Contracts:      contracts,
	}
}

func TestReconcile(t *testing.T) {
	theo := []domain.OrderSnapshot{
		snap("XBTUSD-limitopen-1-1", 9990, 30000),
		snap("XBTUSD-stop--1-2", 10400, -30000),
		snap("XBTUSD-limitclose--1-3", 10600, -30000),
	}
	actual := []domain.OrderSnapshot{
		snap("XBTUSD-limitopen-1-1", 9990, 30000),
		snap("XBTUSD-stop--1-2", 10380, -30000), // price drifted
		snap("XBTUSD-stopbuy-1-1", 10700, 5000), // stale
	}

	d := Reconcile(theo, actual)

	if len(d.Matched) != 2 {
		t.Fatalf("matched = %d, want 2", len(d.Matched))
	}
	if len(d.Missing) != 1 || d.Missing[0].Key != "XBTUSD-limitclose--1-3" {
		t.Fatalf("missing = %v", d.Missing)
	}
	if len(d.Unmatched) != 1 || d.Unmatched[0].Key != "XBTUSD-stopbuy-1-1" {
		t.Fatalf("unmatched = %v", d.Unmatched)
	}

	amends := d.Amendments()
	if len(amends) != 1 {
		t.Fatalf("amendments = %d, want 1", len(amends))
	}
	if amends[0].Theo.Key != "XBTUSD-stop--1-2" {
		t.Errorf("amended key = %s", amends[0].Theo.Key)
	}
}

func TestReconcileEmptySides(t *testing.T) {
	theo := []domain.OrderSnapshot{snap("k1", 100, 10)}

	d := Reconcile(theo, nil)
	if len(d.Missing) != 1 || len(d.Matched) != 0 || len(d.Unmatched) != 0 {
		t.Fatalf("diff against empty live = %+v", d)
	}

	d = Reconcile(nil, []domain.OrderSnapshot{snap("k1", 100, 10)})
	if len(d.Unmatched) != 1 || len(d.Matched) != 0 || len(d.Missing) != 0 {
		t.Fatalf("diff of empty theo = %+v", d)
	}
}

func TestNeedsAmend(t *testing.T) {
	m := MatchedOrder{Theo: snap("k", 100, 10), Actual: snap("k", 100, 10)}
	if m.NeedsAmend() {
		t.Error("identical orders flagged for amend")
	}

	m.Actual.Price = 101
	if !m.NeedsAmend() {
		t.Error("price drift not flagged")
	}

	m.Actual.Price = 100
	m.Actual.Contracts = 9
	if !m.NeedsAmend() {
		t.Error("contract drift not flagged")
	}
}

func TestBackoffDelays(t *testing.T) {
	b := DefaultBackoff()

	want := []time.Duration{
		0,
		500 * time.Millisecond,
		1500 * time.Millisecond,
		3500 * time.Millisecond,
		7500 * time.Millisecond,
	}
	for i, w := range want {
		if got := b.Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}

	if b.Exhausted(5) {
		t.Error("attempt 5 should still be allowed")
	}
	if !b.Exhausted(6) {
		t.Error("attempt 6 should be exhausted")
	}
}

func TestBackoffRetryable(t *testing.T) {
	b := DefaultBackoff()
	if !b.Retryable(503) {
		t.Error("503 should retry")
	}
	for _, status := range []int{200, 400, 429, 500, 502} {
		if b.Retryable(status) {
			t.Errorf("status %d should not retry", status)
		}
	}
}
