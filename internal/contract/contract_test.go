package contract

import (
	"math"
	"testing"
)

func TestContracts(t *testing.T) {
	tests := []struct {
		name     string
		balance  float64
		leverage float64
		price    float64
		side     int
		altcoin  bool
		want     int
	}{
		{"inverse long", 1.0, 5, 10000, 1, false, 50000},
		{"inverse short", 1.0, 5, 10000, -1, false, -50000},
		{"inverse fractional balance", 0.5, 5, 10000, 1, false, 25000},
		{"altcoin long", 100, 2.5, 0.05, 1, true, 5000},
		{"altcoin short", 100, 2.5, 0.05, -1, true, -5000},
		{"zero price", 1.0, 5, 0, 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Contracts(tt.balance, tt.leverage, tt.price, tt.side, tt.altcoin)
			if got != tt.want {
				t.Errorf("Contracts() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPnlPct(t *testing.T) {
	tests := []struct {
		name  string
		side  int
		entry float64
		exit  float64
		want  float64
	}{
		{"long win", 1, 100, 110, 0.10},
		{"long loss", 1, 100, 90, -0.10},
		{"short win", -1, 110, 100, 0.10},
		{"short loss", -1, 100, 110, -0.1 / 1.1},
		{"zero entry", 1, 0, 100, 0},
		{"zero exit", 1, 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PnlPct(tt.side, tt.entry, tt.exit)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("PnlPct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPnlMargin_Inverse(t *testing.T) {
	// 50000 contracts, entry 10000, exit 11000:
	// 50000 * (1/10000 - 1/11000) = 50000 * 9.0909e-6 = 0.4545...
	got := PnlMargin(50000, 10000, 11000, false)
	want := 50000 * (1.0/10000 - 1.0/11000)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("PnlMargin() = %v, want %v", got, want)
	}
}

func TestPnlMargin_Altcoin(t *testing.T) {
	got := PnlMargin(5000, 0.05, 0.06, true)
	want := 5000 * 0.01
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PnlMargin() = %v, want %v", got, want)
	}
}

func TestPriceAtPnl_RoundTrips(t *testing.T) {
	for _, side := range []int{1, -1} {
		for _, pnl := range []float64{-0.04, 0, 0.1} {
			entry := 8000.0
			price := PriceAtPnl(pnl, entry, side)
			if got := PnlPct(side, entry, price); math.Abs(got-pnl) > 1e-12 {
				t.Errorf("side %d pnl %v: round trip gave %v", side, pnl, got)
			}
		}
	}
}

func TestConfidence_Bounds(t *testing.T) {
	if got := Confidence(0, 0.1); got != 1.5 {
		t.Errorf("zero spread: got %v, want 1.5", got)
	}
	if got := Confidence(0.1, 0.1); got != 0 {
		t.Errorf("max spread: got %v, want 0", got)
	}
	if got := Confidence(0.2, 0.1); got != 0 {
		t.Errorf("past max spread: got %v, want 0", got)
	}

	// Monotonic decrease in between.
	prev := 1.5
	for r := 0.01; r < 0.1; r += 0.01 {
		got := Confidence(r, 0.1)
		if got >= prev {
			t.Fatalf("confidence not decreasing at spread %v: %v >= %v", r, got, prev)
		}
		prev = got
	}
}
