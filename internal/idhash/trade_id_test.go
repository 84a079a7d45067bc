package idhash

import (
	"strings"
	"testing"
)

func TestComputeTradeID_Deterministic(t *testing.T) {
	id1 := ComputeTradeID("XBTUSD", "trend", 3, 1700000000000)
	id2 := ComputeTradeID("XBTUSD", "trend", 3, 1700000000000)

	if id1 != id2 {
		t.Errorf("same inputs gave different IDs: %s vs %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id1))
	}
}

func TestComputeTradeID_DistinctInputs(t *testing.T) {
	base := ComputeTradeID("XBTUSD", "trend", 3, 1700000000000)

	variants := []string{
		ComputeTradeID("ETHUSD", "trend", 3, 1700000000000),
		ComputeTradeID("XBTUSD", "trendrev", 3, 1700000000000),
		ComputeTradeID("XBTUSD", "trend", 4, 1700000000000),
		ComputeTradeID("XBTUSD", "trend", 3, 1700000000001),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base ID", i)
		}
	}
}

func TestOrderKey(t *testing.T) {
	key := OrderKey("XBTUSD", "limitopen", 1, 1)
	if key != "XBTUSD-limitopen-1-1" {
		t.Errorf("unexpected key: %s", key)
	}

	// Side and kind must distinguish keys.
	if OrderKey("XBTUSD", "stop", -1, 2) == OrderKey("XBTUSD", "stop", 1, 2) {
		t.Error("side not reflected in key")
	}
}

func TestClOrdID(t *testing.T) {
	id := ClOrdID("XBTUSD-limitopen-1-1", 1700000000)

	if !strings.HasSuffix(id, "-1700000000") {
		t.Errorf("timestamp suffix missing: %s", id)
	}

	// Same key, same time: stable. Different key: different prefix.
	if id != ClOrdID("XBTUSD-limitopen-1-1", 1700000000) {
		t.Error("ClOrdID not deterministic")
	}
	other := ClOrdID("XBTUSD-stop--1-2", 1700000000)
	if strings.Split(id, "-")[0] == strings.Split(other, "-")[0] {
		t.Error("different keys share hash prefix")
	}
}
