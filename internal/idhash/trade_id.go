package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(symbol|strategy|trade_num|entry_time_unix_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(symbol, strategy string, tradeNum int, entryTimeMs int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", symbol, strategy, tradeNum, entryTimeMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
