package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// OrderKey builds the stable role key for an order. The live-sync
// collaborator matches theoretical and actual orders on this key, so it
// must depend only on the order's role, never on its price or size.
func OrderKey(exchangeSymbol, name string, side, kind int) string {
	return fmt.Sprintf("%s-%s-%d-%d", exchangeSymbol, name, side, kind)
}

// ClOrdID derives a client order id from a role key and a timestamp.
// The exchange caps clOrdID length, so the key is hashed and base58
// encoded instead of embedded verbatim.
func ClOrdID(key string, unixTime int64) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s-%d", base58.Encode(hash[:12]), unixTime)
}
