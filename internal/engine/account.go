package engine

import "time"

// minBalance is the floor the ledger clamps to. The balance is never
// allowed to reach zero: downstream percent calculations divide by it.
const minBalance = 0.01

// Txn is one posted equity delta.
type Txn struct {
	Amount        float64
	Timestamp     time.Time
	Balance       float64 // balance after the posting
	PercentChange float64 // amount relative to the balance before it
}

// Account is the equity ledger for one simulated symbol. Mutated only
// through Post; read-only after the run for reporting.
type Account struct {
	balance float64
	max     float64
	min     float64
	Txns    []Txn
}

// NewAccount creates a ledger with the given starting balance.
func NewAccount(balance float64) *Account {
	if balance < minBalance {
		balance = minBalance
	}
	return &Account{
		balance: balance,
		max:     balance,
		min:     balance,
	}
}

// Balance returns the current balance, floored at the minimum.
func (a *Account) Balance() float64 {
	return a.balance
}

// Max returns the high watermark.
func (a *Account) Max() float64 { return a.max }

// Min returns the low watermark.
func (a *Account) Min() float64 { return a.min }

// Post applies a signed equity delta at a timestamp, recomputes the
// watermarks and appends a transaction.
func (a *Account) Post(amount float64, ts time.Time) {
	pct := amount / a.balance

	a.balance += amount
	if a.balance < minBalance {
		a.balance = minBalance
	}
	if a.balance > a.max {
		a.max = a.balance
	}
	if a.balance < a.min {
		a.min = a.balance
	}

	a.Txns = append(a.Txns, Txn{
		Amount:        amount,
		Timestamp:     ts,
		Balance:       a.balance,
		PercentChange: pct,
	})
}
