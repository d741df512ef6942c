package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the computed balance of one account at a point in
// time. Snapshots are request-scoped and never cached.
type BalanceSnapshot struct {
	AccountNumber string
	Balance       decimal.Decimal
	Currency      string
	AsOf          time.Time
}

// NewBalanceSnapshot creates a snapshot stamped with the current time.
func NewBalanceSnapshot(accountNumber string, balance decimal.Decimal, currency string) BalanceSnapshot {
	return BalanceSnapshot{
		AccountNumber: accountNumber,
		Balance:       balance,
		Currency:      currency,
		AsOf:          time.Now().UTC(),
	}
}
