package domain

import "github.com/shopspring/decimal"

// Balance is a single asset's available amount on one venue, used by the
// pre-execution balance gate.
type Balance struct {
	Venue string
	Asset string
	Free  decimal.Decimal
}

// Covers reports whether this balance can fund a trade requiring need units
// of the same asset.
func (b Balance) Covers(need decimal.Decimal) bool {
	return b.Free.GreaterThanOrEqual(need)
}
