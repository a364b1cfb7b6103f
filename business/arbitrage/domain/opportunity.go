// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/shopspring/decimal"
)

// Shape identifies which of the three detection algorithms produced an
// opportunity: two CEX venues, one CEX and the DEX, or a triangular path
// that round-trips through the DEX and back to the same CEX.
type Shape string

const (
	ShapeCEXCEX     Shape = "cex_cex"
	ShapeDEXCEX     Shape = "dex_cex"
	ShapeTriangular Shape = "triangular"
)

// Opportunity is a single detected, still-profitable-as-of-detection spread
// between two venues (or, for the triangular shape, a CEX and the DEX path
// back to itself).
type Opportunity struct {
	ID         string
	Shape      Shape
	Direction  Direction
	Symbol     pricingDomain.Symbol
	BuyVenue   pricingDomain.Venue
	SellVenue  pricingDomain.Venue
	BuyPrice   decimal.Decimal
	SellPrice  decimal.Decimal
	Qty        decimal.Decimal
	Profit     *ProfitResult
	DEXQuote   *pricingDomain.SwapQuote // non-nil once a real Panora quote was fetched for this opportunity
	DetectedAt time.Time
}

// IsProfitable returns true if this opportunity has positive net profit
// against whatever minimum threshold it was computed with.
func (o *Opportunity) IsProfitable() bool {
	return o.Profit != nil && o.Profit.IsProfitable
}
