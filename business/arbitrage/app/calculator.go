// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"github.com/aptosarb/arbitrage-bot/business/arbitrage/domain"
	"github.com/shopspring/decimal"
)

// ProfitCalculator applies a single minimum-profit threshold across all
// three detection shapes; each shape supplies its own venue fee rates since
// those differ per CEX and the DEX leg.
type ProfitCalculator struct {
	minProfit decimal.Decimal
}

// NewProfitCalculator creates a ProfitCalculator gated at minProfit, denominated
// in the same quote currency as the prices it is given (USDT throughout this
// bot).
func NewProfitCalculator(minProfit decimal.Decimal) *ProfitCalculator {
	return &ProfitCalculator{minProfit: minProfit}
}

// Calculate computes the net profit of buying qty at buyPrice (paying
// buyFeeRate) and selling the same qty at sellPrice (paying sellFeeRate).
func (c *ProfitCalculator) Calculate(buyPrice, sellPrice, qty, buyFeeRate, sellFeeRate decimal.Decimal) *domain.ProfitResult {
	return domain.CalculateProfit(buyPrice, sellPrice, qty, buyFeeRate, sellFeeRate, c.minProfit)
}
