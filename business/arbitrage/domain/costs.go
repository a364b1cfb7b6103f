// Package domain contains the core domain types for the arbitrage context.
package domain

import "github.com/shopspring/decimal"

// ProfitResult is the outcome of a single profit computation: buy qty at
// buyPrice on one venue, sell the same qty at sellPrice on another, net of
// each venue's proportional fee on its own leg.
type ProfitResult struct {
	BuyVolume    decimal.Decimal
	SellVolume   decimal.Decimal
	Fees         decimal.Decimal
	GrossProfit  decimal.Decimal
	NetProfit    decimal.Decimal
	IsProfitable bool
}

// CalculateProfit computes the net profit of buying qty at buyPrice (paying
// buyFeeRate on the buy leg) and selling the same qty at sellPrice (paying
// sellFeeRate on the sell leg), then compares it against minProfit.
//
//	net = qty*(sellPrice-buyPrice) - qty*buyPrice*buyFeeRate - qty*sellPrice*sellFeeRate
func CalculateProfit(buyPrice, sellPrice, qty, buyFeeRate, sellFeeRate, minProfit decimal.Decimal) *ProfitResult {
	buyVol := qty.Mul(buyPrice)
	sellVol := qty.Mul(sellPrice)
	fees := buyVol.Mul(buyFeeRate).Add(sellVol.Mul(sellFeeRate))
	gross := sellVol.Sub(buyVol)
	net := gross.Sub(fees)

	return &ProfitResult{
		BuyVolume:    buyVol,
		SellVolume:   sellVol,
		Fees:         fees,
		GrossProfit:  gross,
		NetProfit:    net,
		IsProfitable: net.GreaterThan(minProfit),
	}
}
