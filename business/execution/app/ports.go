// Package app contains the execution context's application service: the
// Executor that turns a detected opportunity into orders, on-chain swaps,
// or a dry-run signal record.
package app

import (
	"context"

	"github.com/aptosarb/arbitrage-bot/business/execution/domain"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/shopspring/decimal"
)

// OrderSide is which side of the book a CEX market order takes.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// CEXTrader is the narrow trading capability the Executor needs from a CEX
// venue: fire a market order and read a spendable balance. Feed adapters
// (pricing context) stay read-only; trading lives only here.
type CEXTrader interface {
	Venue() pricingDomain.Venue
	PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, qty decimal.Decimal) (orderRef string, err error)
	Balance(ctx context.Context, asset string) (decimal.Decimal, error)
}

// Submitter signs and submits an already-fetched DEX swap quote on-chain,
// and reads wallet balances for the pre-execution gate.
type Submitter interface {
	Submit(ctx context.Context, quote *pricingDomain.SwapQuote) (txRef string, err error)
	Balance(ctx context.Context, tokenAddress string) (decimal.Decimal, error)
}

// SignalWriter persists one Signal record per dispatched opportunity,
// live or dry-run, as the sole audit trail of what the bot decided to do.
type SignalWriter interface {
	Write(sig domain.Signal) error
}
