// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/shopspring/decimal"
)

// SwapQuoteRequest is the input to QuoteClient.GetSwapQuote.
type SwapQuoteRequest struct {
	FromAmount   decimal.Decimal
	FromAddr     string
	ToAddr       string
	ForceFresh   bool
	SlippagePct  *float64 // nil uses the client's configured default
}

// QuoteClient is the narrow capability the arbitrage engine needs from the
// on-chain DEX aggregator: fetch a swap quote, exact or cached. Feed
// adapters (streaming, polled, DEX poller) are not behind an interface —
// they are concrete types that write directly into domain.Store — but this
// one stays an interface because the engine's verification path needs a
// fake in tests.
type QuoteClient interface {
	GetSwapQuote(ctx context.Context, req SwapQuoteRequest) (*domain.SwapQuote, error)
}
