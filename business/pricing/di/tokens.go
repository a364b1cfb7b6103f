// Package di holds the pricing context's DI token names and typed getters.
package di

import (
	"github.com/aptosarb/arbitrage-bot/business/pricing/app"
	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/di"
)

// Token names for services this context registers.
const (
	// Store is the shared venue price store, public: the arbitrage context
	// reads it directly.
	Store = "pricing.Store"
	// QuoteClient is the Panora swap-quote client, public: the execution
	// context uses it to fetch a fresh quote with txData at dispatch time.
	QuoteClient = "pricing.QuoteClient"
)

// GetStore resolves the shared price store from the registry.
func GetStore(sr di.ServiceRegistry) *domain.Store {
	return di.MustGet[*domain.Store](sr, Store)
}

// GetQuoteClient resolves the DEX quote client from the registry.
func GetQuoteClient(sr di.ServiceRegistry) app.QuoteClient {
	return di.MustGet[app.QuoteClient](sr, QuoteClient)
}
