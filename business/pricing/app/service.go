// Package app contains application services and port definitions for the pricing context.
package app

import (
	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/asset"
)

// DEXSymbol builds the synthetic PriceStore symbol for a DEX swap
// direction, since the on-chain venue has no venue-native pair spelling
// like a CEX does. Built from each asset's address prefix so it stays
// stable across restarts and distinguishable across token pairs.
func DEXSymbol(from, to asset.AssetID) domain.Symbol {
	return domain.Symbol(from.AddressPrefix() + "_" + to.AddressPrefix())
}
