// Package asset provides a type-safe model for crypto and fiat assets.
// The core uses big.Int for exact on-chain representation.
// decimal.Decimal is only used at boundaries (UI, parsing, display).
package asset

import (
	"fmt"
	"strings"
)

// Network identifies the chain (or off-chain ledger) an asset belongs to.
type Network uint64

const (
	// NetworkFiat represents an off-chain fiat currency.
	NetworkFiat Network = 0
	// NetworkAptos represents the Aptos mainnet.
	NetworkAptos Network = 1
)

// AssetID uniquely identifies an asset by network and on-chain address.
// On Aptos, "address" holds either a fully-qualified Move type tag
// (e.g. "0x1::aptos_coin::AptosCoin") for a legacy Coin, or a bare
// fungible-asset metadata address (e.g. "0xa") for an FA token.
// This is the TRUE identity — not the symbol.
type AssetID struct {
	network Network
	address string // canonical, lower-cased
}

// NewAssetID creates an AssetID for an on-chain asset (Coin type tag or FA address).
func NewAssetID(network Network, address string) AssetID {
	if address == "" {
		panic("asset: empty address")
	}
	return AssetID{
		network: network,
		address: strings.ToLower(address),
	}
}

// NewFiatAssetID creates an AssetID for fiat currencies.
// Uses NetworkFiat to represent off-chain/fiat, with a deterministic
// pseudo-address derived from the symbol so identity stays unique and
// comparable the same way on-chain AssetIDs are.
func NewFiatAssetID(symbol string) AssetID {
	return AssetID{
		network: NetworkFiat,
		address: "fiat:" + strings.ToLower(symbol),
	}
}

// Network returns the network (NetworkFiat for fiat currencies).
func (id AssetID) Network() Network {
	return id.network
}

// Address returns the canonical on-chain address or type tag ("fiat:<symbol>" for fiat).
func (id AssetID) Address() string {
	return id.address
}

// IsFiat returns true if this is a fiat currency.
func (id AssetID) IsFiat() bool {
	return id.network == NetworkFiat
}

// IsOnChain returns true if this asset exists on a blockchain.
func (id AssetID) IsOnChain() bool {
	return id.network != NetworkFiat
}

// AddressPrefix returns the first four characters of the address, used to
// build the synthetic DEX symbol keys the price store keys quotes under
// (e.g. "0x1a2b..." -> "0x1a").
func (id AssetID) AddressPrefix() string {
	if len(id.address) < 4 {
		return id.address
	}
	return id.address[:4]
}

// String returns a human-readable representation.
func (id AssetID) String() string {
	if id.IsFiat() {
		return id.address
	}
	return fmt.Sprintf("aptos:%s", id.address)
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.network == other.network && id.address == other.address
}
