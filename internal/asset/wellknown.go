package asset

// Well-known coin type tags / fungible-asset addresses on Aptos mainnet.
const (
	AddrAPT  = "0x1::aptos_coin::AptosCoin"
	AddrAMI  = "0x111ae3e5bc816a5e63c2da97d0aa3886519e0cd5e4b046659fa35796bd11542a::stapt_token::StakedApt"
	AddrUSDT = "0x357b0b74bc833e95a115ad22604854d6b0fca151cecd94111770e5d6ffc9dc2"
)

// Well-known AssetIDs on Aptos mainnet.
var (
	IDAPT  = NewAssetID(NetworkAptos, AddrAPT)
	IDAMI  = NewAssetID(NetworkAptos, AddrAMI)
	IDUSDT = NewAssetID(NetworkAptos, AddrUSDT)

	// Fiat
	IDUSD = NewFiatAssetID("USD")
)

// Well-known Assets (pre-created instances).
var (
	APT  = NewAssetWithName(IDAPT, "APT", "Aptos", 8)
	AMI  = NewAssetWithName(IDAMI, "AMI", "Amnis Aptos", 8)
	USDT = NewAssetWithName(IDUSDT, "USDT", "Tether USD", 6)

	USD = NewAssetWithName(IDUSD, "USD", "US Dollar", 2)
)

// DefaultRegistry returns a registry pre-populated with the assets this bot trades.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(APT)
	r.Register(AMI)
	r.Register(USDT)
	r.Register(USD)

	return r
}

// MustNewAptosToken creates a new Aptos-network token asset with the given parameters.
// This is a convenience function for registering custom tokens from configuration.
func MustNewAptosToken(address, symbol, name string, decimals uint8) *Asset {
	id := NewAssetID(NetworkAptos, address)
	return NewAssetWithName(id, symbol, name, decimals)
}
