package asset_test

import (
	"math/big"
	"testing"

	"github.com/aptosarb/arbitrage-bot/internal/asset"
	"github.com/shopspring/decimal"
)

func TestAmount_Basic(t *testing.T) {
	// 1 APT = 1e8 octas
	oneAPT := asset.NewAmount(asset.APT, big.NewInt(1e8))

	if oneAPT.IsZero() {
		t.Error("expected non-zero amount")
	}

	// ToDecimal should return 1.0
	d := oneAPT.ToDecimal()
	if !d.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", d.String())
	}

	// String should be "1 APT"
	if oneAPT.String() != "1 APT" {
		t.Errorf("expected '1 APT', got '%s'", oneAPT.String())
	}
}

func TestAmount_Add(t *testing.T) {
	oneAPT := asset.NewAmount(asset.APT, big.NewInt(1e8))
	twoAPT := asset.NewAmount(asset.APT, big.NewInt(2e8))

	sum, err := oneAPT.Add(twoAPT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := decimal.NewFromInt(3)
	if !sum.ToDecimal().Equal(expected) {
		t.Errorf("expected 3, got %s", sum.ToDecimal().String())
	}
}

func TestAmount_CannotAddDifferentAssets(t *testing.T) {
	oneAPT := asset.NewAmount(asset.APT, big.NewInt(1e8))
	oneUSDT := asset.NewAmount(asset.USDT, big.NewInt(1e6))

	_, err := oneAPT.Add(oneUSDT)
	if err == nil {
		t.Error("expected error when adding different assets")
	}
}

func TestAmount_Sub(t *testing.T) {
	threeAPT := asset.NewAmount(asset.APT, big.NewInt(3e8))
	oneAPT := asset.NewAmount(asset.APT, big.NewInt(1e8))

	diff, err := threeAPT.Sub(oneAPT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := decimal.NewFromInt(2)
	if !diff.ToDecimal().Equal(expected) {
		t.Errorf("expected 2, got %s", diff.ToDecimal().String())
	}
}

func TestAmount_SubNegativeError(t *testing.T) {
	oneAPT := asset.NewAmount(asset.APT, big.NewInt(1e8))
	twoAPT := asset.NewAmount(asset.APT, big.NewInt(2e8))

	_, err := oneAPT.Sub(twoAPT)
	if err == nil {
		t.Error("expected error for negative result")
	}
}

func TestParseDecimal(t *testing.T) {
	// Parse "1.5" APT
	d := decimal.NewFromFloat(1.5)
	amount, err := asset.ParseDecimal(asset.APT, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should be 1.5e8 octas
	expected := big.NewInt(150000000)

	if amount.Raw().Cmp(expected) != 0 {
		t.Errorf("expected %s, got %s", expected.String(), amount.Raw().String())
	}
}

func TestParseDecimal_TooManyDecimals(t *testing.T) {
	// USDT has 6 decimals, try to parse 1.1234567 (7 decimals)
	d := decimal.NewFromFloat(1.1234567)
	_, err := asset.ParseDecimal(asset.USDT, d)
	if err == nil {
		t.Error("expected error for too many decimals")
	}
}

func TestPrice_Convert(t *testing.T) {
	// APT/USDT price = 10
	price := asset.NewPriceNow(asset.APT, asset.USDT, decimal.NewFromInt(10))

	// 1 APT
	oneAPT := asset.NewAmount(asset.APT, big.NewInt(1e8))

	// Convert to USDT
	usdt, err := price.Convert(oneAPT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedUSDT := decimal.NewFromInt(10)
	if !usdt.ToDecimal().Equal(expectedUSDT) {
		t.Errorf("expected %s USDT, got %s", expectedUSDT.String(), usdt.ToDecimal().String())
	}
}

func TestPrice_Invert(t *testing.T) {
	// APT/USDT = 10
	price := asset.NewPriceNow(asset.APT, asset.USDT, decimal.NewFromInt(10))

	// Invert to USDT/APT = 0.1
	inverted := price.Invert()

	expected := decimal.NewFromFloat(0.1)
	diff := inverted.Rate().Sub(expected).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.0000001)) {
		t.Errorf("expected ~0.1, got %s", inverted.Rate().String())
	}
}

func TestAssetID_Identity(t *testing.T) {
	// Same token on the same network should have equal IDs
	usdt1 := asset.NewAssetID(asset.NetworkAptos, asset.AddrUSDT)
	usdt2 := asset.NewAssetID(asset.NetworkAptos, asset.AddrUSDT)

	if !usdt1.Equals(usdt2) {
		t.Error("same asset should have equal IDs")
	}

	// Different address, same network
	apt := asset.NewAssetID(asset.NetworkAptos, asset.AddrAPT)
	if usdt1.Equals(apt) {
		t.Error("different addresses should have different IDs")
	}
}

func TestAssetID_AddressPrefix(t *testing.T) {
	id := asset.NewAssetID(asset.NetworkAptos, "0xabcdef1234")
	if got := id.AddressPrefix(); got != "0xab" {
		t.Errorf("expected prefix '0xab', got %q", got)
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	// Should find APT
	apt, ok := r.GetByAddress(asset.AddrAPT)
	if !ok {
		t.Error("APT not found in registry")
	}
	if apt.Symbol() != "APT" {
		t.Errorf("expected APT, got %s", apt.Symbol())
	}

	// Should find USDT by symbol and network
	usdt, ok := r.GetBySymbolAndNetwork("USDT", asset.NetworkAptos)
	if !ok {
		t.Error("USDT not found in registry")
	}
	if usdt.Decimals() != 6 {
		t.Errorf("expected 6 decimals, got %d", usdt.Decimals())
	}
}
