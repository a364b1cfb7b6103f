package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// quoteSuffixes are stripped, longest first, to recover the base coin
// symbol from a venue pair spelling like "AMIUSDT" -> "AMI".
var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "USD", "BTC", "ETH"}

// CoinSymbol strips a known quote-asset suffix from a CEX pair spelling.
func CoinSymbol(pair string) string {
	upper := strings.ToUpper(pair)
	for _, suffix := range quoteSuffixes {
		if strings.HasSuffix(upper, suffix) && len(upper) > len(suffix) {
			return upper[:len(upper)-len(suffix)]
		}
	}
	return upper
}

// FloorQty rounds qty down to the venue's lot-size precision tier: whole
// units at or above 100, two decimals at or above 1, four decimals at or
// above 0.01, six decimals otherwise. A quantity that rounds to zero at its
// tier is returned as zero so the caller can abort that leg.
func FloorQty(qty decimal.Decimal) decimal.Decimal {
	switch {
	case qty.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return qty.Truncate(0)
	case qty.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return qty.Truncate(2)
	case qty.GreaterThanOrEqual(decimal.NewFromFloat(0.01)):
		return qty.Truncate(4)
	default:
		return qty.Truncate(6)
	}
}
