package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapPayload is the fixed-shape on-chain call the DEX aggregator returns
// alongside a quote: a fully-qualified Move entry function, its type
// arguments, and its positional arguments. The submitter encodes Arguments
// against a fixed router schema; this package only carries them through.
type SwapPayload struct {
	Function      string
	TypeArguments []string
	Arguments     []any
}

// SwapQuote is a single DEX quote response, cached both in full (keyed by
// the exact request) and as a derived unit price (keyed by the direction).
type SwapQuote struct {
	FromAddr    string
	ToAddr      string
	FromAmount  decimal.Decimal
	ToAmount    decimal.Decimal
	UnitPrice   decimal.Decimal // ToAmount / FromAmount
	Payload     *SwapPayload    // nil when the response carried no tx data
	IsSynthetic bool            // true when served from the unit-price cache, not a fresh call
	FetchedAt   time.Time
}

// IsStale reports whether the quote is older than maxAge as of now.
func (q SwapQuote) IsStale(now time.Time, maxAge time.Duration) bool {
	if q.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(q.FetchedAt) > maxAge
}

// QuoteCacheKey identifies an exact cached quote: direction plus amount
// rounded to six significant figures, per the freshness/dedup policy.
type QuoteCacheKey struct {
	FromAddr string
	ToAddr   string
	Amount   string // amount.RoundSignificant(6) formatted, used as a map key
}

// RoundSignificant6 rounds d to six significant figures for cache-key use.
func RoundSignificant6(d decimal.Decimal) decimal.Decimal {
	return d.RoundSignificant(6)
}

// UnitPriceCacheKey identifies the derived per-unit price for a direction,
// independent of trade size.
type UnitPriceCacheKey struct {
	FromAddr string
	ToAddr   string
}
