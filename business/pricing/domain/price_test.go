package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStore_Update_RejectsNonPositivePrices(t *testing.T) {
	tests := []struct {
		name string
		bid  string
		ask  string
		want bool
	}{
		{name: "positive_bid_and_ask", bid: "100", ask: "101", want: true},
		{name: "zero_bid", bid: "0", ask: "101", want: false},
		{name: "zero_ask", bid: "100", ask: "0", want: false},
		{name: "negative_bid", bid: "-1", ask: "101", want: false},
		{name: "negative_ask", bid: "100", ask: "-1", want: false},
		{name: "both_zero", bid: "0", ask: "0", want: false},
		{name: "both_negative", bid: "-5", ask: "-3", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			bid := decimal.RequireFromString(tt.bid)
			ask := decimal.RequireFromString(tt.ask)

			got := store.Update(VenueBybit, "APTUSDT", bid, ask, decimal.NewFromInt(1), decimal.NewFromInt(1))
			if got != tt.want {
				t.Errorf("Update() = %v, want %v", got, tt.want)
			}

			_, ok := store.Get("APTUSDT", VenueBybit)
			if ok != tt.want {
				t.Errorf("Get() after Update = %v, want %v (rejected updates must never become observable)", ok, tt.want)
			}
		})
	}
}

func TestStore_Update_RejectedWriteDoesNotClobberExistingQuote(t *testing.T) {
	store := NewStore()
	good := decimal.NewFromInt(100)
	if !store.Update(VenueMEXC, "APTUSDT", good, good, decimal.NewFromInt(1), decimal.NewFromInt(1)) {
		t.Fatal("expected the initial positive-price update to be accepted")
	}

	bad := decimal.NewFromInt(-1)
	if store.Update(VenueMEXC, "APTUSDT", bad, good, decimal.NewFromInt(1), decimal.NewFromInt(1)) {
		t.Fatal("expected the non-positive-price update to be rejected")
	}

	q, ok := store.Get("APTUSDT", VenueMEXC)
	if !ok {
		t.Fatal("expected the prior good quote to still be present")
	}
	if !q.Bid.Equal(good) || !q.Ask.Equal(good) {
		t.Errorf("quote was clobbered by a rejected update: bid=%s ask=%s", q.Bid, q.Ask)
	}
}

func TestStore_Update_WriteThenReadExactness(t *testing.T) {
	store := NewStore()
	bid := decimal.RequireFromString("3400.123456")
	ask := decimal.RequireFromString("3400.654321")
	bidQty := decimal.RequireFromString("1.5")
	askQty := decimal.RequireFromString("2.25")

	if !store.Update(VenuePanora, "APTUSDT", bid, ask, bidQty, askQty) {
		t.Fatal("expected update to be accepted")
	}

	q, ok := store.Get("APTUSDT", VenuePanora)
	if !ok {
		t.Fatal("expected quote to be present")
	}
	if !q.Bid.Equal(bid) || !q.Ask.Equal(ask) || !q.BidQty.Equal(bidQty) || !q.AskQty.Equal(askQty) {
		t.Errorf("round-trip mismatch: got bid=%s ask=%s bidQty=%s askQty=%s", q.Bid, q.Ask, q.BidQty, q.AskQty)
	}
	if q.Venue != VenuePanora || q.Symbol != "APTUSDT" {
		t.Errorf("venue/symbol mismatch: got venue=%s symbol=%s", q.Venue, q.Symbol)
	}
}

func TestStore_Get_UnknownSymbolOrVenue(t *testing.T) {
	store := NewStore()
	store.Update(VenueBybit, "APTUSDT", decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(1))

	if _, ok := store.Get("UNKNOWN", VenueBybit); ok {
		t.Error("expected no quote for an unknown symbol")
	}
	if _, ok := store.Get("APTUSDT", VenueMEXC); ok {
		t.Error("expected no quote for a venue that never wrote this symbol")
	}
}

func TestQuote_IsStale_MonotonicWithAge(t *testing.T) {
	now := time.Now()
	q := Quote{UpdatedAt: now}

	if q.IsStale(now, time.Minute) {
		t.Error("a fresh quote must not be stale immediately")
	}
	if !q.IsStale(now.Add(2*time.Minute), time.Minute) {
		t.Error("a quote older than maxAge must be stale")
	}

	var zero Quote
	if !zero.IsStale(now, time.Hour) {
		t.Error("a quote that was never written must always be stale")
	}
}

func TestStore_GetFresh_AppliesAgeGate(t *testing.T) {
	store := NewStore()
	store.Update(VenueBybit, "APTUSDT", decimal.NewFromInt(100), decimal.NewFromInt(101), decimal.NewFromInt(1), decimal.NewFromInt(1))

	if _, ok := store.GetFresh("APTUSDT", VenueBybit, time.Hour); !ok {
		t.Error("expected a just-written quote to be fresh")
	}
	if _, ok := store.GetFresh("APTUSDT", VenueBybit, 0); ok {
		t.Error("expected a zero max age to treat any quote as stale")
	}
}

func TestStore_Snapshot_IsDefensiveCopy(t *testing.T) {
	store := NewStore()
	store.Update(VenueBybit, "APTUSDT", decimal.NewFromInt(100), decimal.NewFromInt(101), decimal.NewFromInt(1), decimal.NewFromInt(1))

	snap := store.Snapshot()
	snap["APTUSDT"][VenueBybit] = Quote{Bid: decimal.NewFromInt(999)}

	q, ok := store.Get("APTUSDT", VenueBybit)
	if !ok {
		t.Fatal("expected original quote to still be present")
	}
	if q.Bid.Equal(decimal.NewFromInt(999)) {
		t.Error("mutating the snapshot must not affect the store")
	}
}
