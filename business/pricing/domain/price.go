// Package domain contains the core domain types for the pricing context.
package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Venue identifies a price source: a CEX or the on-chain DEX.
type Venue string

const (
	VenueBybit  Venue = "bybit"
	VenueMEXC   Venue = "mexc"
	VenuePanora Venue = "panora"
)

// Symbol identifies a tradable pair within the store. For CEX venues this
// is the venue's own pair spelling (e.g. "APTUSDT"); for the DEX venue it
// is a synthetic key built from the swapped assets' address prefixes.
type Symbol string

// Quote is a top-of-book snapshot for one symbol on one venue.
type Quote struct {
	Venue     Venue
	Symbol    Symbol
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	BidQty    decimal.Decimal
	AskQty    decimal.Decimal
	UpdatedAt time.Time
}

// IsStale reports whether the quote is older than maxAge as of now.
func (q Quote) IsStale(now time.Time, maxAge time.Duration) bool {
	if q.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(q.UpdatedAt) > maxAge
}

// Store is the shared, concurrency-safe symbol-addressed snapshot table.
// Feed adapters write through Update; the arbitrage engine and heartbeat
// logger read through Get. Entries are overwritten in place; nothing is
// ever deleted during normal operation.
type Store struct {
	mu   sync.RWMutex
	data map[Symbol]map[Venue]Quote
}

// NewStore creates an empty PriceStore.
func NewStore() *Store {
	return &Store{data: make(map[Symbol]map[Venue]Quote)}
}

// Update overwrites the top-of-book for (venue, symbol). Safe for concurrent
// callers; writes from different feeds may interleave but never corrupt a
// single symbol/venue slot. A non-positive bid or ask is rejected outright
// and never becomes observable through Get/GetFresh/Snapshot; it reports
// whether the write was accepted so callers can count/log the rejection.
func (s *Store) Update(venue Venue, symbol Symbol, bid, ask, bidQty, askQty decimal.Decimal) bool {
	if bid.LessThanOrEqual(decimal.Zero) || ask.LessThanOrEqual(decimal.Zero) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	venues, ok := s.data[symbol]
	if !ok {
		venues = make(map[Venue]Quote)
		s.data[symbol] = venues
	}
	venues[venue] = Quote{
		Venue:     venue,
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		BidQty:    bidQty,
		AskQty:    askQty,
		UpdatedAt: time.Now(),
	}
	return true
}

// Get returns the latest quote for (symbol, venue), if one has ever been written.
func (s *Store) Get(symbol Symbol, venue Venue) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	venues, ok := s.data[symbol]
	if !ok {
		return Quote{}, false
	}
	q, ok := venues[venue]
	return q, ok
}

// GetFresh returns the quote for (symbol, venue) only if it exists and is
// not older than maxAge. This is the freshness gate the engine applies
// before trusting a store read for detection or verification.
func (s *Store) GetFresh(symbol Symbol, venue Venue, maxAge time.Duration) (Quote, bool) {
	q, ok := s.Get(symbol, venue)
	if !ok {
		return Quote{}, false
	}
	if q.IsStale(time.Now(), maxAge) {
		return Quote{}, false
	}
	return q, true
}

// Snapshot returns a defensive copy of every symbol/venue quote currently
// held, for heartbeat logging.
func (s *Store) Snapshot() map[Symbol]map[Venue]Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Symbol]map[Venue]Quote, len(s.data))
	for sym, venues := range s.data {
		vc := make(map[Venue]Quote, len(venues))
		for v, q := range venues {
			vc[v] = q
		}
		out[sym] = vc
	}
	return out
}
