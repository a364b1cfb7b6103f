// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/aptosarb/arbitrage-bot/business/arbitrage/domain"
)

// Executor is the outbound port the engine dispatches a detected, still-
// profitable opportunity to. Each method corresponds to one detection shape
// and is responsible for its own safe-qty capping, balance gating, and
// dry-run/live branching; the engine never blocks on these calls, it always
// fires them from a fresh goroutine.
type Executor interface {
	// ExecuteCEXCEX fires both CEX legs of a two-exchange opportunity
	// concurrently.
	ExecuteCEXCEX(ctx context.Context, opp *domain.Opportunity) error

	// ExecuteDEXCEX fires the DEX leg (using opp.DEXQuote if already
	// fetched, or a fresh quote otherwise) and the single CEX leg.
	ExecuteDEXCEX(ctx context.Context, opp *domain.Opportunity) error

	// ExecuteTriangular runs the triangular opportunity under the
	// process-wide execution lock: the DEX swap first, then one CEX market
	// order against the pre-positioned hedge balance.
	ExecuteTriangular(ctx context.Context, opp *domain.Opportunity) error
}
