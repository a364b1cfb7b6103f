package panora

import (
	"context"
	"time"

	"github.com/aptosarb/arbitrage-bot/business/pricing/app"
	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
)

// largeDefaultDepth stands in for on-chain liquidity depth: a DEX swap
// quote carries no order-book quantity, so downstream sizing logic treats
// the DEX leg as effectively unconstrained and defers to the actual quote's
// price impact at verification time.
var largeDefaultDepth = decimal.NewFromInt(10000)

// Poller periodically fetches a one-unit swap quote from Panora and writes
// the resulting price into the shared store under domain.VenuePanora. A DEX
// has no order book, so the single quoted price is used for both bid and ask.
type Poller struct {
	client       *Client
	store        *domain.Store
	logger       logger.LoggerInterface
	fromAddr     string
	toAddr       string
	symbol       domain.Symbol
	pollInterval time.Duration
	heartbeatN   int

	pollCount int
}

// NewPoller builds a Panora DEX poller for the fromAddr -> toAddr direction.
func NewPoller(client *Client, store *domain.Store, log logger.LoggerInterface, fromAddr, toAddr string, symbol domain.Symbol, pollInterval time.Duration, heartbeatEveryNPolls int) *Poller {
	return &Poller{
		client:       client,
		store:        store,
		logger:       log,
		fromAddr:     fromAddr,
		toAddr:       toAddr,
		symbol:       symbol,
		pollInterval: pollInterval,
		heartbeatN:   heartbeatEveryNPolls,
	}
}

// Run polls every pollInterval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	quote, err := p.client.GetSwapQuote(ctx, app.SwapQuoteRequest{
		FromAmount: decimal.NewFromInt(1),
		FromAddr:   p.fromAddr,
		ToAddr:     p.toAddr,
	})
	if err != nil {
		p.logger.Warn(ctx, "panora poll failed", "symbol", string(p.symbol), "error", err)
		return
	}

	if !p.store.Update(domain.VenuePanora, p.symbol, quote.UnitPrice, quote.UnitPrice, largeDefaultDepth, largeDefaultDepth) {
		p.logger.Warn(ctx, "panora quote rejected, non-positive price", "symbol", string(p.symbol), "price", quote.UnitPrice.String())
		return
	}

	p.pollCount++
	if p.heartbeatN > 0 && p.pollCount%p.heartbeatN == 0 {
		p.logger.Info(ctx, "panora heartbeat", "symbol", string(p.symbol), "stats", p.client.Stats())
	}
}
