// Package pricing implements the pricing bounded context: CEX streaming and
// polled feeds, the DEX quote client, and the shared venue price store that
// the arbitrage context reads from.
package pricing

import (
	"context"

	"github.com/aptosarb/arbitrage-bot/business/pricing/app"
	pricingDI "github.com/aptosarb/arbitrage-bot/business/pricing/di"
	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/business/pricing/infra/bybit"
	"github.com/aptosarb/arbitrage-bot/business/pricing/infra/mexc"
	"github.com/aptosarb/arbitrage-bot/business/pricing/infra/panora"
	"github.com/aptosarb/arbitrage-bot/internal/asset"
	"github.com/aptosarb/arbitrage-bot/internal/config"
	"github.com/aptosarb/arbitrage-bot/internal/di"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/aptosarb/arbitrage-bot/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct {
	bybitFeed     *bybit.Feed
	mexcFeed      *mexc.Feed
	dexPoller     *panora.Poller
	triAPTtoAMI   *panora.Poller
	triAMItoAPT   *panora.Poller
}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.Store, func(sr di.ServiceRegistry) *domain.Store {
		return domain.NewStore()
	})

	di.RegisterToken(c, pricingDI.QuoteClient, func(sr di.ServiceRegistry) app.QuoteClient {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := panora.NewClient(panora.Config{
			BaseURL:        cfg.Panora.BaseURL,
			APIKey:         cfg.Panora.APIKey,
			APIMinInterval: cfg.Panora.APIMinInterval,
			SlippagePct:    cfg.Panora.APISlippagePct,
			MaxRetries:     cfg.Panora.MaxRetries,
			BaseRetryDelay: cfg.Panora.BaseRetryDelay,
			QuoteTTL:       cfg.Panora.PollInterval,
		}, log)
		if err != nil {
			panic("failed to create panora client: " + err.Error())
		}
		return client
	})

	return nil
}

// Startup constructs the feed adapters and launches them in the background;
// feed failures are logged and retried by each feed's own reconnect/backoff
// logic rather than failing startup.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	store := pricingDI.GetStore(mono.Services())

	bybitFeed, err := bybit.NewFeed(bybit.Config{
		WebSocketURL: cfg.Bybit.WebSocketURL,
		Symbols:      cfg.Bybit.Symbols,
	}, store, log)
	if err != nil {
		return err
	}
	m.bybitFeed = bybitFeed
	go func() {
		if err := bybitFeed.Run(ctx); err != nil {
			log.Error(ctx, "bybit feed stopped", "error", err)
		}
	}()

	mexcFeed, err := mexc.NewFeed(mexc.Config{
		BaseURL:      cfg.MEXC.BaseURL,
		Symbols:      cfg.MEXC.Symbols,
		PollInterval: cfg.MEXC.PollInterval,
	}, store, log)
	if err != nil {
		return err
	}
	m.mexcFeed = mexcFeed
	go func() {
		if err := mexcFeed.Run(ctx); err != nil {
			log.Error(ctx, "mexc feed stopped", "error", err)
		}
	}()

	quoteClient := pricingDI.GetQuoteClient(mono.Services())
	panoraClient, ok := quoteClient.(*panora.Client)
	if !ok {
		log.Warn(ctx, "quote client is not a *panora.Client, skipping DEX poller (test double in use)")
		return nil
	}

	fromID := asset.NewAssetID(asset.NetworkAptos, cfg.Panora.FromTokenAddress)
	toID := asset.NewAssetID(asset.NetworkAptos, cfg.Panora.ToTokenAddress)
	symbol := app.DEXSymbol(fromID, toID)

	dexPoller := panora.NewPoller(panoraClient, store, log, cfg.Panora.FromTokenAddress, cfg.Panora.ToTokenAddress, symbol, cfg.Panora.PollInterval, cfg.Panora.HeartbeatEveryNPolls)
	m.dexPoller = dexPoller
	go func() {
		if err := dexPoller.Run(ctx); err != nil {
			log.Error(ctx, "panora poller stopped", "error", err)
		}
	}()

	// The triangular shape needs two further synthetic DEX legs: APT->AMI
	// and AMI->APT, both against the native coin rather than the quote
	// asset the primary DEX poller above tracks.
	aptID := asset.NewAssetID(asset.NetworkAptos, cfg.Panora.AptTokenAddress)
	aptToAMISymbol := app.DEXSymbol(aptID, fromID)
	amiToAPTSymbol := app.DEXSymbol(fromID, aptID)

	triAPTtoAMI := panora.NewPoller(panoraClient, store, log, cfg.Panora.AptTokenAddress, cfg.Panora.FromTokenAddress, aptToAMISymbol, cfg.Panora.PollInterval, cfg.Panora.HeartbeatEveryNPolls)
	m.triAPTtoAMI = triAPTtoAMI
	go func() {
		if err := triAPTtoAMI.Run(ctx); err != nil {
			log.Error(ctx, "panora apt->ami poller stopped", "error", err)
		}
	}()

	triAMItoAPT := panora.NewPoller(panoraClient, store, log, cfg.Panora.FromTokenAddress, cfg.Panora.AptTokenAddress, amiToAPTSymbol, cfg.Panora.PollInterval, cfg.Panora.HeartbeatEveryNPolls)
	m.triAMItoAPT = triAMItoAPT
	go func() {
		if err := triAMItoAPT.Run(ctx); err != nil {
			log.Error(ctx, "panora ami->apt poller stopped", "error", err)
		}
	}()

	log.Info(ctx, "pricing module started",
		"dex_symbol", string(symbol),
		"tri_apt_to_ami_symbol", string(aptToAMISymbol),
		"tri_ami_to_apt_symbol", string(amiToAPTSymbol),
	)
	return nil
}
