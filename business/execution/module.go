// Package execution implements the execution bounded context: the outbound
// CEX trading clients, the on-chain swap submitter, the signal-file audit
// log, and the Executor that wires them behind the arbitrage context's
// Executor port.
package execution

import (
	"context"

	"github.com/aptosarb/arbitrage-bot/business/execution/app"
	executionDI "github.com/aptosarb/arbitrage-bot/business/execution/di"
	"github.com/aptosarb/arbitrage-bot/business/execution/infra/aptos"
	"github.com/aptosarb/arbitrage-bot/business/execution/infra/cex"
	"github.com/aptosarb/arbitrage-bot/business/execution/infra/signalfile"
	pricingDI "github.com/aptosarb/arbitrage-bot/business/pricing/di"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/config"
	"github.com/aptosarb/arbitrage-bot/internal/di"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/aptosarb/arbitrage-bot/internal/monolith"
	"github.com/shopspring/decimal"
)

// Module implements the execution bounded context.
type Module struct {
	signals *signalfile.Writer
}

// RegisterServices registers the Executor and its collaborators with the DI
// container. Everything here is built eagerly at first resolution: the CEX
// traders and the on-chain submitter hold no background loop of their own,
// unlike the pricing context's feeds.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.Executor, func(sr di.ServiceRegistry) *app.Executor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		submitter, err := aptos.NewSubmitter(aptos.Config{
			NodeURL:    cfg.Wallet.NodeURL,
			PrivateKey: cfg.Wallet.PrivateKey,
		}, log)
		if err != nil {
			panic("failed to create aptos submitter: " + err.Error())
		}

		bybitTrader, err := cex.NewBybitTrader(cex.BybitConfig{
			BaseURL:   cfg.Bybit.BaseURL,
			APIKey:    cfg.Bybit.APIKey,
			APISecret: cfg.Bybit.APISecret,
		}, log)
		if err != nil {
			panic("failed to create bybit trader: " + err.Error())
		}

		mexcTrader, err := cex.NewMEXCTrader(cex.MEXCConfig{
			BaseURL:   cfg.MEXC.BaseURL,
			APIKey:    cfg.MEXC.APIKey,
			APISecret: cfg.MEXC.APISecret,
		}, log)
		if err != nil {
			panic("failed to create mexc trader: " + err.Error())
		}

		traders := map[string]app.CEXTrader{
			string(pricingDomain.VenueBybit): bybitTrader,
			string(pricingDomain.VenueMEXC):  mexcTrader,
		}

		signals, err := signalfile.New(cfg.App.SignalsPath, log)
		if err != nil {
			panic("failed to create signal writer: " + err.Error())
		}
		m.signals = signals

		quoteClient := pricingDI.GetQuoteClient(sr)

		executor, err := app.NewExecutor(app.ExecutorConfig{
			TradeAmountUSDT: decimal.NewFromFloat(cfg.Arbitrage.TradeAmountUSDT),
			LegTimeout:      cfg.Arbitrage.LegTimeout,
			DryRun:          cfg.Arbitrage.DryRun,
		}, traders, submitter, quoteClient, signals, log)
		if err != nil {
			panic("failed to create executor: " + err.Error())
		}
		return executor
	})

	return nil
}

// Startup verifies the executor resolved cleanly; it runs no background
// loop of its own, unlike the pricing feeds: the arbitrage engine calls the
// executor from a goroutine it spawns for each dispatched opportunity.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	_ = executionDI.GetExecutor(mono.Services())

	if !cfg.CanSignTransactions() {
		log.Warn(ctx, "no wallet private key configured, DEX-CEX and triangular shapes cannot submit on-chain swaps")
	}
	if !cfg.CEXTradingEnabled() {
		log.Warn(ctx, "CEX trading credentials missing, live CEX-CEX/DEX-CEX/triangular orders cannot be placed")
	}

	log.Info(ctx, "execution module started", "dry_run", cfg.Arbitrage.DryRun, "signals_path", cfg.App.SignalsPath)
	return nil
}

// Close releases the signal-file handle.
func (m *Module) Close() error {
	if m.signals != nil {
		return m.signals.Close()
	}
	return nil
}
