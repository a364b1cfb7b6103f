// Package mexc implements the polled top-of-book feed against MEXC's REST API.
package mexc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/httpclient"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	tracerName = "mexc"

	bookTickerEndpoint = "/api/v3/ticker/bookTicker"
	httpTimeout        = 10 * time.Second
)

// Config configures the MEXC polled feed.
type Config struct {
	BaseURL      string
	Symbols      []string
	PollInterval time.Duration
}

// bookTickerResponse mirrors MEXC's /ticker/bookTicker payload.
type bookTickerResponse struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	BidQty   string `json:"bidQty"`
	AskPrice string `json:"askPrice"`
	AskQty   string `json:"askQty"`
}

// Feed is a concrete polled top-of-book adapter; not behind an interface,
// per the same design reasoning as the streaming feed.
type Feed struct {
	cfg    Config
	store  *domain.Store
	client httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewFeed creates a MEXC polled feed writing into store.
func NewFeed(cfg Config, store *domain.Store, log logger.LoggerInterface) (*Feed, error) {
	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("mexc"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(httpTimeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
	)
	if err != nil {
		return nil, fmt.Errorf("mexc: failed to create http client: %w", err)
	}

	return &Feed{cfg: cfg, store: store, client: client, logger: log, tracer: tracer}, nil
}

// Run polls every PollInterval until ctx is cancelled. The next tick begins
// PollInterval after the previous one began, not after it finished, so the
// effective cadence is bounded above by interval + slowest request.
func (f *Feed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	f.pollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.pollAll(ctx)
		}
	}
}

func (f *Feed) pollAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, sym := range f.cfg.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if err := f.pollOne(ctx, symbol); err != nil {
				f.logger.Warn(ctx, "mexc poll failed", "symbol", symbol, "error", err)
			}
		}(sym)
	}
	wg.Wait()
}

func (f *Feed) pollOne(ctx context.Context, symbol string) error {
	ctx, span := f.tracer.Start(ctx, "mexc.poll_book_ticker", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	var result bookTickerResponse
	resp, err := f.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "bookTicker"), httpclient.NewLabel("symbol", symbol)),
	).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, bookTickerEndpoint)
	if err != nil {
		return apperror.New(apperror.CodeCEXConnectionFailed, apperror.WithCause(err), apperror.WithContext(symbol))
	}
	if resp.IsError() {
		return apperror.New(apperror.CodeCEXAPIError, apperror.WithContext(fmt.Sprintf("HTTP %d", resp.StatusCode)))
	}

	bid, err1 := decimal.NewFromString(result.BidPrice)
	ask, err2 := decimal.NewFromString(result.AskPrice)
	if err1 != nil || err2 != nil {
		return apperror.New(apperror.CodeInvalidOrderbook, apperror.WithContext(symbol))
	}
	bidQty, _ := decimal.NewFromString(result.BidQty)
	askQty, _ := decimal.NewFromString(result.AskQty)

	if !f.store.Update(domain.VenueMEXC, domain.Symbol(symbol), bid, ask, bidQty, askQty) {
		return apperror.New(apperror.CodeInvalidOrderbook, apperror.WithContext(symbol))
	}
	return nil
}
