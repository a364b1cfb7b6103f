// Package panora implements the QuoteClient port against Panora's swap
// aggregator REST API on Aptos.
package panora

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/aptosarb/arbitrage-bot/business/pricing/app"
	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/cache"
	"github.com/aptosarb/arbitrage-bot/internal/circuitbreaker"
	"github.com/aptosarb/arbitrage-bot/internal/httpclient"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/aptosarb/arbitrage-bot/internal/ratelimit"
	"github.com/shopspring/decimal"
)

const (
	tracerName = "panora"
	meterName  = "panora"

	quoteEndpoint = "/swap"
	httpTimeout   = 10 * time.Second
)

// Config configures the Panora quote client.
type Config struct {
	BaseURL        string
	APIKey         string
	APIMinInterval time.Duration
	SlippagePct    float64
	MaxRetries     int
	BaseRetryDelay time.Duration
	// QuoteTTL bounds both the exact-quote cache and the unit-price cache;
	// set to the DEX poll interval so the cache goes stale right as a new
	// poll arrives.
	QuoteTTL time.Duration
}

type clientMetrics struct {
	requests   metric.Int64Counter
	rateLimits metric.Int64Counter
	cacheHits  metric.Int64Counter
}

// Client implements app.QuoteClient against the Panora swap-quote endpoint.
// It layers an exact-amount quote cache, a direction-level unit-price cache
// and a circuit breaker on top of a rate-limited HTTP client, mirroring the
// cost-avoidance strategy the on-chain poller needs to survive aggressive
// polling cadences without hammering the aggregator.
type Client struct {
	cfg    Config
	client httpclient.Client
	tracer trace.Tracer
	logger logger.LoggerInterface

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[*domain.SwapQuote]

	quoteCache     *cache.Cache[domain.QuoteCacheKey, *domain.SwapQuote]
	unitPriceCache *cache.Cache[domain.UnitPriceCacheKey, decimal.Decimal]

	metric *clientMetrics

	statsMu       sync.Mutex
	totalRequests int
	totalLimits   int
	cacheHitCount int
}

// NewClient builds a Panora quote client writing nothing itself; callers
// (the verification path, or the DEX poller) drive GetSwapQuote and persist
// results into domain.Store themselves.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	tracer := otel.Tracer(tracerName)

	httpCli, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("panora"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(httpTimeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
	)
	if err != nil {
		return nil, fmt.Errorf("panora: failed to create http client: %w", err)
	}

	// api_min_interval spacing is a hard per-call floor, independent of
	// burst allowance, so express it as one request per interval.
	rps := 1.0
	if cfg.APIMinInterval > 0 {
		rps = 1.0 / cfg.APIMinInterval.Seconds()
	}
	limiter := ratelimit.NewWithBurst(rps, 1)

	cbCfg := circuitbreaker.DefaultConfig("panora-quoter")
	cb := circuitbreaker.New[*domain.SwapQuote](cbCfg)

	meter := otel.Meter(meterName)
	m := &clientMetrics{}
	m.requests, err = meter.Int64Counter("panora_requests_total", metric.WithDescription("Panora quote HTTP requests"))
	if err != nil {
		return nil, err
	}
	m.rateLimits, err = meter.Int64Counter("panora_rate_limits_total", metric.WithDescription("Panora HTTP 429/503 responses"))
	if err != nil {
		return nil, err
	}
	m.cacheHits, err = meter.Int64Counter("panora_cache_hits_total", metric.WithDescription("Panora quote cache hits (exact or unit-price)"))
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:            cfg,
		client:         httpCli,
		tracer:         tracer,
		logger:         log,
		limiter:        limiter,
		cb:             cb,
		quoteCache:     cache.New[domain.QuoteCacheKey, *domain.SwapQuote](cfg.QuoteTTL),
		unitPriceCache: cache.New[domain.UnitPriceCacheKey, decimal.Decimal](cfg.QuoteTTL),
		metric:         m,
	}, nil
}

// GetSwapQuote implements app.QuoteClient. Unless req.ForceFresh is set, it
// first tries the exact-amount cache, then the direction unit-price cache
// (returning a synthetic quote with no on-chain payload), before falling
// back to a real HTTP call.
func (c *Client) GetSwapQuote(ctx context.Context, req app.SwapQuoteRequest) (*domain.SwapQuote, error) {
	ctx, span := c.tracer.Start(ctx, "panora.get_swap_quote", trace.WithAttributes(
		attribute.String("from", req.FromAddr),
		attribute.String("to", req.ToAddr),
		attribute.Bool("force_fresh", req.ForceFresh),
	))
	defer span.End()

	if !req.ForceFresh {
		key := domain.QuoteCacheKey{
			FromAddr: req.FromAddr,
			ToAddr:   req.ToAddr,
			Amount:   domain.RoundSignificant6(req.FromAmount).String(),
		}
		if quote, ok := c.quoteCache.Get(ctx, key); ok {
			c.recordCacheHit(ctx)
			return quote, nil
		}

		if unitPrice, ok := c.unitPriceCache.Get(ctx, domain.UnitPriceCacheKey{FromAddr: req.FromAddr, ToAddr: req.ToAddr}); ok {
			c.recordCacheHit(ctx)
			return &domain.SwapQuote{
				FromAddr:    req.FromAddr,
				ToAddr:      req.ToAddr,
				FromAmount:  req.FromAmount,
				ToAmount:    unitPrice.Mul(req.FromAmount),
				UnitPrice:   unitPrice,
				Payload:     nil,
				IsSynthetic: true,
				FetchedAt:   time.Now(),
			}, nil
		}
	}

	quote, err := c.cb.ExecuteContext(ctx, func(ctx context.Context) (*domain.SwapQuote, error) {
		return c.fetchWithRetry(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	c.quoteCache.Set(ctx, domain.QuoteCacheKey{
		FromAddr: req.FromAddr,
		ToAddr:   req.ToAddr,
		Amount:   domain.RoundSignificant6(req.FromAmount).String(),
	}, quote, 0)
	if !quote.UnitPrice.IsZero() {
		c.unitPriceCache.Set(ctx, domain.UnitPriceCacheKey{FromAddr: req.FromAddr, ToAddr: req.ToAddr}, quote.UnitPrice, 0)
	}

	return quote, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, req app.SwapQuoteRequest) (*domain.SwapQuote, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperror.New(apperror.CodePanoraQuoteFailed, apperror.WithCause(err))
		}

		quote, retryAfter, err := c.fetchOnce(ctx, req)
		if err == nil {
			return quote, nil
		}
		lastErr = err

		if retryAfter < 0 {
			// non-retryable failure (bad request, parse error, network error)
			return nil, err
		}

		c.statsMu.Lock()
		c.totalLimits++
		c.statsMu.Unlock()
		c.metric.rateLimits.Add(ctx, 1)

		if attempt == c.cfg.MaxRetries-1 {
			break
		}

		wait := retryAfter
		if wait == 0 {
			wait = c.cfg.BaseRetryDelay * time.Duration(math.Pow(2, float64(attempt)))
		}
		c.logger.Warn(ctx, "panora rate limited, backing off", "attempt", attempt+1, "wait", wait.String())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, apperror.New(apperror.CodeCEXRateLimited, apperror.WithCause(lastErr), apperror.WithContext("panora: exhausted retries"))
}

// fetchOnce performs a single HTTP call. retryAfter is negative for a
// non-retryable failure, zero for a retryable failure with no server hint,
// and positive for a retryable failure honoring the server's Retry-After.
func (c *Client) fetchOnce(ctx context.Context, req app.SwapQuoteRequest) (*domain.SwapQuote, time.Duration, error) {
	c.statsMu.Lock()
	c.totalRequests++
	c.statsMu.Unlock()
	c.metric.requests.Add(ctx, 1)

	slippage := c.cfg.SlippagePct
	if req.SlippagePct != nil {
		slippage = *req.SlippagePct
	}

	var result quoteResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "swap")),
	).
		SetHeader("x-api-key", c.cfg.APIKey).
		SetQueryParam("fromTokenAddress", req.FromAddr).
		SetQueryParam("toTokenAddress", req.ToAddr).
		SetQueryParam("fromTokenAmount", req.FromAmount.String()).
		SetQueryParam("slippagePercentage", decimal.NewFromFloat(slippage).String()).
		SetResult(&result).
		Post(ctx, quoteEndpoint)
	if err != nil {
		return nil, -1, apperror.New(apperror.CodePanoraQuoteFailed, apperror.WithCause(err), apperror.WithContext(req.FromAddr+"->"+req.ToAddr))
	}

	if resp.StatusCode == 429 || resp.StatusCode == 503 {
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), apperror.New(apperror.CodeCEXRateLimited, apperror.WithContext(fmt.Sprintf("HTTP %d", resp.StatusCode)))
	}
	if resp.IsError() {
		return nil, -1, apperror.New(apperror.CodePanoraQuoteFailed, apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}

	quote, err := result.toDomainQuote(req.FromAddr, req.ToAddr, req.FromAmount)
	if err != nil {
		return nil, -1, err
	}

	return quote, 0, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) recordCacheHit(ctx context.Context) {
	c.statsMu.Lock()
	c.cacheHitCount++
	c.statsMu.Unlock()
	c.metric.cacheHits.Add(ctx, 1)
}

// Stats returns a human-readable summary for heartbeat logging.
func (c *Client) Stats() string {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	total := c.totalRequests + c.cacheHitCount
	savedPct := 0.0
	if total > 0 {
		savedPct = float64(c.cacheHitCount) / float64(total) * 100
	}
	return fmt.Sprintf("requests=%d cache_hits=%d (saved %.0f%%) rate_limits=%d circuit=%s",
		c.totalRequests, c.cacheHitCount, savedPct, c.totalLimits, c.cb.State())
}
