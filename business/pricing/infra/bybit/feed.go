// Package bybit implements the streaming top-of-book feed against Bybit's
// public v5 WebSocket API.
package bybit

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/aptosarb/arbitrage-bot/internal/wsconn"
	"github.com/shopspring/decimal"
)

const (
	tracerName = "bybit"
	meterName  = "bybit"

	heartbeatInterval = 15 * time.Second
)

// Config configures the Bybit streaming feed.
type Config struct {
	WebSocketURL string
	Symbols      []string
}

type feedMetrics struct {
	ticksReceived metric.Int64Counter
	parseErrors   metric.Int64Counter
}

// Feed is a concrete streaming top-of-book adapter. It is not behind an
// interface: feed adapters share only the verb update(venue, symbol, ...)
// against the store, which domain.Store already exposes directly.
type Feed struct {
	cfg    Config
	store  *domain.Store
	logger logger.LoggerInterface

	conn   *wsconn.Client
	tracer trace.Tracer
	metric *feedMetrics

	lastTick   map[string]time.Time
	lastTickMu sync.Mutex
}

// NewFeed creates a Bybit streaming feed writing into store.
func NewFeed(cfg Config, store *domain.Store, log logger.LoggerInterface) (*Feed, error) {
	f := &Feed{
		cfg:      cfg,
		store:    store,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		lastTick: make(map[string]time.Time),
	}

	meter := otel.Meter(meterName)
	m := &feedMetrics{}
	var err error
	m.ticksReceived, err = meter.Int64Counter("bybit_ticks_total", metric.WithDescription("Top-of-book ticks received"))
	if err != nil {
		return nil, err
	}
	m.parseErrors, err = meter.Int64Counter("bybit_parse_errors_total", metric.WithDescription("Tick parse errors"))
	if err != nil {
		return nil, err
	}
	f.metric = m

	return f, nil
}

// Run connects and streams until ctx is cancelled. When the stream closes,
// the wsconn client redials with exponential backoff (1 s doubling to a 60 s
// cap, plus up to 50% jitter) and the subscription is sent again on each
// reconnect. A push that does not decode, or whose prices do not parse, is
// skipped (the latter counted in bybit_parse_errors_total); neither closes
// or redials the stream.
func (f *Feed) Run(ctx context.Context) error {
	wsCfg := wsconn.DefaultConfig(f.cfg.WebSocketURL, "bybit")
	wsCfg.MaxBackoff = 60 * time.Second
	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeCEXConnectionFailed,
			apperror.WithCause(err), apperror.WithContext("bybit: failed to build ws client"))
	}
	f.conn = conn
	conn.OnMessage(f.handleMessage)
	var subscribed atomic.Bool
	conn.OnStateChange(func(state wsconn.State, err error) {
		f.logger.Info(ctx, "bybit feed state changed", "state", string(state), "error", err)
		if state == wsconn.StateConnected && subscribed.Load() {
			if err := f.subscribe(ctx); err != nil {
				f.logger.Warn(ctx, "bybit resubscribe failed", "error", err)
			}
		}
	})

	if err := conn.ConnectWithRetry(ctx); err != nil {
		return apperror.New(apperror.CodeCEXConnectionFailed, apperror.WithCause(err))
	}

	if err := f.subscribe(ctx); err != nil {
		return err
	}
	subscribed.Store(true)

	go f.heartbeatLoop(ctx)

	<-ctx.Done()
	return conn.Close()
}

func (f *Feed) subscribe(ctx context.Context) error {
	args := make([]string, 0, len(f.cfg.Symbols))
	for _, s := range f.cfg.Symbols {
		args = append(args, "tickers."+strings.ToUpper(s))
	}
	req := map[string]any{"op": "subscribe", "args": args}
	if err := f.conn.SendJSON(ctx, req); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err))
	}
	return nil
}

type tickerMessage struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Symbol  string `json:"symbol"`
		Bid1Prc string `json:"bid1Price"`
		Bid1Sz  string `json:"bid1Size"`
		Ask1Prc string `json:"ask1Price"`
		Ask1Sz  string `json:"ask1Size"`
	} `json:"data"`
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	var msg tickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if !strings.HasPrefix(msg.Topic, "tickers.") || msg.Data.Symbol == "" {
		return
	}

	bid, err1 := decimal.NewFromString(msg.Data.Bid1Prc)
	ask, err2 := decimal.NewFromString(msg.Data.Ask1Prc)
	if err1 != nil || err2 != nil {
		f.metric.parseErrors.Add(ctx, 1)
		return
	}
	bidQty, _ := decimal.NewFromString(msg.Data.Bid1Sz)
	askQty, _ := decimal.NewFromString(msg.Data.Ask1Sz)

	if !f.store.Update(domain.VenueBybit, domain.Symbol(msg.Data.Symbol), bid, ask, bidQty, askQty) {
		f.metric.parseErrors.Add(ctx, 1)
		return
	}
	f.metric.ticksReceived.Add(ctx, 1)

	f.lastTickMu.Lock()
	f.lastTick[msg.Data.Symbol] = time.Now()
	f.lastTickMu.Unlock()
}

func (f *Feed) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.lastTickMu.Lock()
			for _, sym := range f.cfg.Symbols {
				ts, ok := f.lastTick[sym]
				f.logger.Info(ctx, "bybit heartbeat", "symbol", sym, "received", ok, "age", time.Since(ts).String())
			}
			f.lastTickMu.Unlock()
		}
	}
}
