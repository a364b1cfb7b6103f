// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Panora    PanoraConfig    `mapstructure:"panora"`
	Bybit     BybitConfig     `mapstructure:"bybit"`
	MEXC      MEXCConfig      `mapstructure:"mexc"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
	SignalsPath string `mapstructure:"signals_path"`
}

// WalletConfig holds the Aptos fullnode endpoint and the credentials used to
// sign and submit swap transactions.
type WalletConfig struct {
	NodeURL    string `mapstructure:"node_url"`
	PrivateKey string `mapstructure:"private_key"`
	Address    string `mapstructure:"address"`
}

// PanoraConfig holds the on-chain DEX aggregator's client configuration.
type PanoraConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	APIKey               string        `mapstructure:"api_key"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	APIMinInterval       time.Duration `mapstructure:"api_min_interval"`
	Fee                  float64       `mapstructure:"fee"`
	APISlippagePct       float64       `mapstructure:"api_slippage_pct"`
	SkipVerify           bool          `mapstructure:"skip_verify"`
	HeartbeatEveryNPolls int           `mapstructure:"heartbeat_every_n_polls"`
	MaxRetries           int           `mapstructure:"max_retries"`
	BaseRetryDelay       time.Duration `mapstructure:"base_retry_delay"`
	FromTokenAddress     string        `mapstructure:"from_token_address"`
	ToTokenAddress       string        `mapstructure:"to_token_address"`
	// AptTokenAddress is the native APT coin's type tag, used as the
	// third leg of the triangular shape's DEX quotes (APT<->AMI).
	AptTokenAddress string `mapstructure:"apt_token_address"`
}

// FeeDecimal returns the Panora swap fee as a decimal.Decimal.
func (c *PanoraConfig) FeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Fee)
}

// BybitConfig holds the streaming CEX feed and trading credentials.
type BybitConfig struct {
	WebSocketURL string   `mapstructure:"websocket_url"`
	BaseURL      string   `mapstructure:"base_url"`
	APIKey       string   `mapstructure:"api_key"`
	APISecret    string   `mapstructure:"api_secret"`
	Symbols      []string `mapstructure:"symbols"`
	Fee          float64  `mapstructure:"fee"`
}

// FeeDecimal returns the Bybit taker fee as a decimal.Decimal.
func (c *BybitConfig) FeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Fee)
}

// MEXCConfig holds the polled CEX feed and trading credentials.
type MEXCConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	APISecret    string        `mapstructure:"api_secret"`
	Symbols      []string      `mapstructure:"symbols"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Fee          float64       `mapstructure:"fee"`
}

// FeeDecimal returns the MEXC taker fee as a decimal.Decimal.
func (c *MEXCConfig) FeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Fee)
}

// ArbitrageConfig holds detection, verification and execution policy.
type ArbitrageConfig struct {
	CheckInterval                   time.Duration `mapstructure:"check_interval"`
	MinProfitThresholdUSDT          float64       `mapstructure:"min_profit_threshold_usdt"`
	SlippageTolerancePct            float64       `mapstructure:"slippage_tolerance_pct"`
	TradeAmountUSDT                 float64       `mapstructure:"trade_amount_usdt"`
	DryRun                          bool          `mapstructure:"dry_run"`
	ExecQuoteMaxAgeS                float64       `mapstructure:"exec_quote_max_age_s"`
	DexCexQuoteMaxAgeS              float64       `mapstructure:"dex_cex_quote_max_age_s"`
	TriQuoteMaxAgeS                 float64       `mapstructure:"tri_quote_max_age_s"`
	QuotePriceDeviationThresholdPct float64       `mapstructure:"quote_price_deviation_threshold_pct"`
	VerifyCooldownS                 float64       `mapstructure:"verify_cooldown_s"`
	HeartbeatIntervalS              float64       `mapstructure:"heartbeat_interval_s"`
	LegTimeout                      time.Duration `mapstructure:"leg_timeout"`
}

// MinProfitThresholdDecimal returns the minimum profit threshold in USDT.
func (c *ArbitrageConfig) MinProfitThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitThresholdUSDT)
}

// TradeAmountDecimal returns the per-leg notional cap in USDT.
func (c *ArbitrageConfig) TradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeAmountUSDT)
}

// SlippageToleranceDecimal returns the slippage guard as a fraction (e.g. 0.005 for 0.5%).
func (c *ArbitrageConfig) SlippageToleranceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SlippageTolerancePct / 100)
}

// QuotePriceDeviationThresholdDecimal returns the deviation guard as a fraction.
func (c *ArbitrageConfig) QuotePriceDeviationThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.QuotePriceDeviationThresholdPct / 100)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from environment variables (and an optional
// .env file, loaded by the caller via godotenv before Load runs).
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.health_port", "ARB_HEALTH_PORT", "HEALTH_PORT")
	v.BindEnv("app.signals_path", "ARB_SIGNALS_PATH", "SIGNALS_PATH")

	// Wallet
	v.BindEnv("wallet.node_url", "ARB_APTOS_NODE_URL", "APTOS_NODE_URL")
	v.BindEnv("wallet.private_key", "ARB_WALLET_PRIVATE_KEY", "WALLET_PRIVATE_KEY")
	v.BindEnv("wallet.address", "ARB_WALLET_ADDRESS", "WALLET_ADDRESS")

	// Panora
	v.BindEnv("panora.base_url", "ARB_PANORA_BASE_URL", "PANORA_BASE_URL")
	v.BindEnv("panora.api_key", "ARB_PANORA_API_KEY", "PANORA_API_KEY")
	v.BindEnv("panora.poll_interval", "ARB_PANORA_POLL_INTERVAL", "PANORA_POLL_INTERVAL")
	v.BindEnv("panora.api_min_interval", "ARB_PANORA_API_MIN_INTERVAL", "PANORA_API_MIN_INTERVAL")
	v.BindEnv("panora.fee", "ARB_PANORA_FEE", "PANORA_FEE")
	v.BindEnv("panora.api_slippage_pct", "ARB_PANORA_API_SLIPPAGE_PCT", "PANORA_API_SLIPPAGE_PCT")
	v.BindEnv("panora.skip_verify", "ARB_SKIP_PANORA_VERIFY", "SKIP_PANORA_VERIFY")
	v.BindEnv("panora.from_token_address", "ARB_PANORA_FROM_TOKEN", "PANORA_FROM_TOKEN")
	v.BindEnv("panora.to_token_address", "ARB_PANORA_TO_TOKEN", "PANORA_TO_TOKEN")
	v.BindEnv("panora.apt_token_address", "ARB_PANORA_APT_TOKEN", "APT_TOKEN_ADDRESS")

	// Bybit
	v.BindEnv("bybit.websocket_url", "ARB_BYBIT_WS_URL", "BYBIT_WS_URL")
	v.BindEnv("bybit.base_url", "ARB_BYBIT_BASE_URL", "BYBIT_BASE_URL")
	v.BindEnv("bybit.api_key", "ARB_BYBIT_API_KEY", "BYBIT_API_KEY")
	v.BindEnv("bybit.api_secret", "ARB_BYBIT_API_SECRET", "BYBIT_API_SECRET")
	v.BindEnv("bybit.symbols", "ARB_BYBIT_SYMBOLS", "BYBIT_SYMBOLS")
	v.BindEnv("bybit.fee", "ARB_BYBIT_FEE", "BYBIT_FEE")

	// MEXC
	v.BindEnv("mexc.base_url", "ARB_MEXC_BASE_URL", "MEXC_BASE_URL")
	v.BindEnv("mexc.api_key", "ARB_MEXC_API_KEY", "MEXC_API_KEY")
	v.BindEnv("mexc.api_secret", "ARB_MEXC_API_SECRET", "MEXC_API_SECRET")
	v.BindEnv("mexc.symbols", "ARB_MEXC_SYMBOLS", "MEXC_SYMBOLS")
	v.BindEnv("mexc.poll_interval", "ARB_MEXC_POLL_INTERVAL", "MEXC_POLL_INTERVAL")
	v.BindEnv("mexc.fee", "ARB_MEXC_FEE", "MEXC_FEE")

	// Arbitrage
	v.BindEnv("arbitrage.check_interval", "ARB_CHECK_INTERVAL")
	v.BindEnv("arbitrage.min_profit_threshold_usdt", "ARB_MIN_PROFIT_THRESHOLD")
	v.BindEnv("arbitrage.slippage_tolerance_pct", "ARB_SLIPPAGE_TOLERANCE_PCT")
	v.BindEnv("arbitrage.trade_amount_usdt", "ARB_TRADE_AMOUNT_USDT")
	v.BindEnv("arbitrage.dry_run", "ARB_DRY_RUN", "DRY_RUN")
	v.BindEnv("arbitrage.exec_quote_max_age_s", "ARB_EXEC_QUOTE_MAX_AGE_S")
	v.BindEnv("arbitrage.dex_cex_quote_max_age_s", "ARB_DEX_CEX_QUOTE_MAX_AGE_S")
	v.BindEnv("arbitrage.tri_quote_max_age_s", "ARB_TRI_QUOTE_MAX_AGE_S")
	v.BindEnv("arbitrage.quote_price_deviation_threshold_pct", "ARB_QUOTE_PRICE_DEVIATION_THRESHOLD_PCT")
	v.BindEnv("arbitrage.verify_cooldown_s", "ARB_VERIFY_COOLDOWN_S")
	v.BindEnv("arbitrage.heartbeat_interval_s", "ARB_HEARTBEAT_INTERVAL_S")
	v.BindEnv("arbitrage.leg_timeout", "ARB_LEG_TIMEOUT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.prometheus_port", "ARB_PROMETHEUS_PORT", "PROMETHEUS_PORT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arbitrage-bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)
	v.SetDefault("app.signals_path", "logs/signals.jsonl")

	// Wallet defaults
	v.SetDefault("wallet.node_url", "https://fullnode.mainnet.aptoslabs.com/v1")

	// Panora defaults
	v.SetDefault("panora.base_url", "https://api.panora.exchange")
	v.SetDefault("panora.poll_interval", "2s")
	v.SetDefault("panora.api_min_interval", "500ms")
	v.SetDefault("panora.fee", 0.003)
	v.SetDefault("panora.api_slippage_pct", 0.5)
	v.SetDefault("panora.skip_verify", false)
	v.SetDefault("panora.heartbeat_every_n_polls", 30)
	v.SetDefault("panora.max_retries", 3)
	v.SetDefault("panora.base_retry_delay", "500ms")
	v.SetDefault("panora.apt_token_address", "0x1::aptos_coin::AptosCoin")

	// Bybit defaults
	v.SetDefault("bybit.websocket_url", "wss://stream.bybit.com/v5/public/spot")
	v.SetDefault("bybit.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.symbols", []string{"AMIUSDT", "APTUSDT"})
	v.SetDefault("bybit.fee", 0.001)

	// MEXC defaults
	v.SetDefault("mexc.base_url", "https://api.mexc.com")
	v.SetDefault("mexc.symbols", []string{"AMIUSDT", "APTUSDT"})
	v.SetDefault("mexc.poll_interval", "1s")
	v.SetDefault("mexc.fee", 0.001)

	// Arbitrage defaults
	v.SetDefault("arbitrage.check_interval", "100ms")
	v.SetDefault("arbitrage.min_profit_threshold_usdt", 1.0)
	v.SetDefault("arbitrage.slippage_tolerance_pct", 0.5)
	v.SetDefault("arbitrage.trade_amount_usdt", 50.0)
	v.SetDefault("arbitrage.dry_run", true)
	v.SetDefault("arbitrage.exec_quote_max_age_s", 10.0)
	v.SetDefault("arbitrage.dex_cex_quote_max_age_s", 5.0)
	v.SetDefault("arbitrage.tri_quote_max_age_s", 5.0)
	v.SetDefault("arbitrage.quote_price_deviation_threshold_pct", 1.0)
	v.SetDefault("arbitrage.verify_cooldown_s", 3.0)
	v.SetDefault("arbitrage.heartbeat_interval_s", 5.0)
	v.SetDefault("arbitrage.leg_timeout", "30s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbitrage-bot")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate rejects a configuration with no node URL, an empty symbol list
// on either CEX, or identical from/to token addresses. Missing credentials
// are not an error here: a missing wallet key or CEX key pair only disables
// the shapes that need it (see CanSignTransactions, CEXTradingEnabled).
func (c *Config) Validate() error {
	if c.Wallet.NodeURL == "" {
		return fmt.Errorf("wallet.node_url is required")
	}
	if len(c.Bybit.Symbols) == 0 {
		return fmt.Errorf("bybit.symbols cannot be empty")
	}
	if len(c.MEXC.Symbols) == 0 {
		return fmt.Errorf("mexc.symbols cannot be empty")
	}
	if c.Panora.FromTokenAddress == c.Panora.ToTokenAddress {
		return fmt.Errorf("panora.from_token_address and panora.to_token_address must differ")
	}
	return nil
}

// CanSignTransactions reports whether a wallet key was configured, i.e.
// whether execution shapes needing on-chain signing may run.
func (c *Config) CanSignTransactions() bool {
	return c.Wallet.PrivateKey != ""
}

// CEXTradingEnabled reports whether both CEX trading credential pairs are
// present. Shapes needing live order placement are disabled otherwise.
func (c *Config) CEXTradingEnabled() bool {
	return c.Bybit.APIKey != "" && c.Bybit.APISecret != "" &&
		c.MEXC.APIKey != "" && c.MEXC.APISecret != ""
}
