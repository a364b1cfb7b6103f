package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Arbitrage-specific error codes
const (
	// Aptos fullnode / on-chain submission errors
	CodeAptosConnectionFailed Code = "APTOS_CONNECTION_FAILED"
	CodeAptosSubmitFailed     Code = "APTOS_SUBMIT_FAILED"
	CodeAptosRPCError         Code = "APTOS_RPC_ERROR"
	CodeSchemaMismatch        Code = "SCHEMA_MISMATCH"
	CodeInsufficientGas       Code = "INSUFFICIENT_GAS"
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"
	CodeGasEstimationFailed   Code = "GAS_ESTIMATION_FAILED"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// CEX (Bybit/MEXC) errors
	CodeCEXConnectionFailed  Code = "CEX_CONNECTION_FAILED"
	CodeCEXAPIError          Code = "CEX_API_ERROR"
	CodeCEXRateLimited       Code = "CEX_RATE_LIMITED"
	CodeOrderbookFetchFailed Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook     Code = "INVALID_ORDERBOOK"
	CodePartialFill          Code = "PARTIAL_FILL"
	CodePositionImbalance    Code = "POSITION_IMBALANCE"

	// DEX (Panora) errors
	CodePanoraQuoteFailed Code = "PANORA_QUOTE_FAILED"
	CodeQuoteParseFailure Code = "QUOTE_PARSE_FAILURE"
	CodeInvalidQuote      Code = "INVALID_QUOTE"
	CodeQuoteStale        Code = "QUOTE_STALE"

	// Arbitrage detection errors
	CodePriceCalculationFailed Code = "PRICE_CALCULATION_FAILED"
	CodeSpreadCalculationError Code = "SPREAD_CALCULATION_ERROR"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidTradeSize       Code = "INVALID_TRADE_SIZE"

	// Cache errors
	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheExpired Code = "CACHE_EXPIRED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"

	// Configuration shape errors
	CodeConfigInvalidShape Code = "CONFIG_INVALID_SHAPE"
	CodeShapeDisabled      Code = "SHAPE_DISABLED"
)
