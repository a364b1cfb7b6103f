package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Aptos fullnode / on-chain submission errors
	CodeAptosConnectionFailed: "Failed to connect to Aptos fullnode",
	CodeAptosSubmitFailed:     "Failed to submit Aptos transaction",
	CodeAptosRPCError:         "Aptos fullnode RPC call failed",
	CodeSchemaMismatch:        "Swap payload argument count does not match router schema",
	CodeInsufficientGas:       "Insufficient APT balance to cover gas",
	CodeInsufficientBalance:   "Insufficient token balance for trade",
	CodeGasEstimationFailed:   "Gas estimation failed",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// CEX (Bybit/MEXC) errors
	CodeCEXConnectionFailed:  "Failed to connect to exchange API",
	CodeCEXAPIError:          "Exchange API error",
	CodeCEXRateLimited:       "Exchange rate limit exceeded",
	CodeOrderbookFetchFailed: "Failed to fetch orderbook",
	CodeInvalidOrderbook:     "Invalid orderbook data",
	CodePartialFill:          "Order partially filled",
	CodePositionImbalance:    "Leg fills left the position imbalanced",

	// DEX (Panora) errors
	CodePanoraQuoteFailed: "Failed to get Panora quote",
	CodeQuoteParseFailure: "Failed to parse quote response",
	CodeInvalidQuote:      "Invalid quote data",
	CodeQuoteStale:        "Quote exceeded its freshness window",

	// Arbitrage detection errors
	CodePriceCalculationFailed: "Price calculation failed",
	CodeSpreadCalculationError: "Spread calculation error",
	CodeInsufficientLiquidity:  "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:       "Invalid trade size",

	// Cache errors
	CodeCacheMiss:    "Cache miss",
	CodeCacheExpired: "Cache entry expired",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",

	// Configuration shape errors
	CodeConfigInvalidShape: "Configuration has an invalid shape",
	CodeShapeDisabled:      "Arbitrage shape disabled due to missing configuration",
}
