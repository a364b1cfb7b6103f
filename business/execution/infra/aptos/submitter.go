package aptos

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/sha3"

	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/circuitbreaker"
	"github.com/aptosarb/arbitrage-bot/internal/httpclient"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	tracerName = "aptos"
	meterName  = "aptos"

	gasUnitPrice = uint64(100)   // octas per gas unit
	minGasUnits  = uint64(5_000) // minimum Panora-swap gas budget
	maxGasUnits  = uint64(200_000)
	aptDecimals  = 8

	nativeCoinType = "0x1::aptos_coin::AptosCoin"

	httpTimeout       = 10 * time.Second
	submitTimeout     = 30 * time.Second
	waitPollInterval  = 500 * time.Millisecond
	transactionExpiry = 60 * time.Second
)

// Config configures the on-chain swap submitter.
type Config struct {
	NodeURL    string
	PrivateKey string // hex-encoded 32-byte Ed25519 seed, optional "0x"/"ed25519-priv-0x" prefix
}

type submitterMetrics struct {
	submissions metric.Int64Counter
}

// Submitter implements business/execution/app.Submitter against an Aptos
// fullnode: it signs the entry-function payload carried on a swap quote
// with a BCS-encoded Ed25519 transaction and waits for confirmation.
type Submitter struct {
	cfg     Config
	client  httpclient.Client
	privKey ed25519.PrivateKey
	address [32]byte

	cb     *circuitbreaker.CircuitBreaker[string]
	tracer trace.Tracer
	logger logger.LoggerInterface
	metric *submitterMetrics
}

// NewSubmitter builds a Submitter. If cfg.PrivateKey is empty, Submit always
// fails with a validation error (CodeAptosConnectionFailed, "no private key
// configured") — dry-run mode never calls it, so this only bites a
// misconfigured live run.
func NewSubmitter(cfg Config, log logger.LoggerInterface) (*Submitter, error) {
	httpCli, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("aptos-fullnode"),
		httpclient.WithBaseURL(cfg.NodeURL),
		httpclient.WithRequestTimeout(httpTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("aptos: failed to create http client: %w", err)
	}

	var privKey ed25519.PrivateKey
	var address [32]byte
	if cfg.PrivateKey != "" {
		privKey, address, err = loadAccount(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
	}

	cbCfg := circuitbreaker.DefaultConfig("aptos-submitter")
	cb := circuitbreaker.New[string](cbCfg)

	meter := otel.Meter(meterName)
	submissions, err := meter.Int64Counter("aptos_submissions_total", metric.WithDescription("Aptos transaction submissions by outcome"))
	if err != nil {
		return nil, err
	}

	return &Submitter{
		cfg:     cfg,
		client:  httpCli,
		privKey: privKey,
		address: address,
		cb:      cb,
		tracer:  otel.Tracer(tracerName),
		logger:  log,
		metric:  &submitterMetrics{submissions: submissions},
	}, nil
}

func loadAccount(raw string) (ed25519.PrivateKey, [32]byte, error) {
	var address [32]byte
	seedHex := strings.TrimPrefix(raw, "ed25519-priv-0x")
	seedHex = strings.TrimPrefix(seedHex, "0x")
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, address, apperror.Validation(apperror.CodeAptosConnectionFailed, "aptos: malformed private key")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	// Aptos single-signer Ed25519 account address is
	// sha3_256(pubkey || 0x00).
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{0x00})
	copy(address[:], h.Sum(nil))

	return priv, address, nil
}

// Submit signs and submits the entry-function payload carried on quote,
// waiting for on-chain confirmation.
func (s *Submitter) Submit(ctx context.Context, quote *pricingDomain.SwapQuote) (string, error) {
	ctx, span := s.tracer.Start(ctx, "aptos.submit")
	defer span.End()

	if len(s.privKey) == 0 {
		return "", apperror.Validation(apperror.CodeAptosConnectionFailed, "aptos: no private key configured")
	}
	if quote == nil || quote.Payload == nil || quote.Payload.Function == "" {
		return "", apperror.Validation(apperror.CodeInvalidQuote, "aptos.submit: missing payload")
	}

	modAddr, modName, fnName, err := parseFunctionID(quote.Payload.Function)
	if err != nil {
		return "", err
	}

	encodedArgs, err := encodeArguments(quote.Payload.Arguments)
	if err != nil {
		return "", err
	}

	seqNum, chainID, err := s.fetchAccountState(ctx)
	if err != nil {
		return "", err
	}

	maxGas, err := s.computeMaxGas(ctx)
	if err != nil {
		return "", err
	}
	if maxGas < minGasUnits {
		return "", apperror.Validation(apperror.CodeInsufficientGas, "aptos.submit: insufficient APT for gas")
	}
	if maxGas < maxGasUnits {
		s.logger.Warn(ctx, "aptos: capping max gas for small wallet balance", "max_gas_units", maxGas)
	}

	rawTxn := rawTransaction{
		Sender:                  s.address,
		SequenceNumber:          seqNum,
		ModuleAddr:              modAddr,
		ModuleName:              modName,
		FunctionName:            fnName,
		TypeArgs:                quote.Payload.TypeArguments,
		Args:                    encodedArgs,
		MaxGasAmount:            maxGas,
		GasUnitPrice:            gasUnitPrice,
		ExpirationTimestampSecs: uint64(time.Now().Add(transactionExpiry).Unix()),
		ChainID:                 chainID,
	}

	rawBytes, err := encodeRawTransaction(rawTxn)
	if err != nil {
		return "", err
	}

	signature := ed25519.Sign(s.privKey, signingMessage(rawBytes))
	pubKey := s.privKey.Public().(ed25519.PublicKey)
	signedBytes := encodeSignedTransaction(rawBytes, pubKey, signature)

	txHash, err := s.cb.ExecuteContext(ctx, func(ctx context.Context) (string, error) {
		return s.submitSignedTxn(ctx, signedBytes)
	})
	if err != nil {
		s.metric.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		return "", err
	}

	if err := s.waitForTransaction(ctx, txHash); err != nil {
		s.metric.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		return txHash, err
	}

	s.metric.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "confirmed")))
	return txHash, nil
}

// signingMessage prepends the BCS "APTOS::RawTransaction" domain separator
// (its SHA3-256 digest) to the raw transaction bytes, matching what
// aptos_sdk signs under the hood.
func signingMessage(rawTxnBytes []byte) []byte {
	h := sha3.Sum256([]byte("APTOS::RawTransaction"))
	msg := make([]byte, 0, len(h)+len(rawTxnBytes))
	msg = append(msg, h[:]...)
	msg = append(msg, rawTxnBytes...)
	return msg
}

func parseFunctionID(function string) (addr [32]byte, module, name string, err error) {
	parts := strings.Split(function, "::")
	if len(parts) != 3 {
		return addr, "", "", apperror.Validation(apperror.CodeSchemaMismatch, "aptos: malformed function id "+function)
	}
	addr, err = parseAddress(parts[0])
	if err != nil {
		return addr, "", "", err
	}
	return addr, parts[1], parts[2], nil
}

type accountResource struct {
	SequenceNumber string `json:"sequence_number"`
}

type ledgerInfo struct {
	ChainID uint8 `json:"chain_id"`
}

func (s *Submitter) fetchAccountState(ctx context.Context) (seqNum uint64, chainID uint8, err error) {
	addrHex := "0x" + hex.EncodeToString(s.address[:])

	var acct accountResource
	resp, err := s.client.NewRequest().SetResult(&acct).Get(ctx, "/v1/accounts/"+addrHex)
	if err != nil {
		return 0, 0, apperror.External(apperror.CodeAptosConnectionFailed, "aptos.fetch_account", err)
	}
	if resp.IsError() {
		return 0, 0, apperror.New(apperror.CodeAptosRPCError, apperror.WithContext(fmt.Sprintf("accounts: HTTP %d: %s", resp.StatusCode, resp.String())))
	}
	seqNum, err = strconv.ParseUint(acct.SequenceNumber, 10, 64)
	if err != nil {
		return 0, 0, apperror.External(apperror.CodeAptosRPCError, "aptos.fetch_account: bad sequence_number", err)
	}

	var info ledgerInfo
	resp, err = s.client.NewRequest().SetResult(&info).Get(ctx, "/v1")
	if err != nil {
		return 0, 0, apperror.External(apperror.CodeAptosConnectionFailed, "aptos.fetch_ledger_info", err)
	}
	if resp.IsError() {
		return 0, 0, apperror.New(apperror.CodeAptosRPCError, apperror.WithContext(fmt.Sprintf("ledger info: HTTP %d", resp.StatusCode)))
	}

	return seqNum, info.ChainID, nil
}

// computeMaxGas mirrors _compute_max_gas: cap at maxGasUnits, else
// min(maxGasUnits, 0.9*balance/gasUnitPrice), floored at zero.
func (s *Submitter) computeMaxGas(ctx context.Context) (uint64, error) {
	addrHex := "0x" + hex.EncodeToString(s.address[:])
	balance, err := s.viewCoinBalance(ctx, addrHex, nativeCoinType)
	if err != nil {
		// No balance signal available: behave like the reference and
		// allow the full default cap, letting the node reject on-chain
		// if funds are actually insufficient.
		return maxGasUnits, nil
	}
	octas := balance.Mul(decimal.NewFromFloat(0.9))
	dyn := octas.Div(decimal.NewFromInt(int64(gasUnitPrice))).IntPart()
	if dyn < 0 {
		dyn = 0
	}
	if uint64(dyn) > maxGasUnits {
		return maxGasUnits, nil
	}
	return uint64(dyn), nil
}

type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

func (s *Submitter) viewCoinBalance(ctx context.Context, wallet, coinType string) (decimal.Decimal, error) {
	var result []string
	req := viewRequest{
		Function:      "0x1::coin::balance",
		TypeArguments: []string{coinType},
		Arguments:     []any{wallet},
	}
	resp, err := s.client.NewRequest().SetBody(req).SetResult(&result).Post(ctx, "/v1/view")
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeAptosConnectionFailed, "aptos.view_coin_balance", err)
	}
	if resp.IsError() || len(result) == 0 {
		return decimal.Zero, apperror.New(apperror.CodeAptosRPCError, apperror.WithContext("view coin::balance failed"))
	}
	return decimal.NewFromString(result[0])
}

func (s *Submitter) viewFungibleAssetBalance(ctx context.Context, wallet, faAddr string) (decimal.Decimal, error) {
	var result []string
	req := viewRequest{
		Function:      "0x1::primary_fungible_store::balance",
		TypeArguments: []string{"0x1::fungible_asset::Metadata"},
		Arguments:     []any{wallet, faAddr},
	}
	resp, err := s.client.NewRequest().SetBody(req).SetResult(&result).Post(ctx, "/v1/view")
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeAptosConnectionFailed, "aptos.view_fa_balance", err)
	}
	if resp.IsError() || len(result) == 0 {
		return decimal.Zero, apperror.New(apperror.CodeAptosRPCError, apperror.WithContext("view primary_fungible_store::balance failed"))
	}
	return decimal.NewFromString(result[0])
}

// coinInfoResource mirrors the fields of 0x1::coin::CoinInfo<T> this package
// reads off-chain to learn a coin's decimal places.
type coinInfoResource struct {
	Data struct {
		Decimals int32 `json:"decimals"`
	} `json:"data"`
}

// decimalsOf retrieves a token's decimal places: native APT is always 8;
// everything else is looked up on-chain from the fungible asset's Metadata
// resource, falling back to the legacy CoinInfo<T> resource, and finally to
// 8 if neither resource exists.
func (s *Submitter) decimalsOf(ctx context.Context, tokenAddress string) int32 {
	if isNativeAPT(tokenAddress) {
		return aptDecimals
	}

	faAddr := tokenAddress
	if idx := strings.Index(tokenAddress, "::"); idx >= 0 {
		faAddr = tokenAddress[:idx]
	}

	if dec, ok := s.fetchDecimals(ctx, faAddr, "0x1::fungible_asset::Metadata"); ok {
		return dec
	}

	moduleAddr := faAddr
	coinInfoType := fmt.Sprintf("0x1::coin::CoinInfo<%s>", tokenAddress)
	if dec, ok := s.fetchDecimals(ctx, moduleAddr, coinInfoType); ok {
		return dec
	}
	return aptDecimals
}

func (s *Submitter) fetchDecimals(ctx context.Context, addr, resourceType string) (int32, bool) {
	path := fmt.Sprintf("/v1/accounts/%s/resource/%s", addr, url.PathEscape(resourceType))
	var result coinInfoResource
	resp, err := s.client.NewRequest().SetResult(&result).Get(ctx, path)
	if err != nil || resp.IsError() {
		return 0, false
	}
	return result.Data.Decimals, true
}

// Balance reads a wallet's holding of tokenAddress, converted to a
// human-readable quantity using the token's on-chain decimals: the
// native-coin view for APT, the fungible-asset primary-store view for
// everything else, falling back to the legacy coin-store view keyed by the
// coin type if the FA lookup fails.
func (s *Submitter) Balance(ctx context.Context, tokenAddress string) (decimal.Decimal, error) {
	addrHex := "0x" + hex.EncodeToString(s.address[:])

	decimals := s.decimalsOf(ctx, tokenAddress)
	scale := decimal.NewFromInt(10).Pow(decimal.NewFromInt32(decimals))

	if isNativeAPT(tokenAddress) {
		raw, err := s.viewCoinBalance(ctx, addrHex, nativeCoinType)
		if err != nil {
			return decimal.Zero, err
		}
		return raw.Div(scale), nil
	}

	faAddr := tokenAddress
	if idx := strings.Index(tokenAddress, "::"); idx >= 0 {
		faAddr = tokenAddress[:idx]
	}
	if raw, err := s.viewFungibleAssetBalance(ctx, addrHex, faAddr); err == nil {
		return raw.Div(scale), nil
	}
	raw, err := s.viewCoinBalance(ctx, addrHex, tokenAddress)
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Div(scale), nil
}

func isNativeAPT(tokenAddress string) bool {
	if tokenAddress == nativeCoinType {
		return true
	}
	trimmed := strings.TrimPrefix(strings.ToLower(tokenAddress), "0x")
	trimmed = strings.TrimLeft(trimmed, "0")
	return trimmed == "a" || trimmed == ""
}

func (s *Submitter) submitSignedTxn(ctx context.Context, signedBytes []byte) (string, error) {
	submitCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	var result struct {
		Hash string `json:"hash"`
	}
	resp, err := s.client.NewRequest().
		SetHeader("Content-Type", "application/x.aptos.signed_transaction+bcs").
		SetBody(signedBytes).
		SetResult(&result).
		Post(submitCtx, "/v1/transactions")
	if err != nil {
		return "", apperror.External(apperror.CodeAptosSubmitFailed, "aptos.submit_signed_txn", err)
	}
	if resp.IsError() {
		return "", apperror.New(apperror.CodeAptosSubmitFailed, apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}
	return result.Hash, nil
}

type transactionStatus struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	VMStatus string `json:"vm_status"`
}

// waitForTransaction polls the fullnode until the submitted transaction is
// committed or the process's own context is cancelled. A non-success VM
// status surfaces its message as the error.
func (s *Submitter) waitForTransaction(ctx context.Context, hash string) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		var status transactionStatus
		resp, err := s.client.NewRequest().SetResult(&status).Get(ctx, "/v1/transactions/by_hash/"+hash)
		if err == nil && resp.IsSuccess() && status.Type != "pending_transaction" {
			if status.Success {
				return nil
			}
			return apperror.New(apperror.CodeAptosSubmitFailed, apperror.WithContext("vm_status: "+status.VMStatus))
		}

		select {
		case <-ctx.Done():
			return apperror.External(apperror.CodeAptosSubmitFailed, "aptos.wait_for_transaction: timed out", ctx.Err())
		case <-ticker.C:
		}
	}
}
