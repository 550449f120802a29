package execution

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arbit-labs/clobarb/internal/execution/eip712"
	"github.com/arbit-labs/clobarb/internal/execution/nonce"
	"github.com/arbit-labs/clobarb/pkg/types"
)

const clobBaseURL = "https://clob.polymarket.com"

// maxBatchOrders is the venue's limit on how many orders may be submitted
// in a single batch request.
const maxBatchOrders = 15

// polygonChainID and polygonCTFExchange anchor the EIP-712 domain
// separator used to independently verify every signature go-order-utils
// produces, before the order ever leaves this process.
const (
	polygonChainID     = 137
	polygonCTFExchange = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
)

// newPooledHTTPClient builds the shared client every OrderClient request
// goes through: a connection pool big enough to keep a socket warm per
// concurrent detector, idle connections held open long enough to survive
// the gap between detection ticks, and Nagle's algorithm disabled so a
// small signed-order body is not held back waiting to coalesce with a
// second write.
func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Timeout: 30 * time.Second, Transport: transport}
}

// newTransportBreaker wraps the raw HTTP round trip in a circuit breaker
// separate from the trading risk gate: this one protects the venue's API
// from a client hammering it during an outage, not the account from bad
// fills. It opens after 5 consecutive request failures and probes again
// after a cooldown.
func newTransportBreaker() *gobreaker.CircuitBreaker[[]byte] {
	st := gobreaker.Settings{
		Name:        "clob-http",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

// OrderClient handles order submission to Polymarket CLOB
type OrderClient struct {
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string // EOA address (signer)
	proxyAddress  string // Proxy address (maker/funder)
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
	logger        *zap.Logger
	httpClient    *http.Client
	limiter       *rate.Limiter
	transportCB   *gobreaker.CircuitBreaker[[]byte]
	nonceSeq      *nonce.Sequencer
	domain        *eip712.DomainSeparator
}

// OrderClientConfig holds configuration for the order client
type OrderClientConfig struct {
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	Address       string
	ProxyAddress  string
	SignatureType int
	Logger        *zap.Logger
}

// NewOrderClient creates a new order client
func NewOrderClient(cfg *OrderClientConfig) (*OrderClient, error) {
	// Parse private key
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	// Derive EOA address if not provided
	address := cfg.Address
	if address == "" {
		publicKey := privateKey.Public()
		publicKeyECDSA, _ := publicKey.(*ecdsa.PublicKey)
		address = crypto.PubkeyToAddress(*publicKeyECDSA).Hex()
	}

	chainID := big.NewInt(137) // Polygon mainnet
	orderBuilder := builder.NewExchangeOrderBuilderImpl(chainID, nil)

	return &OrderClient{
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  orderBuilder,
		logger:        cfg.Logger,
		httpClient:    newPooledHTTPClient(),
		// The venue's documented REST limit is ~10 req/s per key; stay
		// comfortably under it so a burst of legitimate submissions
		// doesn't trip a 429 that a transport-level breaker would then
		// have to absorb.
		limiter:     rate.NewLimiter(rate.Limit(8), 4),
		transportCB: newTransportBreaker(),
		// Nonce 0 is the starting point for a freshly constructed client.
		// The client does not query the venue for the current value, and
		// nothing in this package calls HandleConflict, so a nonce the venue
		// rejects surfaces as an ordinary API error with no resync or retry.
		nonceSeq: nonce.New(0),
		domain:   eip712.NewDomainSeparator(polygonChainID, common.HexToAddress(polygonCTFExchange)),
	}, nil
}

// nextNonce mints the next order nonce from the sequencer.
func (c *OrderClient) nextNonce() string {
	return fmt.Sprintf("%d", c.nonceSeq.Next())
}

// verifySignature independently recomputes the EIP-712 digest for a signed
// order and recovers the signer address from its signature, comparing it
// against the signer go-order-utils was asked to sign with. A mismatch
// never blocks submission — go-order-utils' BuildSignedOrder is the
// authoritative signing path — but it is logged loudly, since a silent
// divergence here means either this verifier or go-order-utils itself has
// drifted from the exchange's actual EIP-712 schema.
func (c *OrderClient) verifySignature(order *model.SignedOrder) {
	if len(order.Signature) != 65 {
		return
	}

	eo := eip712.Order{
		Salt:          order.Salt,
		Maker:         order.Maker,
		Signer:        order.Signer,
		Taker:         order.Taker,
		TokenID:       order.TokenId,
		MakerAmount:   order.MakerAmount,
		TakerAmount:   order.TakerAmount,
		Expiration:    order.Expiration,
		Nonce:         order.Nonce,
		FeeRateBps:    order.FeeRateBps,
		Side:          eip712.Side(order.Side.Uint64()),
		SignatureType: eip712.SignatureType(order.SignatureType.Uint64()),
	}
	digest := c.domain.Digest(eo)

	sig := make([]byte, 65)
	copy(sig, order.Signature)
	// go-ethereum's SigToPub wants the recovery id in {0,1}; go-order-utils
	// signs with the Ethereum convention {27,28}, same as eip712.Signer.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		c.logger.Warn("signature-verification-recover-failed", zap.String("token_id", order.TokenId.String()), zap.Error(err))
		SignatureVerificationMismatchTotal.Inc()
		return
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	if recovered != order.Signer {
		c.logger.Warn("signature-verification-mismatch",
			zap.String("token_id", order.TokenId.String()),
			zap.String("expected-signer", order.Signer.Hex()),
			zap.String("recovered-signer", recovered.Hex()))
		SignatureVerificationMismatchTotal.Inc()
	}
}

// CancelOrder cancels a single resting order by its venue-assigned ID.
func (c *OrderClient) CancelOrder(ctx context.Context, orderID string) error {
	body, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return fmt.Errorf("marshal cancel request: %w", err)
	}
	_, err = c.doSigned(ctx, http.MethodDelete, "/order", body)
	return err
}

// PlaceOrders places YES and NO orders for arbitrage (legacy sequential method).
// DEPRECATED: Use PlaceOrdersBatch for better atomicity and performance.
func (c *OrderClient) PlaceOrders(
	ctx context.Context,
	yesTokenID string,
	noTokenID string,
	size float64,
	yesPrice float64,
	noPrice float64,
	yesTickSize float64,
	yesMinSize float64,
	noTickSize float64,
	noMinSize float64,
) (yesResp *types.OrderSubmissionResponse, noResp *types.OrderSubmissionResponse, err error) {
	// Determine maker address
	makerAddress := c.address
	signerAddress := c.address
	if c.proxyAddress != "" {
		makerAddress = c.proxyAddress
	}

	// Get rounding precision for each token
	yesSizePrecision, yesAmountPrecision := getRoundingConfig(yesTickSize)
	noSizePrecision, noAmountPrecision := getRoundingConfig(noTickSize)

	// Calculate token sizes with rounding
	yesTakerTokens := roundAmount(size/yesPrice, yesSizePrecision)
	noTakerTokens := roundAmount(size/noPrice, noSizePrecision)

	// Validate against minimums
	if yesTakerTokens < yesMinSize {
		return nil, nil, fmt.Errorf("YES order size %.2f below minimum %.2f tokens", yesTakerTokens, yesMinSize)
	}
	if noTakerTokens < noMinSize {
		return nil, nil, fmt.Errorf("NO order size %.2f below minimum %.2f tokens", noTakerTokens, noMinSize)
	}

	// Build YES order with rounded amounts
	yesMakerUSD := roundAmount(yesTakerTokens*yesPrice, yesAmountPrecision)
	yesMakerAmount := usdToRawAmount(yesMakerUSD)
	yesTakerAmount := usdToRawAmount(yesTakerTokens)

	yesOrderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       yesTokenID,
		MakerAmount:   yesMakerAmount,
		TakerAmount:   yesTakerAmount,
		Side:          model.BUY, // BUY = 0, buying outcome tokens with USDC
		FeeRateBps:    "0",
		Nonce:         c.nextNonce(),
		Signer:        signerAddress,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	yesSignedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, yesOrderData, model.CTFExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("build YES order: %w", err)
	}
	c.verifySignature(yesSignedOrder)

	// Build NO order with rounded amounts
	noMakerUSD := roundAmount(noTakerTokens*noPrice, noAmountPrecision)
	noMakerAmount := usdToRawAmount(noMakerUSD)
	noTakerAmount := usdToRawAmount(noTakerTokens)

	noOrderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       noTokenID,
		MakerAmount:   noMakerAmount,
		TakerAmount:   noTakerAmount,
		Side:          model.BUY, // BUY = 0, buying outcome tokens with USDC
		FeeRateBps:    "0",
		Nonce:         c.nextNonce(),
		Signer:        signerAddress,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	noSignedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, noOrderData, model.CTFExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("build NO order: %w", err)
	}
	c.verifySignature(noSignedOrder)

	c.logger.Info("orders-built",
		zap.String("maker", makerAddress),
		zap.String("signer", signerAddress),
		zap.Float64("size", size))

	// Submit orders
	yesResp, err = c.submitOrder(ctx, yesSignedOrder)
	if err != nil {
		err = fmt.Errorf("submit YES order: %w", err)
		return yesResp, noResp, err
	}

	noResp, err = c.submitOrder(ctx, noSignedOrder)
	if err != nil {
		err = fmt.Errorf("submit NO order: %w", err)
		return yesResp, noResp, err
	}

	return yesResp, noResp, nil
}

// GetMakerAddress returns the maker address (proxy if set, otherwise EOA).
func (c *OrderClient) GetMakerAddress() (makerAddress string) {
	if c.proxyAddress != "" {
		return c.proxyAddress
	}
	return c.address
}

// GetSignerAddress returns the signer address (always the EOA).
func (c *OrderClient) GetSignerAddress() (signerAddress string) {
	return c.address
}

// GetSignatureType returns the signature type.
func (c *OrderClient) GetSignatureType() (signatureType model.SignatureType) {
	return c.signatureType
}

// PlaceSingleOrder places a single order with the given OrderData.
// This method is useful for closing positions or placing standalone orders.
func (c *OrderClient) PlaceSingleOrder(
	ctx context.Context,
	orderData *model.OrderData,
) (resp *types.OrderSubmissionResponse, err error) {
	// Build and sign the order
	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	// Convert Side to string for logging
	sideStr := "BUY"
	if orderData.Side == model.SELL {
		sideStr = "SELL"
	}

	c.logger.Info("single-order-built",
		zap.String("maker", orderData.Maker),
		zap.String("signer", orderData.Signer),
		zap.String("token_id", orderData.TokenId),
		zap.String("side", sideStr))

	// Submit the order
	resp, err = c.submitOrder(ctx, signedOrder)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	return resp, nil
}

// PlaceOrdersBatch places YES and NO orders atomically using the batch endpoint.
// This is the preferred method as it submits both orders in a single API call.
func (c *OrderClient) PlaceOrdersBatch(
	ctx context.Context,
	yesTokenID string,
	noTokenID string,
	yesSide model.Side,
	noSide model.Side,
	size float64,
	yesPrice float64,
	noPrice float64,
	yesTickSize float64,
	yesMinSize float64,
	noTickSize float64,
	noMinSize float64,
) (yesResp *types.OrderSubmissionResponse, noResp *types.OrderSubmissionResponse, err error) {
	// Determine maker address
	makerAddress := c.address
	signerAddress := c.address
	if c.proxyAddress != "" {
		makerAddress = c.proxyAddress
	}

	// Get rounding precision for each token
	yesSizePrecision, yesAmountPrecision := getRoundingConfig(yesTickSize)
	noSizePrecision, noAmountPrecision := getRoundingConfig(noTickSize)

	// Calculate token sizes with rounding
	yesTakerTokens := roundAmount(size/yesPrice, yesSizePrecision)
	noTakerTokens := roundAmount(size/noPrice, noSizePrecision)

	// Validate against minimums
	if yesTakerTokens < yesMinSize {
		err = fmt.Errorf("YES order size %.2f below minimum %.2f tokens", yesTakerTokens, yesMinSize)
		return yesResp, noResp, err
	}
	if noTakerTokens < noMinSize {
		err = fmt.Errorf("NO order size %.2f below minimum %.2f tokens", noTakerTokens, noMinSize)
		return yesResp, noResp, err
	}

	// Build YES order with rounded amounts
	yesMakerUSD := roundAmount(yesTakerTokens*yesPrice, yesAmountPrecision)
	yesMakerAmount := usdToRawAmount(yesMakerUSD)
	yesTakerAmount := usdToRawAmount(yesTakerTokens)

	yesOrderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       yesTokenID,
		MakerAmount:   yesMakerAmount,
		TakerAmount:   yesTakerAmount,
		Side:          yesSide,
		FeeRateBps:    "0",
		Nonce:         c.nextNonce(),
		Signer:        signerAddress,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	yesSignedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, yesOrderData, model.CTFExchange)
	if err != nil {
		err = fmt.Errorf("build YES order: %w", err)
		return yesResp, noResp, err
	}
	c.verifySignature(yesSignedOrder)

	// Build NO order with rounded amounts
	noMakerUSD := roundAmount(noTakerTokens*noPrice, noAmountPrecision)
	noMakerAmount := usdToRawAmount(noMakerUSD)
	noTakerAmount := usdToRawAmount(noTakerTokens)

	noOrderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       noTokenID,
		MakerAmount:   noMakerAmount,
		TakerAmount:   noTakerAmount,
		Side:          noSide,
		FeeRateBps:    "0",
		Nonce:         c.nextNonce(),
		Signer:        signerAddress,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	noSignedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, noOrderData, model.CTFExchange)
	if err != nil {
		err = fmt.Errorf("build NO order: %w", err)
		return yesResp, noResp, err
	}
	c.verifySignature(noSignedOrder)

	c.logger.Info("batch-orders-built",
		zap.String("maker", makerAddress),
		zap.String("signer", signerAddress),
		zap.Float64("size", size))

	// Convert signed orders to JSON format
	yesOrderJSON := c.convertToOrderJSON(yesSignedOrder)
	noOrderJSON := c.convertToOrderJSON(noSignedOrder)

	// Create batch request
	batchReq := types.BatchOrderRequest{
		{Order: yesOrderJSON, Owner: c.apiKey, OrderType: "GTC"},
		{Order: noOrderJSON, Owner: c.apiKey, OrderType: "GTC"},
	}

	// Submit batch
	batchResp, err := c.submitBatchOrder(ctx, batchReq)
	if err != nil {
		return yesResp, noResp, err
	}

	// Validate we got 2 responses
	if len(batchResp) != 2 {
		err = fmt.Errorf("expected 2 responses, got %d", len(batchResp))
		return yesResp, noResp, err
	}

	yesResp = &batchResp[0]
	noResp = &batchResp[1]

	// Check for errors
	if !yesResp.Success {
		err = &types.OrderError{
			Code:    yesResp.ErrorMsg,
			Message: yesResp.ErrorMsg,
			OrderID: yesResp.OrderID,
			Side:    "YES",
		}
		return yesResp, noResp, err
	}
	if !noResp.Success {
		err = &types.OrderError{
			Code:    noResp.ErrorMsg,
			Message: noResp.ErrorMsg,
			OrderID: noResp.OrderID,
			Side:    "NO",
		}
		return yesResp, noResp, err
	}

	return yesResp, noResp, nil
}

// convertToOrderJSON converts a signed order to JSON format
func (c *OrderClient) convertToOrderJSON(order *model.SignedOrder) types.SignedOrderJSON {
	sideStr := "BUY"
	if order.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	return types.SignedOrderJSON{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}
}

// submitBatchOrder submits a batch of orders to POST /orders endpoint
func (c *OrderClient) submitBatchOrder(
	ctx context.Context,
	req types.BatchOrderRequest,
) (resp types.BatchOrderResponse, err error) {
	if len(req) == 0 || len(req) > maxBatchOrders {
		return resp, fmt.Errorf("batch size %d outside allowed range [1,%d]", len(req), maxBatchOrders)
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		err = fmt.Errorf("marshal batch request: %w", err)
		return resp, err
	}

	// Create HMAC signature
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	method := "POST"
	requestPath := "/orders" // Note: plural for batch endpoint

	signaturePayload := timestamp + method + requestPath + string(reqBody)

	// Decode secret using URL-safe base64
	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		err = fmt.Errorf("decode secret: %w", err)
		return resp, err
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(signaturePayload))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	body, err := c.send(ctx, method, requestPath, reqBody, timestamp, signature)
	if err != nil {
		return resp, err
	}

	err = json.Unmarshal(body, &resp)
	if err != nil {
		err = fmt.Errorf("parse batch response: %w\nBody: %s", err, string(body))
		return resp, err
	}

	return resp, nil
}

// doSigned HMAC-signs an arbitrary method/path/body triple and returns the
// raw response body, for CLOB operations (like cancel) that don't fit the
// order/batch-order request shapes above.
func (c *OrderClient) doSigned(ctx context.Context, method, requestPath string, body []byte) ([]byte, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signaturePayload := timestamp + method + requestPath + string(body)

	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(signaturePayload))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	return c.send(ctx, method, requestPath, body, timestamp, signature)
}

// send issues the HTTP request behind both submitOrder and submitBatchOrder,
// rate-limited, routed through the shared pooled client, and guarded by a
// transport-level breaker that opens on a run of consecutive failures so a
// venue outage fails fast instead of piling up timed-out requests.
func (c *OrderClient) send(ctx context.Context, method, requestPath string, body []byte, timestamp, signature string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return c.transportCB.Execute(func() ([]byte, error) {
		url := clobBaseURL + requestPath
		httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("POLY_API_KEY", c.apiKey)
		httpReq.Header.Set("POLY_SIGNATURE", signature)
		httpReq.Header.Set("POLY_TIMESTAMP", timestamp)
		httpReq.Header.Set("POLY_PASSPHRASE", c.passphrase)
		httpReq.Header.Set("POLY_ADDRESS", c.address)

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}
		return respBody, nil
	})
}

func (c *OrderClient) submitOrder(
	ctx context.Context,
	order *model.SignedOrder,
) (resp *types.OrderSubmissionResponse, err error) {
	// Convert to JSON format using helper method
	jsonOrder := c.convertToOrderJSON(order)

	// Wrap order in the required structure
	// Note: "owner" is the API key, not the maker address (per Python client)
	orderRequest := types.OrderSubmissionRequest{
		Order:     jsonOrder,
		Owner:     c.apiKey,
		OrderType: "GTC",
	}

	reqBody, err := json.Marshal(orderRequest)
	if err != nil {
		err = fmt.Errorf("marshal request: %w", err)
		return resp, err
	}

	// Create HMAC signature
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	method := "POST"
	requestPath := "/order"

	signaturePayload := timestamp + method + requestPath + string(reqBody)

	// Decode secret using URL-safe base64 (Python client uses urlsafe_b64decode)
	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		err = fmt.Errorf("decode secret: %w", err)
		return resp, err
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(signaturePayload))
	// Encode signature using URL-safe base64 (Python client uses urlsafe_b64encode)
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	body, err := c.send(ctx, method, requestPath, reqBody, timestamp, signature)
	if err != nil {
		return resp, err
	}

	err = json.Unmarshal(body, &resp)
	if err != nil {
		err = fmt.Errorf("parse response: %w", err)
		return resp, err
	}

	return resp, nil
}

// usdToRawAmount converts a dollar amount to the venue's raw six-decimal
// integer string using decimal arithmetic, avoiding the float64
// multiply-then-truncate rounding drift that a naive int64(usd*1e6) can
// introduce at the boundary between two raw units.
func usdToRawAmount(usd float64) string {
	raw := decimal.NewFromFloat(usd).Mul(decimal.NewFromInt(1_000_000)).Truncate(0)
	return raw.String()
}

// getRoundingConfig returns the precision for size and amount based on tick size
// Matches Python client's ROUNDING_CONFIG
func getRoundingConfig(tickSize float64) (sizePrecision int, amountPrecision int) {
	switch tickSize {
	case 0.1:
		return 2, 3 // size=2, amount=3
	case 0.01:
		return 2, 4 // size=2, amount=4
	case 0.001:
		return 2, 5 // size=2, amount=5
	case 0.0001:
		return 2, 6 // size=2, amount=6
	default:
		return 2, 4 // Default to 0.01 tick size
	}
}

// roundAmount rounds an amount to the specified number of decimal places
// using decimal.Decimal's banker-free round-half-up, which matches the
// venue's own rounding behavior more closely than float64 multiply/round
// does at the tick sizes the CLOB trades at.
func roundAmount(value float64, decimals int) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(int32(decimals)).Float64()
	return rounded
}
