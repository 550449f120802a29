package app

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/arbit-labs/clobarb/internal/arbitrage"
	"github.com/arbit-labs/clobarb/internal/circuitbreaker"
	"github.com/arbit-labs/clobarb/internal/discovery"
	"github.com/arbit-labs/clobarb/internal/execution"
	"github.com/arbit-labs/clobarb/internal/ledger"
	"github.com/arbit-labs/clobarb/internal/markets"
	"github.com/arbit-labs/clobarb/internal/orderbook"
	"github.com/arbit-labs/clobarb/internal/redemption"
	"github.com/arbit-labs/clobarb/internal/storage"
	"github.com/arbit-labs/clobarb/pkg/cache"
	"github.com/arbit-labs/clobarb/pkg/config"
	"github.com/arbit-labs/clobarb/pkg/healthprobe"
	"github.com/arbit-labs/clobarb/pkg/httpserver"
	"github.com/arbit-labs/clobarb/pkg/wallet"
	"github.com/arbit-labs/clobarb/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize components
	healthChecker := setupHealthChecker()

	// Setup cache
	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	discoveryService := setupDiscoveryService(cfg, logger, marketCache, opts)
	wsPool := setupWebSocketPool(cfg, logger)
	obManager := setupOrderbookManager(logger, wsPool)

	riskGate := setupRiskGate(cfg)

	// Setup HTTP server (needs orderbook manager and discovery service)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, obManager, discoveryService, riskGate)

	// Setup storage
	arbStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	// Setup arbitrage detector
	arbDetector := setupArbitrageDetector(cfg, logger, obManager, discoveryService, arbStorage, marketCache)

	// Setup executor
	executor, err := setupExecutor(ctx, cfg, logger, arbDetector)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup executor: %w", err)
	}

	positionLedger := ledger.New()
	redemptionTracker := redemption.New()
	redeemer := setupRedeemer(cfg, logger)

	orderClient, err := setupOrderClient(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup order client: %w", err)
	}
	pairedExecutor := setupPairedExecutor(orderClient, riskGate, positionLedger, logger, cfg)

	return &App{
		cfg:               cfg,
		logger:            logger,
		healthChecker:     healthChecker,
		httpServer:        httpServer,
		discoveryService:  discoveryService,
		wsPool:            wsPool,
		obManager:         obManager,
		arbDetector:       arbDetector,
		executor:          executor,
		orderClient:       orderClient,
		pairedExecutor:    pairedExecutor,
		storage:           arbStorage,
		riskGate:          riskGate,
		positionLedger:    positionLedger,
		redemptionTracker: redemptionTracker,
		redeemer:          redeemer,
		ctx:               ctx,
		cancel:            cancel,
	}, nil
}

// setupOrderClient builds a live execution.OrderClient from Polymarket API
// and signing credentials. In paper/dry-run mode, or with no signing key
// configured, it returns nil and the paired executor is left disabled —
// the binary/crossed detectors still run and log opportunities, they just
// have nothing to submit orders to.
func setupOrderClient(cfg *config.Config, logger *zap.Logger) (*execution.OrderClient, error) {
	if cfg.ExecutionMode != "live" {
		return nil, nil
	}

	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		logger.Warn("order-client-disabled-no-private-key")
		return nil, nil
	}

	signatureType := 0
	if st := os.Getenv("POLYMARKET_SIGNATURE_TYPE"); st != "" {
		parsed, parseErr := strconv.Atoi(st)
		if parseErr != nil {
			logger.Warn("order-client-disabled-invalid-signature-type", zap.Error(parseErr))
			return nil, nil
		}
		signatureType = parsed
	}

	orderClient, err := execution.NewOrderClient(&execution.OrderClientConfig{
		APIKey:        cfg.PolymarketAPIKey,
		Secret:        cfg.PolymarketSecret,
		Passphrase:    cfg.PolymarketPassphrase,
		PrivateKey:    privateKeyHex,
		ProxyAddress:  os.Getenv("POLYMARKET_PROXY_ADDRESS"),
		SignatureType: signatureType,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("construct order client: %w", err)
	}

	logger.Info("order-client-enabled")
	return orderClient, nil
}

// setupPairedExecutor wires the risk gate and position ledger into a
// PairedExecutor for the two-leg opportunities the binary and crossed-book
// detectors produce. Returns nil when there's no live order client to
// submit against.
func setupPairedExecutor(
	orderClient *execution.OrderClient,
	riskGate *circuitbreaker.Breaker,
	positionLedger *ledger.Ledger,
	logger *zap.Logger,
	cfg *config.Config,
) *execution.PairedExecutor {
	if orderClient == nil {
		return nil
	}

	return execution.NewPairedExecutor(orderClient, riskGate, positionLedger, logger, cfg.ArbTakerFee)
}

// setupRedeemer builds an on-chain redemption.Redeemer when a signing key
// is configured and execution is live. In paper/dry-run mode, or with no
// key, it returns nil and the redemption sweep only logs readiness.
func setupRedeemer(cfg *config.Config, logger *zap.Logger) redemption.Redeemer {
	if cfg.ExecutionMode != "live" {
		return nil
	}

	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		logger.Warn("redeemer-disabled-no-private-key")
		return nil
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		logger.Warn("redeemer-disabled-invalid-key", zap.Error(err))
		return nil
	}

	rpcURL := os.Getenv("POLYGON_RPC_URL")
	if rpcURL == "" {
		rpcURL = "https://polygon-rpc.com"
	}

	ethClient, err := ethclient.Dial(rpcURL)
	if err != nil {
		logger.Warn("redeemer-disabled-rpc-dial-failed", zap.Error(err))
		return nil
	}

	redeemer, err := redemption.NewOnChainRedeemer(ethClient, privateKey, logger)
	if err != nil {
		logger.Warn("redeemer-disabled-construction-failed", zap.Error(err))
		return nil
	}

	logger.Info("redeemer-enabled")
	return redeemer
}

func setupRiskGate(cfg *config.Config) *circuitbreaker.Breaker {
	return circuitbreaker.NewBreaker(circuitbreaker.RiskConfig{
		MaxDailyLossCents:    cfg.RiskMaxDailyLossCents,
		MaxPositionSizeCents: cfg.RiskMaxPositionSizeCents,
		MaxOpenPositions:     cfg.RiskMaxOpenPositions,
		MaxConsecutiveErrors: cfg.RiskMaxConsecutiveErrors,
	}, time.Now())
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	obManager *orderbook.Manager,
	discoveryService *discovery.Service,
	riskGate *circuitbreaker.Breaker,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:             cfg.HTTPPort,
		Logger:           logger,
		HealthChecker:    healthChecker,
		OrderbookManager: obManager,
		DiscoveryService: discoveryService,
		RiskGate:         riskGate,
	})
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 markets)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupDiscoveryService(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache, opts *Options) *discovery.Service {
	discoveryClient := discovery.NewClient(cfg.PolymarketGammaURL, logger)
	return discovery.New(&discovery.Config{
		Client:            discoveryClient,
		Cache:             marketCache,
		PollInterval:      cfg.DiscoveryPollInterval,
		MarketLimit:       cfg.DiscoveryMarketLimit,
		MaxMarketDuration: cfg.MaxMarketDuration,
		Logger:            logger,
		SingleMarket:      opts.SingleMarket,
	})
}

func setupWebSocketPool(cfg *config.Config, logger *zap.Logger) *websocket.Pool {
	return websocket.NewPool(websocket.PoolConfig{
		Size:                  cfg.WSPoolSize,
		WSUrl:                 cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
}

func setupOrderbookManager(logger *zap.Logger, wsPool *websocket.Pool) *orderbook.Manager {
	return orderbook.New(&orderbook.Config{
		Logger:         logger,
		MessageChannel: wsPool.MessageChan(),
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (arbitrage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupArbitrageDetector(
	cfg *config.Config,
	logger *zap.Logger,
	obManager *orderbook.Manager,
	discoveryService *discovery.Service,
	arbStorage arbitrage.Storage,
	appCache cache.Cache,
) *arbitrage.Detector {
	// Create metadata client for fetching tick size and min order size
	metadataClient := markets.NewMetadataClient()
	cachedMetadataClient := markets.NewCachedMetadataClient(metadataClient, appCache)

	return arbitrage.New(
		arbitrage.Config{
			Threshold:    cfg.ArbMaxPriceSum,
			MinTradeSize: cfg.ArbMinTradeSize,
			MaxTradeSize: cfg.ArbMaxTradeSize,
			TakerFee:     cfg.ArbTakerFee,
			Logger:       logger,
		},
		obManager,
		discoveryService,
		arbStorage,
		cachedMetadataClient,
	)
}

func setupExecutor(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	arbDetector *arbitrage.Detector,
) (executor *execution.Executor, err error) {
	// Don't create executor in dry-run mode
	if cfg.ExecutionMode == "dry-run" {
		logger.Info("executor-disabled-dry-run-mode",
			zap.String("mode", cfg.ExecutionMode),
			zap.String("note", "opportunities will be detected and logged only"))
		return nil, nil
	}

	// Create circuit breaker if enabled
	var breaker *circuitbreaker.BalanceCircuitBreaker
	if cfg.CircuitBreakerEnabled {
		// Parse wallet address for balance checking
		privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
		if privateKeyHex == "" {
			logger.Warn("circuit-breaker-disabled-no-private-key",
				zap.String("note", "POLYMARKET_PRIVATE_KEY not set, circuit breaker disabled"))
		} else {
			// Parse private key to derive address
			privateKey, parseErr := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
			if parseErr != nil {
				logger.Warn("circuit-breaker-disabled-invalid-key",
					zap.Error(parseErr))
			} else {
				publicKey := privateKey.Public()
				publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
				if !ok {
					logger.Warn("circuit-breaker-disabled-key-cast-failed")
				} else {
					address := crypto.PubkeyToAddress(*publicKeyECDSA)

					// Create wallet client for balance checking
					// Use Polygon mainnet RPC endpoint - could be made configurable
					rpcURL := os.Getenv("POLYGON_RPC_URL")
					if rpcURL == "" {
						rpcURL = "https://polygon-rpc.com"
					}

					walletClient, walletErr := wallet.NewClient(rpcURL, logger)
					if walletErr != nil {
						logger.Warn("circuit-breaker-disabled-wallet-client-failed",
							zap.Error(walletErr))
					} else {
						// Create circuit breaker
						breaker, err = circuitbreaker.New(&circuitbreaker.Config{
							CheckInterval:   cfg.CircuitBreakerCheckInterval,
							TradeMultiplier: cfg.CircuitBreakerTradeMultiplier,
							MinAbsolute:     cfg.CircuitBreakerMinAbsolute,
							HysteresisRatio: cfg.CircuitBreakerHysteresisRatio,
							WalletClient:    walletClient,
							Address:         address,
							Logger:          logger,
						})
						if err != nil {
							return nil, fmt.Errorf("create circuit breaker: %w", err)
						}

						// Start background monitoring
						breaker.Start(ctx)

						logger.Info("circuit-breaker-enabled",
							zap.Duration("check_interval", cfg.CircuitBreakerCheckInterval),
							zap.Float64("trade_multiplier", cfg.CircuitBreakerTradeMultiplier),
							zap.Float64("min_absolute", cfg.CircuitBreakerMinAbsolute),
							zap.Float64("hysteresis_ratio", cfg.CircuitBreakerHysteresisRatio))
					}
				}
			}
		}
	}

	executor = execution.New(&execution.Config{
		Mode:               cfg.ExecutionMode,
		MaxPositionSize:    cfg.ExecutionMaxPositionSize,
		Logger:             logger,
		OpportunityChannel: arbDetector.OpportunityChan(),
		CircuitBreaker:     breaker,
	})

	return executor, nil
}
