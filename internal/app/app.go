package app

import (
	"context"
	"sync"

	"github.com/arbit-labs/clobarb/internal/arbitrage"
	"github.com/arbit-labs/clobarb/internal/circuitbreaker"
	"github.com/arbit-labs/clobarb/internal/discovery"
	"github.com/arbit-labs/clobarb/internal/execution"
	"github.com/arbit-labs/clobarb/internal/ledger"
	"github.com/arbit-labs/clobarb/internal/orderbook"
	"github.com/arbit-labs/clobarb/internal/redemption"
	"github.com/arbit-labs/clobarb/pkg/config"
	"github.com/arbit-labs/clobarb/pkg/healthprobe"
	"github.com/arbit-labs/clobarb/pkg/httpserver"
	"github.com/arbit-labs/clobarb/pkg/websocket"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg               *config.Config
	logger            *zap.Logger
	healthChecker     *healthprobe.HealthChecker
	httpServer        *httpserver.Server
	discoveryService  *discovery.Service
	wsPool            *websocket.Pool
	obManager         *orderbook.Manager
	arbDetector       *arbitrage.Detector
	executor          *execution.Executor
	orderClient       *execution.OrderClient
	pairedExecutor    *execution.PairedExecutor
	storage           arbitrage.Storage
	riskGate          *circuitbreaker.Breaker
	positionLedger    *ledger.Ledger
	redemptionTracker *redemption.Tracker
	redeemer          redemption.Redeemer
	ctx               context.Context
	cancel            context.CancelFunc
	wg                sync.WaitGroup
}

// Options holds application options.
type Options struct {
	SingleMarket string // For debugging: slug of single market to track
}
