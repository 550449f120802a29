package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arbit-labs/clobarb/internal/arbitrage"
	"github.com/arbit-labs/clobarb/internal/execution"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Float64("arb-max-price-sum", a.cfg.ArbMaxPriceSum),
		zap.String("log-level", a.cfg.LogLevel))

	// Start all components
	err := a.startComponents()
	if err != nil {
		return err
	}

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.PolymarketWSURL))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start discovery service
	a.wg.Add(1)
	go a.runDiscoveryService()

	// Start WebSocket manager
	err := a.startWebSocketManager()
	if err != nil {
		return fmt.Errorf("start websocket manager: %w", err)
	}

	// Start market subscription handler
	a.wg.Add(1)
	go a.handleNewMarkets()

	// Start orderbook manager
	err = a.startOrderbookManager()
	if err != nil {
		return fmt.Errorf("start orderbook manager: %w", err)
	}

	// Start arbitrage detector
	err = a.startArbitrageDetector()
	if err != nil {
		return fmt.Errorf("start arbitrage detector: %w", err)
	}

	// Start executor
	err = a.startExecutor()
	if err != nil {
		return fmt.Errorf("start executor: %w", err)
	}

	// Start paired-opportunity execution loop
	a.wg.Add(1)
	go a.runPairedExecutionLoop()

	// Start redemption sweep
	a.wg.Add(1)
	go a.runRedemptionSweep()

	return nil
}

// runPairedExecutionLoop drains the binary and crossed-book detectors'
// two-leg opportunity channel and dispatches each to the paired executor.
// With no live order client configured (paper/dry-run mode, or live mode
// missing a signing key) it still drains the channel so the detectors
// never block, it just logs instead of submitting.
func (a *App) runPairedExecutionLoop() {
	defer a.wg.Done()

	ch := a.arbDetector.PairedOpportunityChan()
	for {
		select {
		case <-a.ctx.Done():
			return
		case opp, ok := <-ch:
			if !ok {
				return
			}
			a.executePairedOpportunity(opp)
		}
	}
}

func (a *App) executePairedOpportunity(opp *arbitrage.PairedOpportunity) {
	if a.pairedExecutor == nil {
		a.logger.Info("paired-opportunity-skipped-no-executor",
			zap.String("market-id", opp.MarketID),
			zap.String("kind", string(opp.Kind)))
		return
	}

	legA := toExecutionLeg(opp.LegA)
	legB := toExecutionLeg(opp.LegB)

	var result *execution.PairedExecutionResult
	switch opp.Kind {
	case arbitrage.PairedKindBinaryBuy:
		result = a.pairedExecutor.Execute(a.ctx, opp.MarketID, legA, legB)
	case arbitrage.PairedKindCrossed:
		result = a.pairedExecutor.ExecuteCrossed(a.ctx, opp.MarketID, legA, legB)
	default:
		a.logger.Error("paired-opportunity-unknown-kind",
			zap.String("market-id", opp.MarketID),
			zap.String("kind", string(opp.Kind)))
		return
	}

	if result.Error != nil {
		a.logger.Warn("paired-execution-failed",
			zap.String("market-id", opp.MarketID),
			zap.String("kind", string(opp.Kind)),
			zap.String("outcome", string(result.Outcome)),
			zap.Error(result.Error))
		return
	}

	a.logger.Info("paired-execution-complete",
		zap.String("market-id", opp.MarketID),
		zap.String("kind", string(opp.Kind)),
		zap.String("outcome", string(result.Outcome)),
		zap.Float64("net-profit", result.NetProfit))
}

func toExecutionLeg(leg arbitrage.PairedLeg) execution.Leg {
	side := model.BUY
	if leg.Side == "SELL" {
		side = model.SELL
	}

	return execution.Leg{
		TokenID:  leg.TokenID,
		Side:     side,
		Price:    leg.Price,
		Size:     leg.Size,
		TickSize: leg.TickSize,
		MinSize:  leg.MinSize,
		Label:    leg.Label,
	}
}

// runRedemptionSweep periodically redeems any tracked positions past their
// market's resolution window. A nil redeemer means execution is in
// dry-run/paper mode; the sweep still runs so redeemable positions are
// logged, but RedeemPosition is a no-op without a live redeemer.
func (a *App) runRedemptionSweep() {
	defer a.wg.Done()

	if a.redemptionTracker == nil {
		return
	}

	interval := a.cfg.RedemptionSweepInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if a.redeemer == nil {
				ready := a.redemptionTracker.GetRedeemablePositions(time.Now())
				if len(ready) > 0 {
					a.logger.Info("redemption-sweep-skipped-no-redeemer", zap.Int("ready-count", len(ready)))
				}
				continue
			}

			failures := a.redemptionTracker.AutoRedeemAll(a.ctx, a.redeemer, time.Now())
			if len(failures) > 0 {
				a.logger.Warn("redemption-sweep-partial-failure", zap.Int("failed-count", len(failures)))
			} else {
				a.logger.Debug("redemption-sweep-complete")
			}
		}
	}
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runDiscoveryService() {
	defer a.wg.Done()
	err := a.discoveryService.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("discovery-service-error", zap.Error(err))
	}
}

func (a *App) startWebSocketManager() error {
	return a.wsPool.Start()
}

func (a *App) startOrderbookManager() error {
	return a.obManager.Start(a.ctx)
}

func (a *App) startArbitrageDetector() error {
	return a.arbDetector.Start(a.ctx)
}

func (a *App) startExecutor() error {
	if a.executor == nil {
		a.logger.Info("executor-not-started",
			zap.String("mode", a.cfg.ExecutionMode),
			zap.String("reason", "dry-run mode - detection only"))
		return nil
	}

	return a.executor.Start(a.ctx)
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
