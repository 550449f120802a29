package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/arbit-labs/clobarb/internal/circuitbreaker"
	"github.com/arbit-labs/clobarb/internal/ledger"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"

	"github.com/arbit-labs/clobarb/pkg/types"
)

// Leg is one side of a paired trade: either leg of a binary YES/NO
// opportunity, or the buy/sell side of a single crossed token.
type Leg struct {
	TokenID  string
	Side     model.Side
	Price    float64
	Size     float64
	TickSize float64
	MinSize  float64
	Label    string // "YES", "NO", "BUY", "SELL" — used only for logging
}

// PairedOutcome classifies how a paired submission resolved.
type PairedOutcome string

const (
	OutcomeBothSucceeded PairedOutcome = "both_succeeded"
	OutcomePartialFill   PairedOutcome = "partial_fill"
	OutcomeBothFailed    PairedOutcome = "both_failed"
)

// PairedExecutionResult is the outcome of one paired-leg submission.
type PairedExecutionResult struct {
	Outcome        PairedOutcome
	NetProfit      float64
	Error          error
	RollbackFailed bool
}

// orderSubmitter is the subset of OrderClient that PairedExecutor needs,
// narrowed to an interface so tests can exercise the rollback decision
// tree without a live HTTP round trip.
type orderSubmitter interface {
	PlaceOrdersBatch(ctx context.Context, tokenAID, tokenBID string, sideA, sideB model.Side, size, priceA, priceB, tickA, minA, tickB, minB float64) (*types.OrderSubmissionResponse, *types.OrderSubmissionResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// PairedExecutor submits two legs as a single batch and, if only one leg
// fills, cancels the filled leg and unwinds the reserved positions rather
// than carrying a naked single-sided position. This is the synchronous
// counterpart to Executor's async multi-outcome fill verification, used
// for the two-leg opportunities produced by the crossed-book and binary
// detectors.
type PairedExecutor struct {
	orderClient orderSubmitter
	breaker     *circuitbreaker.Breaker
	ledger      *ledger.Ledger
	logger      *zap.Logger
	takerFee    float64
}

// NewPairedExecutor builds a PairedExecutor.
func NewPairedExecutor(orderClient orderSubmitter, breaker *circuitbreaker.Breaker, positions *ledger.Ledger, logger *zap.Logger, takerFee float64) *PairedExecutor {
	return &PairedExecutor{
		orderClient: orderClient,
		breaker:     breaker,
		ledger:      positions,
		logger:      logger,
		takerFee:    takerFee,
	}
}

// Execute submits legA and legB as one batch order and resolves the result
// per the both-succeeded / partial-fill / both-failed decision tree: a
// clean double fill records the trade, a partial fill cancels the filled
// leg and trips the breaker permanently if that cancel itself fails (a
// position we can no longer unwind is the one failure mode with no safe
// retry), and a clean double failure is recorded as an error with no
// position ever held.
func (e *PairedExecutor) Execute(ctx context.Context, marketID string, legA, legB Leg) *PairedExecutionResult {
	if !e.breaker.CanExecute() {
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: fmt.Errorf("risk gate closed")}
	}

	if !e.breaker.OpenPosition() {
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: fmt.Errorf("max open positions reached")}
	}
	if !e.breaker.OpenPosition() {
		e.breaker.ClosePosition()
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: fmt.Errorf("max open positions reached")}
	}

	respA, respB, err := e.orderClient.PlaceOrdersBatch(
		ctx,
		legA.TokenID, legB.TokenID,
		legA.Side, legB.Side,
		legA.Size, legA.Price, legB.Price,
		legA.TickSize, legA.MinSize, legB.TickSize, legB.MinSize,
	)

	return e.verifyAndRollback(ctx, marketID, legA, legB, respA, respB, err)
}

// ExecuteCrossed submits a buy leg and a sell leg against the same crossed
// token: the buy fills at the ask, the sell fills at the (higher) bid, and
// a clean double fill nets the position flat rather than leaving an open
// position behind, so it clears any ledger entry instead of recording one.
// The gate check and partial-fill rollback follow the same decision tree
// as Execute; only the PnL formula and the ledger update differ, since a
// crossed-book pair is not a complementary YES/NO redemption.
func (e *PairedExecutor) ExecuteCrossed(ctx context.Context, marketID string, buyLeg, sellLeg Leg) *PairedExecutionResult {
	if !e.breaker.CanExecute() {
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: fmt.Errorf("risk gate closed")}
	}

	if !e.breaker.OpenPosition() {
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: fmt.Errorf("max open positions reached")}
	}
	if !e.breaker.OpenPosition() {
		e.breaker.ClosePosition()
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: fmt.Errorf("max open positions reached")}
	}

	respBuy, respSell, err := e.orderClient.PlaceOrdersBatch(
		ctx,
		buyLeg.TokenID, sellLeg.TokenID,
		buyLeg.Side, sellLeg.Side,
		buyLeg.Size, buyLeg.Price, sellLeg.Price,
		buyLeg.TickSize, buyLeg.MinSize, sellLeg.TickSize, sellLeg.MinSize,
	)

	buyOK := respBuy != nil && respBuy.Success && respBuy.OrderID != ""
	sellOK := respSell != nil && respSell.Success && respSell.OrderID != ""

	switch {
	case buyOK && sellOK:
		e.breaker.ClosePosition()
		e.breaker.ClosePosition()
		netProfit := e.calculateCrossedPnL(buyLeg, sellLeg)
		e.breaker.RecordTrade(int64(netProfit * 100))
		e.ledger.Remove(marketID, buyLeg.TokenID)
		e.logger.Info("crossed-execution-both-succeeded",
			zap.String("market-id", marketID),
			zap.String("token-id", buyLeg.TokenID),
			zap.Float64("net-profit", netProfit))
		return &PairedExecutionResult{Outcome: OutcomeBothSucceeded, NetProfit: netProfit}

	case buyOK && !sellOK:
		return e.rollbackFilledLeg(ctx, marketID, respBuy.OrderID, buyLeg, err)

	case !buyOK && sellOK:
		return e.rollbackFilledLeg(ctx, marketID, respSell.OrderID, sellLeg, err)

	default:
		e.breaker.ClosePosition()
		e.breaker.ClosePosition()
		e.breaker.RecordError()
		resultErr := err
		if resultErr == nil {
			resultErr = fmt.Errorf("both legs failed")
		}
		e.logger.Error("crossed-execution-both-failed", zap.String("market-id", marketID), zap.Error(resultErr))
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: resultErr}
	}
}

// calculateCrossedPnL computes the net dollar PnL of a same-token
// buy-then-sell pair: proceeds from the sell minus the cost of the buy,
// minus taker fees on both legs.
func (e *PairedExecutor) calculateCrossedPnL(buyLeg, sellLeg Leg) float64 {
	cost := buyLeg.Price * buyLeg.Size
	proceeds := sellLeg.Price * sellLeg.Size
	fees := (cost + proceeds) * e.takerFee
	return proceeds - cost - fees
}

func (e *PairedExecutor) verifyAndRollback(ctx context.Context, marketID string, legA, legB Leg, respA, respB *types.OrderSubmissionResponse, submitErr error) *PairedExecutionResult {
	aOK := respA != nil && respA.Success && respA.OrderID != ""
	bOK := respB != nil && respB.Success && respB.OrderID != ""

	switch {
	case aOK && bOK:
		e.breaker.ClosePosition()
		e.breaker.ClosePosition()
		netProfit := e.calculatePnL(legA, legB)
		e.breaker.RecordTrade(int64(netProfit * 100))
		e.ledger.Upsert(marketID, legA.TokenID, legA.Label, sideString(legA.Side), legA.Size, legA.Price, time.Now())
		e.ledger.Upsert(marketID, legB.TokenID, legB.Label, sideString(legB.Side), legB.Size, legB.Price, time.Now())
		e.logger.Info("paired-execution-both-succeeded",
			zap.String("market-id", marketID),
			zap.Float64("net-profit", netProfit))
		return &PairedExecutionResult{Outcome: OutcomeBothSucceeded, NetProfit: netProfit}

	case aOK && !bOK:
		return e.rollbackFilledLeg(ctx, marketID, respA.OrderID, legA, submitErr)

	case !aOK && bOK:
		return e.rollbackFilledLeg(ctx, marketID, respB.OrderID, legB, submitErr)

	default:
		e.breaker.ClosePosition()
		e.breaker.ClosePosition()
		e.breaker.RecordError()
		err := submitErr
		if err == nil {
			err = fmt.Errorf("both legs failed")
		}
		e.logger.Error("paired-execution-both-failed", zap.String("market-id", marketID), zap.Error(err))
		return &PairedExecutionResult{Outcome: OutcomeBothFailed, Error: err}
	}
}

func (e *PairedExecutor) rollbackFilledLeg(ctx context.Context, marketID, orderID string, filledLeg Leg, cause error) *PairedExecutionResult {
	e.logger.Warn("paired-execution-partial-fill",
		zap.String("market-id", marketID),
		zap.String("filled-leg", filledLeg.Label),
		zap.String("order-id", orderID))

	cancelErr := e.orderClient.CancelOrder(ctx, orderID)
	if cancelErr != nil {
		// The filled leg cannot be unwound: we are left holding a naked
		// single-sided position. There is no safe automated retry for
		// this, so the breaker trips permanently and a human has to
		// look at the account.
		e.breaker.Trip()
		e.logger.Error("CRITICAL-rollback-cancel-failed-breaker-tripped",
			zap.String("market-id", marketID),
			zap.String("order-id", orderID),
			zap.Error(cancelErr))
		return &PairedExecutionResult{
			Outcome:        OutcomePartialFill,
			Error:          fmt.Errorf("rollback failed for order %s: %w", orderID, cancelErr),
			RollbackFailed: true,
		}
	}

	e.breaker.ClosePosition()
	e.breaker.ClosePosition()
	e.breaker.RecordError()

	err := cause
	if err == nil {
		err = fmt.Errorf("leg %s filled, counterparty leg failed; rolled back", filledLeg.Label)
	}
	return &PairedExecutionResult{Outcome: OutcomePartialFill, Error: err}
}

// calculatePnL computes the net dollar PnL of a binary pair fill: a
// complementary YES+NO pair always redeems for exactly $1 per contract at
// resolution, so the realized edge is 1 minus the cost to acquire both
// legs, minus taker fees on both legs.
func (e *PairedExecutor) calculatePnL(legA, legB Leg) float64 {
	totalCost := (legA.Price + legB.Price) * legA.Size
	fees := totalCost * e.takerFee
	grossProfit := (1.0 - (legA.Price + legB.Price)) * legA.Size
	return grossProfit - fees
}

func sideString(s model.Side) string {
	if s == model.SELL {
		return "SELL"
	}
	return "BUY"
}
