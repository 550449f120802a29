package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arbit-labs/clobarb/internal/circuitbreaker"
	"github.com/arbit-labs/clobarb/internal/ledger"
	"github.com/arbit-labs/clobarb/pkg/types"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"
)

type fakeSubmitter struct {
	respA, respB *types.OrderSubmissionResponse
	submitErr    error
	cancelErr    error
	cancelCalls  []string
}

func (f *fakeSubmitter) PlaceOrdersBatch(ctx context.Context, tokenAID, tokenBID string, sideA, sideB model.Side, size, priceA, priceB, tickA, minA, tickB, minB float64) (*types.OrderSubmissionResponse, *types.OrderSubmissionResponse, error) {
	return f.respA, f.respB, f.submitErr
}

func (f *fakeSubmitter) CancelOrder(ctx context.Context, orderID string) error {
	f.cancelCalls = append(f.cancelCalls, orderID)
	return f.cancelErr
}

func testRiskConfigForExecutor() circuitbreaker.RiskConfig {
	return circuitbreaker.RiskConfig{
		MaxDailyLossCents:   100000,
		MaxPositionSizeCents: 100000,
		MaxOpenPositions:     10,
		MaxConsecutiveErrors: 10,
	}
}

func legPair() (Leg, Leg) {
	legA := Leg{TokenID: "yes", Side: model.BUY, Price: 0.40, Size: 10, TickSize: 0.01, MinSize: 1, Label: "YES"}
	legB := Leg{TokenID: "no", Side: model.BUY, Price: 0.50, Size: 10, TickSize: 0.01, MinSize: 1, Label: "NO"}
	return legA, legB
}

func TestPairedExecuteBothSucceeded(t *testing.T) {
	sub := &fakeSubmitter{
		respA: &types.OrderSubmissionResponse{Success: true, OrderID: "order-a"},
		respB: &types.OrderSubmissionResponse{Success: true, OrderID: "order-b"},
	}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	ledg := ledger.New()
	exec := NewPairedExecutor(sub, breaker, ledg, zap.NewNop(), 0.02)

	legA, legB := legPair()
	res := exec.Execute(context.Background(), "m1", legA, legB)

	if res.Outcome != OutcomeBothSucceeded {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomeBothSucceeded)
	}
	if res.Error != nil {
		t.Errorf("unexpected error: %v", res.Error)
	}
	if breaker.OpenPositions() != 0 {
		t.Errorf("OpenPositions = %d, want 0 after both legs closed", breaker.OpenPositions())
	}
	if ledg.Count() != 2 {
		t.Errorf("ledger Count = %d, want 2", ledg.Count())
	}
	wantProfit := (1.0 - (legA.Price + legB.Price)) * legA.Size
	wantProfit -= (legA.Price + legB.Price) * legA.Size * 0.02
	if diffFloat(res.NetProfit, wantProfit) > 1e-9 {
		t.Errorf("NetProfit = %v, want %v", res.NetProfit, wantProfit)
	}
}

func TestPairedExecutePartialFillRollsBack(t *testing.T) {
	sub := &fakeSubmitter{
		respA: &types.OrderSubmissionResponse{Success: true, OrderID: "order-a"},
		respB: &types.OrderSubmissionResponse{Success: false},
	}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	ledg := ledger.New()
	exec := NewPairedExecutor(sub, breaker, ledg, zap.NewNop(), 0.02)

	legA, legB := legPair()
	res := exec.Execute(context.Background(), "m1", legA, legB)

	if res.Outcome != OutcomePartialFill {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomePartialFill)
	}
	if res.RollbackFailed {
		t.Error("RollbackFailed should be false when cancel succeeds")
	}
	if len(sub.cancelCalls) != 1 || sub.cancelCalls[0] != "order-a" {
		t.Errorf("cancelCalls = %v, want [order-a]", sub.cancelCalls)
	}
	if breaker.OpenPositions() != 0 {
		t.Errorf("OpenPositions = %d, want 0 after rollback", breaker.OpenPositions())
	}
	if breaker.IsTripped() {
		t.Error("breaker should not trip when rollback cancel succeeds")
	}
	if breaker.ConsecutiveErrors() != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", breaker.ConsecutiveErrors())
	}
}

func TestPairedExecutePartialFillCancelFailsTripsBreaker(t *testing.T) {
	sub := &fakeSubmitter{
		respA: &types.OrderSubmissionResponse{Success: false},
		respB: &types.OrderSubmissionResponse{Success: true, OrderID: "order-b"},
		cancelErr: errors.New("network down"),
	}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	ledg := ledger.New()
	exec := NewPairedExecutor(sub, breaker, ledg, zap.NewNop(), 0.02)

	legA, legB := legPair()
	res := exec.Execute(context.Background(), "m1", legA, legB)

	if res.Outcome != OutcomePartialFill {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomePartialFill)
	}
	if !res.RollbackFailed {
		t.Error("RollbackFailed should be true when cancel itself fails")
	}
	if !breaker.IsTripped() {
		t.Error("breaker must trip when a filled leg cannot be rolled back")
	}
	if len(sub.cancelCalls) != 1 || sub.cancelCalls[0] != "order-b" {
		t.Errorf("cancelCalls = %v, want [order-b]", sub.cancelCalls)
	}
}

func TestPairedExecuteBothFailed(t *testing.T) {
	sub := &fakeSubmitter{
		respA: &types.OrderSubmissionResponse{Success: false},
		respB: &types.OrderSubmissionResponse{Success: false},
	}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	ledg := ledger.New()
	exec := NewPairedExecutor(sub, breaker, ledg, zap.NewNop(), 0.02)

	legA, legB := legPair()
	res := exec.Execute(context.Background(), "m1", legA, legB)

	if res.Outcome != OutcomeBothFailed {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomeBothFailed)
	}
	if len(sub.cancelCalls) != 0 {
		t.Errorf("cancelCalls = %v, want none when neither leg filled", sub.cancelCalls)
	}
	if breaker.OpenPositions() != 0 {
		t.Errorf("OpenPositions = %d, want 0", breaker.OpenPositions())
	}
	if breaker.ConsecutiveErrors() != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", breaker.ConsecutiveErrors())
	}
}

func TestPairedExecuteRiskGateClosed(t *testing.T) {
	sub := &fakeSubmitter{}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	breaker.Trip()
	ledg := ledger.New()
	exec := NewPairedExecutor(sub, breaker, ledg, zap.NewNop(), 0.02)

	legA, legB := legPair()
	res := exec.Execute(context.Background(), "m1", legA, legB)

	if res.Outcome != OutcomeBothFailed {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomeBothFailed)
	}
	if len(sub.cancelCalls) != 0 {
		t.Error("no cancel should be issued when the risk gate is closed")
	}
}

func TestPairedCalculatePnL(t *testing.T) {
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	exec := NewPairedExecutor(&fakeSubmitter{}, breaker, ledger.New(), zap.NewNop(), 0.0)
	legA := Leg{Price: 0.40, Size: 10}
	legB := Leg{Price: 0.50, Size: 10}
	got := exec.calculatePnL(legA, legB)
	want := 1.0
	if diffFloat(got, want) > 1e-9 {
		t.Errorf("calculatePnL = %v, want %v", got, want)
	}
}

func crossedLegPair() (Leg, Leg) {
	buyLeg := Leg{TokenID: "tok", Side: model.BUY, Price: 0.40, Size: 10, TickSize: 0.01, MinSize: 1, Label: "BUY"}
	sellLeg := Leg{TokenID: "tok", Side: model.SELL, Price: 0.45, Size: 10, TickSize: 0.01, MinSize: 1, Label: "SELL"}
	return buyLeg, sellLeg
}

func TestPairedExecuteCrossedBothSucceeded(t *testing.T) {
	sub := &fakeSubmitter{
		respA: &types.OrderSubmissionResponse{Success: true, OrderID: "order-buy"},
		respB: &types.OrderSubmissionResponse{Success: true, OrderID: "order-sell"},
	}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	ledg := ledger.New()
	ledg.Upsert("m1", "tok", "", "BUY", 10, 0.40, time.Now())
	exec := NewPairedExecutor(sub, breaker, ledg, zap.NewNop(), 0.02)

	buyLeg, sellLeg := crossedLegPair()
	res := exec.ExecuteCrossed(context.Background(), "m1", buyLeg, sellLeg)

	if res.Outcome != OutcomeBothSucceeded {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomeBothSucceeded)
	}
	wantProfit := (sellLeg.Price-buyLeg.Price)*buyLeg.Size - (buyLeg.Price+sellLeg.Price)*buyLeg.Size*0.02
	if diffFloat(res.NetProfit, wantProfit) > 1e-9 {
		t.Errorf("NetProfit = %v, want %v", res.NetProfit, wantProfit)
	}
	if ledg.Count() != 0 {
		t.Errorf("ledger Count = %d, want 0 after flat crossed trade", ledg.Count())
	}
}

func TestPairedExecuteCrossedPartialFillRollsBack(t *testing.T) {
	sub := &fakeSubmitter{
		respA: &types.OrderSubmissionResponse{Success: true, OrderID: "order-buy"},
		respB: &types.OrderSubmissionResponse{Success: false},
	}
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	exec := NewPairedExecutor(sub, breaker, ledger.New(), zap.NewNop(), 0.02)

	buyLeg, sellLeg := crossedLegPair()
	res := exec.ExecuteCrossed(context.Background(), "m1", buyLeg, sellLeg)

	if res.Outcome != OutcomePartialFill {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, OutcomePartialFill)
	}
	if len(sub.cancelCalls) != 1 || sub.cancelCalls[0] != "order-buy" {
		t.Errorf("cancelCalls = %v, want [order-buy]", sub.cancelCalls)
	}
}

func TestCalculateCrossedPnL(t *testing.T) {
	breaker := circuitbreaker.NewBreaker(testRiskConfigForExecutor(), time.Now())
	exec := NewPairedExecutor(&fakeSubmitter{}, breaker, ledger.New(), zap.NewNop(), 0.0)
	buyLeg := Leg{Price: 0.40, Size: 10}
	sellLeg := Leg{Price: 0.45, Size: 10}
	got := exec.calculateCrossedPnL(buyLeg, sellLeg)
	want := 0.5
	if diffFloat(got, want) > 1e-9 {
		t.Errorf("calculateCrossedPnL = %v, want %v", got, want)
	}
}

func diffFloat(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
