package circuitbreaker

import (
	"sync"
	"testing"
	"time"
)

func testRiskConfig() RiskConfig {
	return RiskConfig{
		MaxDailyLossCents:    10_000,
		MaxPositionSizeCents: 5_000,
		MaxOpenPositions:     5,
		MaxConsecutiveErrors: 10,
	}
}

func TestCanExecuteInitial(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	if !b.CanExecute() {
		t.Error("expected a fresh breaker to allow execution")
	}
}

func TestTripAndReset(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	b.Trip()
	if b.CanExecute() {
		t.Error("expected tripped breaker to block execution")
	}
	b.Reset()
	if !b.CanExecute() {
		t.Error("expected reset breaker to allow execution")
	}
}

func TestRecordLoss(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	b.RecordTrade(-500)
	if got := b.DailyLossCents(); got != 500 {
		t.Errorf("DailyLossCents() = %d, want 500", got)
	}
}

func TestRecordProfitDoesNotGoNegative(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	b.RecordTrade(-300)
	b.RecordTrade(1000)
	if got := b.DailyLossCents(); got != 0 {
		t.Errorf("DailyLossCents() = %d, want 0 (clamped)", got)
	}
}

func TestDailyLossLimitTrips(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	b.RecordTrade(-10_000)
	if !b.IsTripped() {
		t.Error("expected breaker to trip at the daily loss limit")
	}
}

func TestPositionTracking(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	if !b.OpenPosition() {
		t.Fatal("expected first OpenPosition to succeed")
	}
	if got := b.OpenPositions(); got != 1 {
		t.Errorf("OpenPositions() = %d, want 1", got)
	}
	b.ClosePosition()
	if got := b.OpenPositions(); got != 0 {
		t.Errorf("OpenPositions() after close = %d, want 0", got)
	}
}

func TestMaxPositionsLimitRollsBack(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MaxOpenPositions = 5
	b := NewBreaker(cfg, time.Now())
	for i := 0; i < 5; i++ {
		if !b.OpenPosition() {
			t.Fatalf("expected OpenPosition %d to succeed", i)
		}
	}
	if b.OpenPosition() {
		t.Error("expected 6th OpenPosition to fail")
	}
	if got := b.OpenPositions(); got != 5 {
		t.Errorf("OpenPositions() after rollback = %d, want 5", got)
	}
	if !b.IsTripped() {
		t.Error("expected breaker to trip after exceeding MaxOpenPositions")
	}
}

func TestConsecutiveErrorsTrips(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MaxConsecutiveErrors = 10
	b := NewBreaker(cfg, time.Now())
	for i := 0; i < 9; i++ {
		b.RecordError()
	}
	if b.IsTripped() {
		t.Error("should not trip before reaching the limit")
	}
	b.RecordError()
	if !b.IsTripped() {
		t.Error("expected breaker to trip at the consecutive error limit")
	}
}

func TestErrorResetOnTrade(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	b.RecordError()
	b.RecordError()
	b.RecordTrade(100)
	if got := b.ConsecutiveErrors(); got != 0 {
		t.Errorf("ConsecutiveErrors() after trade = %d, want 0", got)
	}
}

func TestDailyReset(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	b.RecordTrade(-5_000)
	b.Trip()
	now := time.Now()
	b.ResetDaily(now)
	if b.IsTripped() {
		t.Error("expected ResetDaily to clear tripped flag")
	}
	if got := b.DailyLossCents(); got != 0 {
		t.Errorf("DailyLossCents() after reset = %d, want 0", got)
	}
}

func TestAutoResetRespectsCooldown(t *testing.T) {
	start := time.Now()
	b := NewBreaker(testRiskConfig(), start)
	if b.AutoReset(start.Add(time.Second), time.Hour) {
		t.Error("expected AutoReset to refuse before cooldown elapses")
	}
}

func TestAutoResetRespectsSafetyMargin(t *testing.T) {
	start := time.Now()
	cfg := testRiskConfig()
	b := NewBreaker(cfg, start)
	b.RecordTrade(-9_500) // 95% of the 10,000 limit, above the 90% margin
	if b.AutoReset(start.Add(2*time.Hour), time.Hour) {
		t.Error("expected AutoReset to refuse within 90% of the daily loss limit")
	}
}

func TestConcurrentAccess(t *testing.T) {
	b := NewBreaker(testRiskConfig(), time.Now())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.CanExecute()
			b.RecordTrade(-1)
			if b.OpenPosition() {
				b.ClosePosition()
			}
		}()
	}
	wg.Wait()
	if got := b.OpenPositions(); got != 0 {
		t.Errorf("OpenPositions() after concurrent access = %d, want 0", got)
	}
}
