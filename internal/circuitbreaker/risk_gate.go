package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// RiskConfig bounds what the risk gate will allow the bot loop to do in a
// trading day.
type RiskConfig struct {
	MaxDailyLossCents    uint64
	MaxPositionSizeCents uint64
	MaxOpenPositions     uint32
	MaxConsecutiveErrors uint32
}

// Breaker is a lock-free trip/reset risk gate: every field that is read on
// the hot path (CanExecute) is an atomic, so checking whether a trade is
// allowed never blocks on the same mutex that a slow daily-reset path might
// be holding.
type Breaker struct {
	cfg RiskConfig

	tripped           atomic.Bool
	consecutiveErrors atomic.Uint32
	openPositions     atomic.Uint32
	dailyLossCents    atomic.Uint64

	resetMu   sync.RWMutex
	lastReset time.Time
}

// NewBreaker constructs a Breaker starting untripped, with zeroed counters.
func NewBreaker(cfg RiskConfig, now time.Time) *Breaker {
	b := &Breaker{cfg: cfg}
	b.lastReset = now
	return b
}

// CanExecute reports whether a new trade may be submitted: the breaker must
// not be tripped, open positions must be under the configured maximum, and
// the consecutive-error count must be under the configured maximum.
func (b *Breaker) CanExecute() bool {
	if b.tripped.Load() {
		return false
	}
	if b.openPositions.Load() >= b.cfg.MaxOpenPositions {
		return false
	}
	if b.consecutiveErrors.Load() >= b.cfg.MaxConsecutiveErrors {
		return false
	}
	return true
}

// Trip permanently disables execution until Reset or ResetDaily is called.
func (b *Breaker) Trip() {
	if !b.tripped.Swap(true) {
		RiskGateTrippedTotal.Inc()
	}
}

// Reset clears the tripped flag without touching any counters.
func (b *Breaker) Reset() {
	b.tripped.Store(false)
}

// IsTripped reports the current tripped state.
func (b *Breaker) IsTripped() bool {
	return b.tripped.Load()
}

// OpenPosition reserves a position slot, rolling back, tripping the
// breaker, and returning false if doing so would exceed MaxOpenPositions.
// Callers must call OpenPosition before submitting an order and
// ClosePosition once it settles either way.
func (b *Breaker) OpenPosition() bool {
	n := b.openPositions.Add(1)
	if n > b.cfg.MaxOpenPositions {
		b.openPositions.Add(^uint32(0)) // -1
		b.Trip()
		return false
	}
	RiskGateOpenPositions.Set(float64(n))
	return true
}

// ClosePosition releases a reserved position slot. It saturates at zero so
// a duplicate or out-of-order close cannot underflow the counter.
func (b *Breaker) ClosePosition() {
	for {
		n := b.openPositions.Load()
		if n == 0 {
			return
		}
		if b.openPositions.CompareAndSwap(n, n-1) {
			RiskGateOpenPositions.Set(float64(n - 1))
			return
		}
	}
}

// OpenPositions returns the current open-position count.
func (b *Breaker) OpenPositions() uint32 {
	return b.openPositions.Load()
}

// RecordTrade records a trade's realized PnL in cents. A loss increases
// the running daily loss counter and trips the breaker once it reaches or
// exceeds the configured daily limit; a profit reduces the counter but never below
// zero, since a profitable day does not buy headroom for future losses
// beyond what the limit already allows.
func (b *Breaker) RecordTrade(pnlCents int64) {
	if pnlCents < 0 {
		loss := uint64(-pnlCents)
		newLoss := b.dailyLossCents.Add(loss)
		RiskGateDailyLossCents.Set(float64(newLoss))
		if newLoss >= b.cfg.MaxDailyLossCents {
			b.Trip()
		}
	} else {
		profit := uint64(pnlCents)
		for {
			cur := b.dailyLossCents.Load()
			var next uint64
			if profit >= cur {
				next = 0
			} else {
				next = cur - profit
			}
			if b.dailyLossCents.CompareAndSwap(cur, next) {
				RiskGateDailyLossCents.Set(float64(next))
				break
			}
		}
	}
	b.consecutiveErrors.Store(0)
	RiskGateConsecutiveErrors.Set(0)
}

// RecordError increments the consecutive-error count, tripping the breaker
// once it reaches MaxConsecutiveErrors.
func (b *Breaker) RecordError() {
	n := b.consecutiveErrors.Add(1)
	RiskGateConsecutiveErrors.Set(float64(n))
	if n >= b.cfg.MaxConsecutiveErrors {
		b.Trip()
	}
}

// DailyLossCents returns the current running daily loss.
func (b *Breaker) DailyLossCents() uint64 {
	return b.dailyLossCents.Load()
}

// ConsecutiveErrors returns the current consecutive-error count.
func (b *Breaker) ConsecutiveErrors() uint32 {
	return b.consecutiveErrors.Load()
}

// ResetDaily clears the daily loss counter, the tripped flag, and the
// consecutive-error count, and records the reset time. It is intended to
// run once per UTC day.
func (b *Breaker) ResetDaily(now time.Time) {
	b.dailyLossCents.Store(0)
	b.consecutiveErrors.Store(0)
	b.tripped.Store(false)

	b.resetMu.Lock()
	b.lastReset = now
	b.resetMu.Unlock()
}

// LastReset returns the time of the last daily reset.
func (b *Breaker) LastReset() time.Time {
	b.resetMu.RLock()
	defer b.resetMu.RUnlock()
	return b.lastReset
}

// AutoReset resets the daily counters if cooldown has elapsed since the
// last reset and the current daily loss is under 90% of the configured
// limit — a safety margin so auto-reset never masks a breaker that is
// still meaningfully near its trip point.
func (b *Breaker) AutoReset(now time.Time, cooldown time.Duration) bool {
	if now.Sub(b.LastReset()) < cooldown {
		return false
	}
	safetyMargin := b.cfg.MaxDailyLossCents * 9 / 10
	if b.dailyLossCents.Load() >= safetyMargin {
		return false
	}
	b.ResetDaily(now)
	return true
}
