// Package redemption tracks winning-side positions that are waiting to be
// redeemed on-chain once their market resolves, and sweeps them
// periodically.
package redemption

import (
	"context"
	"sync"
	"time"
)

// RedeemablePosition is a position waiting to be redeemed once its market
// resolves.
type RedeemablePosition struct {
	MarketID       string
	Title          string
	YesTokenID     string
	NoTokenID      string
	Size           float64
	Cost           float64
	ExpectedProfit float64
	Expiry         *time.Time
	OpenedAt       time.Time
	Redeemed       bool
}

// IsReadyToRedeem reports whether the position has an expiry, has not
// already been redeemed, and that expiry has passed.
func (p *RedeemablePosition) IsReadyToRedeem(now time.Time) bool {
	if p.Redeemed || p.Expiry == nil {
		return false
	}
	return !now.Before(*p.Expiry)
}

// TimeUntilExpiry returns how long remains until the position's expiry, or
// false if it has no expiry set.
func (p *RedeemablePosition) TimeUntilExpiry(now time.Time) (time.Duration, bool) {
	if p.Expiry == nil {
		return 0, false
	}
	return p.Expiry.Sub(now), true
}

// Redeemer submits the on-chain redemption for a resolved market position.
type Redeemer interface {
	Redeem(ctx context.Context, marketID, yesTokenID, noTokenID string, size float64) error
}

// Tracker holds every position awaiting redemption, keyed by market.
type Tracker struct {
	mu        sync.RWMutex
	positions map[string]*RedeemablePosition
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{positions: make(map[string]*RedeemablePosition)}
}

// AddPosition records a position to track for redemption.
func (t *Tracker) AddPosition(p *RedeemablePosition) {
	t.mu.Lock()
	t.positions[p.MarketID] = p
	t.mu.Unlock()
}

// GetRedeemablePositions returns every tracked position that is ready to
// redeem right now.
func (t *Tracker) GetRedeemablePositions(now time.Time) []*RedeemablePosition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ready []*RedeemablePosition
	for _, p := range t.positions {
		if p.IsReadyToRedeem(now) {
			ready = append(ready, p)
		}
	}
	return ready
}

// MarkRedeemed flags a market's position as redeemed.
func (t *Tracker) MarkRedeemed(marketID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.positions[marketID]; ok {
		p.Redeemed = true
	}
}

// PositionCount returns the total number of tracked positions, redeemed or
// not.
func (t *Tracker) PositionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}

// UnredeemedCount returns the number of tracked positions not yet redeemed.
func (t *Tracker) UnredeemedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, p := range t.positions {
		if !p.Redeemed {
			n++
		}
	}
	return n
}

// RedeemPosition redeems a single market's position if it is ready and has
// not already been redeemed, marking it redeemed on success.
func (t *Tracker) RedeemPosition(ctx context.Context, marketID string, redeemer Redeemer, now time.Time) error {
	t.mu.RLock()
	p, ok := t.positions[marketID]
	t.mu.RUnlock()
	if !ok {
		return nil
	}
	if p.Redeemed || !p.IsReadyToRedeem(now) {
		return nil
	}
	if err := redeemer.Redeem(ctx, p.MarketID, p.YesTokenID, p.NoTokenID, p.Size); err != nil {
		return err
	}
	t.MarkRedeemed(marketID)
	return nil
}

// AutoRedeemAll sweeps every ready position and redeems it, continuing past
// individual failures and returning the set of market IDs that failed.
func (t *Tracker) AutoRedeemAll(ctx context.Context, redeemer Redeemer, now time.Time) map[string]error {
	ready := t.GetRedeemablePositions(now)
	failures := make(map[string]error)
	for _, p := range ready {
		if err := t.RedeemPosition(ctx, p.MarketID, redeemer, now); err != nil {
			failures[p.MarketID] = err
		}
	}
	return failures
}
