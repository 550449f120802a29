// Package ledger tracks open positions across markets and tokens so the
// risk gate and the bot loop can answer "what do we currently hold"
// without replaying trade history. It is guarded by a single RWMutex, the
// same pattern the orderbook cache and the discovery service use for their
// maps: reads are frequent and cheap, writes are rare and brief.
package ledger

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// Position is one open position in a single token.
type Position struct {
	ID         string
	MarketID   string
	TokenID    string
	Outcome    string
	Side       string // "BUY" or "SELL"
	Size       float64
	EntryPrice float64
	CostBasis  float64
	OpenedAt   time.Time
}

// key identifies a position slot. A market can have at most one open
// position per token at a time; a new fill on the same token updates the
// existing entry instead of creating a second one.
type key struct {
	marketID string
	tokenID  string
}

// Ledger is an RWMutex-guarded map of open positions.
type Ledger struct {
	mu        sync.RWMutex
	positions map[key]*Position
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{positions: make(map[key]*Position)}
}

// Upsert records a new position or overwrites the existing one for the
// same (market, token) pair. The returned Position's ID is k-sortable by
// open time, so listing a ledger's entries in ID order is also chronological
// without a secondary sort key.
func (l *Ledger) Upsert(marketID, tokenID, outcome, side string, size, entryPrice float64, openedAt time.Time) *Position {
	p := &Position{
		ID:         ksuid.New().String(),
		MarketID:   marketID,
		TokenID:    tokenID,
		Outcome:    outcome,
		Side:       side,
		Size:       size,
		EntryPrice: entryPrice,
		CostBasis:  size * entryPrice,
		OpenedAt:   openedAt,
	}
	l.mu.Lock()
	l.positions[key{marketID, tokenID}] = p
	l.mu.Unlock()
	return p
}

// Get returns the open position for (market, token), if any.
func (l *Ledger) Get(marketID, tokenID string) (*Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[key{marketID, tokenID}]
	return p, ok
}

// Remove closes out a position.
func (l *Ledger) Remove(marketID, tokenID string) {
	l.mu.Lock()
	delete(l.positions, key{marketID, tokenID})
	l.mu.Unlock()
}

// Count returns the number of open positions.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// TotalExposure returns the sum of cost bases across all open positions.
func (l *Ledger) TotalExposure() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total float64
	for _, p := range l.positions {
		total += p.CostBasis
	}
	return total
}

// PriceFunc looks up the current market price for a token, used to mark
// open positions for unrealized PnL.
type PriceFunc func(marketID, tokenID string) (float64, bool)

// TotalUnrealizedPnL marks every open position to the price returned by
// priceFn and sums the result. Positions priceFn cannot price are skipped.
func (l *Ledger) TotalUnrealizedPnL(priceFn PriceFunc) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total float64
	for _, p := range l.positions {
		price, ok := priceFn(p.MarketID, p.TokenID)
		if !ok {
			continue
		}
		switch p.Side {
		case "BUY":
			total += (price - p.EntryPrice) * p.Size
		case "SELL":
			total += (p.EntryPrice - price) * p.Size
		}
	}
	return total
}

// Snapshot returns a copy of every open position, safe to range over
// without holding the ledger's lock.
func (l *Ledger) Snapshot() []*Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Position, 0, len(l.positions))
	for _, p := range l.positions {
		cp := *p
		out = append(out, &cp)
	}
	return out
}
