// Package nonce implements the lock-free order-nonce sequencer used when
// submitting signed orders to the CLOB. The venue requires a strictly
// increasing per-account nonce; this sequencer hands one out per order
// without ever taking a lock.
package nonce

import "sync/atomic"

// Sequencer is a single atomic counter. The zero value is ready to use and
// starts at nonce 0.
type Sequencer struct {
	next atomic.Uint64
}

// New returns a Sequencer initialized to start.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next nonce to use and advances the counter.
func (s *Sequencer) Next() uint64 {
	n := s.next.Add(1) - 1
	CurrentNonce.Set(float64(n + 1))
	return n
}

// Peek returns the next nonce that Next would return, without consuming it.
func (s *Sequencer) Peek() uint64 {
	return s.next.Load()
}

// Initialize force-sets the counter, used once at startup after querying
// the venue for the account's current nonce.
func (s *Sequencer) Initialize(n uint64) {
	s.next.Store(n)
}

// HandleConflict reconciles a nonce-conflict response from the venue. If
// the venue's expected nonce is at or ahead of our local counter, we were
// behind (another process advanced it, or we lost state) and must jump
// ahead to serverNonce+1. If the venue's expected nonce is behind ours, the
// conflict response is stale or out of order and is ignored: resetting
// backwards would let us hand out a nonce we already used.
func (s *Sequencer) HandleConflict(serverNonce uint64) {
	for {
		local := s.next.Load()
		if serverNonce < local {
			ConflictsTotal.WithLabelValues("stale-ignored").Inc()
			return
		}
		if s.next.CompareAndSwap(local, serverNonce+1) {
			ConflictsTotal.WithLabelValues("jumped-ahead").Inc()
			CurrentNonce.Set(float64(serverNonce + 1))
			return
		}
	}
}
