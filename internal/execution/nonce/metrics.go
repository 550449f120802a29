package nonce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConflictsTotal counts nonce-conflict responses from the venue, split
	// by whether the sequencer jumped ahead or ignored a stale response.
	ConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_nonce_conflicts_total",
			Help: "Total number of nonce-conflict responses handled, by outcome",
		},
		[]string{"outcome"},
	)

	// CurrentNonce tracks the next nonce the sequencer will hand out.
	CurrentNonce = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_nonce_current",
		Help: "Next nonce value the sequencer will hand out",
	})
)
