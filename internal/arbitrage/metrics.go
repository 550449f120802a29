package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesDetectedTotal tracks arbitrage opportunities detected.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities detected",
	})

	// OpportunityProfitBPS tracks profit margins in basis points.
	OpportunityProfitBPS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_arb_opportunity_profit_bps",
		Help:    "Arbitrage opportunity profit margin in basis points",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// OpportunitySizeUSD tracks trade sizes.
	OpportunitySizeUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_arb_opportunity_size_usd",
		Help:    "Arbitrage opportunity trade size in USD",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10, 20, 40, ..., 5120
	})

	// DetectionDurationSeconds tracks detection loop latency.
	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_arb_detection_duration_seconds",
		Help:    "Duration of arbitrage detection loop",
		Buckets: prometheus.DefBuckets,
	})

	// OpportunitiesRejectedTotal tracks rejected opportunities by reason.
	OpportunitiesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_arb_opportunities_rejected_total",
			Help: "Total number of arbitrage opportunities rejected",
		},
		[]string{"reason"},
	)

	// NetProfitBPS tracks net profit after fees in basis points.
	NetProfitBPS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_arb_net_profit_bps",
		Help:    "Arbitrage opportunity net profit after fees in basis points",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// EndToEndLatencySeconds tracks orderbook update to opportunity detection latency.
	EndToEndLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_arb_e2e_latency_seconds",
		Help:    "End-to-end latency from orderbook update to opportunity detection",
		Buckets: []float64{0.0001, 0.0002, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	// CrossedBooksDetectedTotal counts single-token crossed-book opportunities.
	CrossedBooksDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_crossed_books_detected_total",
		Help: "Total number of single-token crossed-book opportunities detected",
	})

	// BinaryOpportunitiesDetectedTotal counts binary-pair opportunities by direction.
	BinaryOpportunitiesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_arb_binary_opportunities_detected_total",
			Help: "Total number of binary-pair opportunities detected, by direction",
		},
		[]string{"direction"},
	)

	// SIMDBatchScanDurationSeconds tracks the four-wide batch scan's latency.
	SIMDBatchScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_arb_simd_batch_scan_duration_seconds",
		Help:    "Duration of a single SIMD batch crossed-book scan",
		Buckets: prometheus.DefBuckets,
	})

	// SIMDBatchLanesScannedTotal counts total lanes (tokens) scanned across all batches.
	SIMDBatchLanesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_simd_batch_lanes_scanned_total",
		Help: "Total number of token lanes scanned by the SIMD batch detector",
	})

	// PairedOpportunitiesQueuedTotal counts two-leg opportunities (binary-buy
	// or crossed-book) handed off to the paired executor, by kind.
	PairedOpportunitiesQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_arb_paired_opportunities_queued_total",
			Help: "Total number of two-leg opportunities queued for paired execution, by kind",
		},
		[]string{"kind"},
	)

	// PairedOpportunityChannelFullTotal counts paired opportunities dropped
	// because the consumer fell behind.
	PairedOpportunityChannelFullTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_arb_paired_opportunity_channel_full_total",
		Help: "Total number of paired opportunities dropped because the channel was full",
	})
)
