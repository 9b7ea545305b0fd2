package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftgate_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"kind", "status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "driftgate_quote_duration_seconds",
		Help:    "Route quote duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// Swap metrics
	SwapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftgate_swap_requests_total",
			Help: "Total number of swap-and-bridge operations",
		},
		[]string{"entry", "status"},
	)

	SwapDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "driftgate_swap_duration_seconds",
		Help:    "End-to-end swap-and-bridge duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	SwapHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "driftgate_swap_hops",
		Help:    "Number of pool hops per executed route",
		Buckets: []float64{1, 2, 3},
	})

	// Bridge metrics
	BridgeTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driftgate_bridge_transfers_total",
		Help: "Total number of remote transfers dispatched",
	})

	BridgeRefunds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driftgate_bridge_refunds_total",
		Help: "Total number of native fee refunds issued",
	})

	// Security metrics
	CallbackRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driftgate_callback_rejections_total",
		Help: "Total number of settlement callbacks rejected by the authorization slot",
	})

	ReentrancyRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driftgate_reentrancy_rejections_total",
		Help: "Total number of operations rejected by the reentrancy guard",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "driftgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
