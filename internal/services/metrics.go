package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// transitionsTotal counts committed lifecycle transitions by operation
	// and resulting status.
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_transitions_total",
			Help: "Committed rental transaction transitions.",
		},
		[]string{"op", "to"},
	)

	// gatewayCalls counts payment gateway calls by operation and outcome
	// (ok|error|timeout).
	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_calls_total",
			Help: "Payment gateway calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_duration_seconds",
			Help:    "Latency of payment gateway calls in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	// paymentReplays counts confirm/cancel calls answered from an already
	// terminal payment.
	paymentReplays = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_replays_total",
			Help: "Idempotent confirm/cancel replays.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(transitionsTotal, gatewayCalls, gatewayLatency, paymentReplays)
}
