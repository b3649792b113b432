// Package monitoring provides Prometheus metrics for the messaging bridge.
//
// Metrics cover the full life of a message: sends per type and transport,
// reply correlation outcomes, timeouts, security rejections, and relay host
// connection counts. The collector takes an explicit Registerer so tests can
// instantiate it against a throwaway registry.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bridge.
type Metrics struct {
	// Dispatch metrics
	MessagesSent     *prometheus.CounterVec
	SendFailures     *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec

	// Correlation metrics
	RepliesMatched   prometheus.Counter
	RepliesUnmatched prometheus.Counter
	Timeouts         *prometheus.CounterVec
	PendingWaiters   prometheus.Gauge

	// Security metrics
	Violations         *prometheus.CounterVec
	ValidationFailures prometheus.Counter

	// Relay host metrics
	RelayConnections prometheus.Gauge
	RelayFrames      *prometheus.CounterVec
	RelayDropped     prometheus.Counter
}

// NewMetrics creates a metrics collector registered on reg. Pass
// prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_messages_sent_total",
				Help: "Total messages dispatched, by type and transport",
			},
			[]string{"type", "transport"},
		),
		SendFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_send_failures_total",
				Help: "Total sends rejected by the transport",
			},
			[]string{"transport"},
		),
		MessagesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_messages_received_total",
				Help: "Total inbound messages accepted by the relay",
			},
			[]string{"type"},
		),
		RepliesMatched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_replies_matched_total",
				Help: "Replies matched to a pending waiter",
			},
		),
		RepliesUnmatched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_replies_unmatched_total",
				Help: "Replies with unknown or already-settled request ids",
			},
		),
		Timeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_request_timeouts_total",
				Help: "Requests that timed out awaiting a reply, by type",
			},
			[]string{"type"},
		),
		PendingWaiters: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_pending_waiters",
				Help: "Requests currently awaiting a reply",
			},
		),
		Violations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_security_violations_total",
				Help: "Messages rejected as security violations, by reason",
			},
			[]string{"reason"},
		),
		ValidationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_validation_failures_total",
				Help: "Messages rejected for benign validation reasons",
			},
		),
		RelayConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_relay_connections",
				Help: "Websocket connections currently held by the relay host",
			},
		),
		RelayFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relay_frames_total",
				Help: "Frames forwarded by the relay host, by direction",
			},
			[]string{"direction"},
		),
		RelayDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_relay_dropped_total",
				Help: "Frames dropped by the relay host marker screening",
			},
		),
	}
}

// Nop returns a collector on a private registry, for components that were
// constructed without monitoring and for tests.
func Nop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
