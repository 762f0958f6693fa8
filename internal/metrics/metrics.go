// Package metrics exposes server counters via Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors. All record methods are
// safe on a nil receiver so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	connectionsActive    prometheus.Gauge
	identitiesRegistered prometheus.Gauge
	messagesTotal        *prometheus.CounterVec
	broadcastsTotal      prometheus.Counter
	commandErrorsTotal   prometheus.Counter
}

// New builds a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		registry: reg,
		connectionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "mircbook_connections_active",
			Help: "Currently open client connections",
		}),
		identitiesRegistered: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "mircbook_identities_registered",
			Help: "Currently registered identities",
		}),
		messagesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mircbook_messages_total",
			Help: "Messages accepted by the dispatcher",
		}, []string{"kind"}),
		broadcastsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mircbook_broadcasts_total",
			Help: "Fan-out deliveries attempted",
		}),
		commandErrorsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mircbook_command_errors_total",
			Help: "Commands rejected with an ERROR frame",
		}),
	}
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connectionsActive.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connectionsActive.Dec()
	}
}

func (m *Metrics) IdentityRegistered() {
	if m != nil {
		m.identitiesRegistered.Inc()
	}
}

func (m *Metrics) IdentityUnregistered() {
	if m != nil {
		m.identitiesRegistered.Dec()
	}
}

// MessageAccepted records a delivered message; kind is "channel" or "direct".
func (m *Metrics) MessageAccepted(kind string) {
	if m != nil {
		m.messagesTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) BroadcastSent() {
	if m != nil {
		m.broadcastsTotal.Inc()
	}
}

func (m *Metrics) CommandRejected() {
	if m != nil {
		m.commandErrorsTotal.Inc()
	}
}
