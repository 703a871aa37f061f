// Package metrics is a Prometheus-backed node.MetricsSink: mailbox depth,
// router registry size, and mailbox drops, plus counters for bytes moved by
// transports and for handshake outcomes that do not fit the MetricsSink
// interface's three methods. No transport or secure channel package in this
// module updates those extra counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultRegistry is the registry Metrics registers into when no other
// registerer is given.
var DefaultRegistry = prometheus.NewRegistry()

// DefaultRegisterer wraps DefaultRegistry with a constant service label, so
// metrics from more than one ockam node in a single scrape target can still
// be told apart.
var DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "ockam"}, DefaultRegistry)

// Metrics is a node.MetricsSink implementation plus the extra transport
// byte and handshake counters behind RecordTransportBytesIn/Out and
// RecordHandshake.
type Metrics struct {
	MailboxSize   *prometheus.GaugeVec
	RegistrySize  prometheus.Gauge
	DropsTotal    *prometheus.CounterVec

	TransportBytesIn  *prometheus.CounterVec
	TransportBytesOut *prometheus.CounterVec

	HandshakesTotal *prometheus.CounterVec

	mu       sync.RWMutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

// New creates a Metrics collection registered into registerer. A nil
// registerer uses DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}

	return &Metrics{
		MailboxSize: promauto.With(registerer).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ockam_mailbox_size",
				Help: "Number of undelivered messages queued in a worker's mailbox.",
			},
			[]string{"address"},
		),
		RegistrySize: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "ockam_router_registry_size",
				Help: "Number of address sets currently registered in the router.",
			},
		),
		DropsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ockam_mailbox_drops_total",
				Help: "Total number of messages dropped instead of delivered.",
			},
			[]string{"address", "reason"},
		),
		TransportBytesIn: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ockam_transport_bytes_in_total",
				Help: "Total bytes read off the wire, by transport type.",
			},
			[]string{"transport"},
		),
		TransportBytesOut: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ockam_transport_bytes_out_total",
				Help: "Total bytes written to the wire, by transport type.",
			},
			[]string{"transport"},
		),
		HandshakesTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ockam_securechannel_handshakes_total",
				Help: "Total secure channel handshakes, by role and outcome.",
			},
			[]string{"role", "outcome"},
		),
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
	}
}

// ObserveMailboxSize implements node.MetricsSink.
func (m *Metrics) ObserveMailboxSize(address string, size int) {
	m.MailboxSize.WithLabelValues(address).Set(float64(size))
}

// ObserveRegistrySize implements node.MetricsSink.
func (m *Metrics) ObserveRegistrySize(n int) {
	m.RegistrySize.Set(float64(n))
}

// ObserveDrop implements node.MetricsSink.
func (m *Metrics) ObserveDrop(address, reason string) {
	m.DropsTotal.WithLabelValues(address, reason).Inc()
}

// RecordTransportBytesIn adds n to the bytes-read counter for transport.
// No transport in this module calls it.
func (m *Metrics) RecordTransportBytesIn(transport string, n int) {
	m.TransportBytesIn.WithLabelValues(transport).Add(float64(n))
}

// RecordTransportBytesOut adds n to the bytes-written counter for
// transport. No transport in this module calls it.
func (m *Metrics) RecordTransportBytesOut(transport string, n int) {
	m.TransportBytesOut.WithLabelValues(transport).Add(float64(n))
}

// RecordHandshake counts one secure channel handshake outcome for role.
// The secure channel package does not call it.
func (m *Metrics) RecordHandshake(role, outcome string) {
	m.HandshakesTotal.WithLabelValues(role, outcome).Inc()
}

// Counter returns (creating if necessary) a custom counter vector, for
// call sites outside this package's fixed set of metrics.
func (m *Metrics) Counter(name, help string, labels ...string) *prometheus.CounterVec {
	m.mu.RLock()
	if c, ok := m.counters[name]; ok {
		m.mu.RUnlock()
		return c
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c := promauto.With(DefaultRegisterer).NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	m.counters[name] = c
	return c
}

// Gauge returns (creating if necessary) a custom gauge vector.
func (m *Metrics) Gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	m.mu.RLock()
	if g, ok := m.gauges[name]; ok {
		m.mu.RUnlock()
		return g
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.gauges[name]; ok {
		return g
	}
	g := promauto.With(DefaultRegisterer).NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	m.gauges[name] = g
	return g
}
