package metrics_test

import (
	"testing"

	"github.com/ockamio/ockam/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	registry := prometheus.NewRegistry()
	return metrics.New(registry)
}

func TestObserveMailboxSize(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveMailboxSize("0#worker.1", 7)

	got := testutil.ToFloat64(m.MailboxSize.WithLabelValues("0#worker.1"))
	if got != 7 {
		t.Errorf("MailboxSize = %v, want 7", got)
	}
}

func TestObserveRegistrySize(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveRegistrySize(42)

	if got := testutil.ToFloat64(m.RegistrySize); got != 42 {
		t.Errorf("RegistrySize = %v, want 42", got)
	}
}

func TestObserveDropIncrementsByReason(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveDrop("0#worker.1", "unauthorized")
	m.ObserveDrop("0#worker.1", "unauthorized")
	m.ObserveDrop("0#worker.1", "decode_failed")

	if got := testutil.ToFloat64(m.DropsTotal.WithLabelValues("0#worker.1", "unauthorized")); got != 2 {
		t.Errorf("DropsTotal[unauthorized] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DropsTotal.WithLabelValues("0#worker.1", "decode_failed")); got != 1 {
		t.Errorf("DropsTotal[decode_failed] = %v, want 1", got)
	}
}

func TestRecordTransportBytes(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordTransportBytesIn("tcp", 128)
	m.RecordTransportBytesIn("tcp", 32)
	m.RecordTransportBytesOut("tcp", 64)

	if got := testutil.ToFloat64(m.TransportBytesIn.WithLabelValues("tcp")); got != 160 {
		t.Errorf("TransportBytesIn[tcp] = %v, want 160", got)
	}
	if got := testutil.ToFloat64(m.TransportBytesOut.WithLabelValues("tcp")); got != 64 {
		t.Errorf("TransportBytesOut[tcp] = %v, want 64", got)
	}
}

func TestRecordHandshakeOutcome(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordHandshake("initiator", "ready")
	m.RecordHandshake("initiator", "ready")
	m.RecordHandshake("responder", "timeout")

	if got := testutil.ToFloat64(m.HandshakesTotal.WithLabelValues("initiator", "ready")); got != 2 {
		t.Errorf("HandshakesTotal[initiator,ready] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.HandshakesTotal.WithLabelValues("responder", "timeout")); got != 1 {
		t.Errorf("HandshakesTotal[responder,timeout] = %v, want 1", got)
	}
}

func TestCustomCounterAndGaugeAreCachedByName(t *testing.T) {
	m := newTestMetrics(t)

	c1 := m.Counter("ockam_custom_total", "a custom counter", "label")
	c2 := m.Counter("ockam_custom_total", "a custom counter", "label")
	if c1 != c2 {
		t.Error("Counter should return the same vector for a repeated name")
	}

	g1 := m.Gauge("ockam_custom_gauge", "a custom gauge", "label")
	g2 := m.Gauge("ockam_custom_gauge", "a custom gauge", "label")
	if g1 != g2 {
		t.Error("Gauge should return the same vector for a repeated name")
	}
}
