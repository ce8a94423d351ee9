package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks broadcast delivery and connection churn. All methods are
// safe on a nil receiver so the registry can run without a collector.
type Metrics struct {
	eventsSent        prometheus.Counter
	eventsDropped     prometheus.Counter
	connectionsTotal  prometheus.Counter
	activeConnections prometheus.Gauge
}

// NewMetrics registers broadcast metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "livescore_broadcast_events_sent_total",
			Help: "Events enqueued to client connections.",
		}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "livescore_broadcast_events_dropped_total",
			Help: "Events dropped because a client send buffer was full.",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "livescore_connections_total",
			Help: "Connections ever attached.",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livescore_connections_active",
			Help: "Currently attached connections.",
		}),
	}
}

func (m *Metrics) eventSent() {
	if m != nil {
		m.eventsSent.Inc()
	}
}

func (m *Metrics) eventDropped() {
	if m != nil {
		m.eventsDropped.Inc()
	}
}

func (m *Metrics) connectionOpened() {
	if m != nil {
		m.connectionsTotal.Inc()
		m.activeConnections.Inc()
	}
}

func (m *Metrics) connectionClosed() {
	if m != nil {
		m.activeConnections.Dec()
	}
}
