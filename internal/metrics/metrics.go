// Package metrics exposes the relay's operational counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Signaling aggregates the relay-side instruments. One instance per
// process, registered on an injected registry so tests can use their
// own.
type Signaling struct {
	Connections    prometheus.Gauge
	ActiveSessions prometheus.Gauge
	RoutedTotal    *prometheus.CounterVec
	DroppedTotal   *prometheus.CounterVec
}

func NewSignaling(reg prometheus.Registerer) *Signaling {
	f := promauto.With(reg)
	return &Signaling{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Name: "peerline_connections",
			Help: "Currently registered signaling connections.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "peerline_sessions_active",
			Help: "Call sessions in ringing or active state.",
		}),
		RoutedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peerline_messages_routed_total",
			Help: "Signaling messages delivered, by event type.",
		}, []string{"event"}),
		DroppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peerline_messages_dropped_total",
			Help: "Signaling messages dropped, by reason.",
		}, []string{"reason"}),
	}
}
