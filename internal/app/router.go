package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/core"
	"github.com/vchern/peerline/internal/domain"
	"github.com/vchern/peerline/internal/metrics"
)

// Router is the pure dispatch layer: it resolves a target through the
// registry and hands the encoded frame to that connection. Delivery is
// fire-and-forget; a frame for an unknown target or a backpressured
// connection is dropped, never retried.
type Router struct {
	reg *Registry
	m   *metrics.Signaling
}

func NewRouter(reg *Registry, m *metrics.Signaling) *Router {
	return &Router{reg: reg, m: m}
}

// Unicast delivers one event to exactly one identifier. Returns false
// when the target did not resolve or refused the frame.
func (rt *Router) Unicast(to domain.PeerID, event string, v any) bool {
	f, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("event", event).Msg("encode")
		return false
	}
	conn, ok := rt.reg.Resolve(to)
	if !ok {
		log.Warn().Str("module", "app.router").Str("event", event).Str("target", string(to)).Msg("unicast target unknown, dropped")
		rt.m.DroppedTotal.WithLabelValues("unknown_target").Inc()
		return false
	}
	if err := conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("event", event).Str("target", string(to)).Msg("unicast send failed, dropped")
		rt.m.DroppedTotal.WithLabelValues("backpressure").Inc()
		return false
	}
	rt.m.RoutedTotal.WithLabelValues(event).Inc()
	return true
}

// BroadcastOthers delivers one event to every live connection except
// the sender's. Returns the number of successful deliveries.
func (rt *Router) BroadcastOthers(from domain.PeerID, event string, v any) int {
	f, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("event", event).Msg("encode")
		return 0
	}
	sent := 0
	for _, snap := range rt.reg.Others(from) {
		if err := snap.Conn.TrySend(f); err != nil {
			rt.m.DroppedTotal.WithLabelValues("backpressure").Inc()
			continue
		}
		sent++
	}
	if sent > 0 {
		rt.m.RoutedTotal.WithLabelValues(event).Add(float64(sent))
	}
	log.Debug().Str("module", "app.router").Str("event", event).Str("from", string(from)).Int("sent_to", sent).Msg("broadcast result")
	return sent
}

func encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
