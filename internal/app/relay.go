package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/core"
	"github.com/vchern/peerline/internal/domain"
	"github.com/vchern/peerline/internal/metrics"
)

// MediaChange carries one inbound media toggle in its wire shape plus
// the parsed kind.
type MediaChange struct {
	Kind  domain.MediaKind
	Flags MediaFlags
}

// toggle projects the wire flags onto the participant's current state.
func (c MediaChange) toggle(cur domain.MediaStatus) domain.MediaToggle {
	t := domain.MediaToggle{Kind: c.Kind, Audio: cur.Audio, Video: cur.Video}
	switch c.Kind {
	case domain.MediaAudio:
		t.Audio = c.Flags.Single
	case domain.MediaVideo:
		t.Video = c.Flags.Single
	case domain.MediaBoth:
		t.Audio = c.Flags.Pair[0]
		t.Video = c.Flags.Pair[1]
	}
	return t
}

// Relay is the composition root: it owns the registry, the live call
// sessions, and the router, and translates connection lifecycle and
// inbound signaling into state transitions plus routing actions.
//
// The session table holds one entry per participant of a non-terminal
// call, so a peer is busy exactly while it has an entry here.
type Relay struct {
	Registry *Registry
	Router   *Router

	mu       sync.Mutex
	sessions map[domain.PeerID]*core.CallSession

	m *metrics.Signaling
}

func NewRelay(m *metrics.Signaling) *Relay {
	reg := NewRegistry()
	return &Relay{
		Registry: reg,
		Router:   NewRouter(reg, m),
		sessions: make(map[domain.PeerID]*core.CallSession),
		m:        m,
	}
}

// Connect registers a new connection and tells the client its assigned
// identifier.
func (r *Relay) Connect(conn core.SignalConnection) domain.PeerID {
	id := r.Registry.Register(conn)
	r.m.Connections.Inc()
	r.Router.Unicast(id, EventSocketID, socketIDEvent{Type: EventSocketID, ID: string(id)})
	return id
}

// Disconnect invalidates the identifier for routing first, then
// force-terminates any session the peer was part of, notifying the
// remaining participant as if it had received a termination message.
func (r *Relay) Disconnect(id domain.PeerID) {
	if r.Registry.Unregister(id) {
		r.m.Connections.Dec()
	}
	if other, ok := r.endSession(context.Background(), id); ok {
		log.Info().Str("module", "app.relay").Str("peer", string(id)).Str("notify", string(other.ID)).Msg("disconnect force-terminated call")
		r.Router.Unicast(other.ID, EventCallTerminated, callTerminatedEvent{Type: EventCallTerminated})
	}
}

// Initiate starts a call toward target. The target must resolve and
// neither side may already be in a non-terminal call; otherwise the
// request is dropped without a response, matching the relay's
// at-most-once contract.
func (r *Relay) Initiate(ctx context.Context, from, target domain.PeerID, signal json.RawMessage, senderName string) {
	r.Registry.UpdateName(from, senderName)

	if target == from {
		log.Warn().Str("module", "app.relay").Str("peer", string(from)).Msg("initiate targeting self, dropped")
		r.m.DroppedTotal.WithLabelValues("invalid_transition").Inc()
		return
	}
	callee, ok := r.Registry.PeerOf(target)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("peer", string(from)).Str("target", string(target)).Msg("initiate target unknown, dropped")
		r.m.DroppedTotal.WithLabelValues("unknown_target").Inc()
		return
	}
	caller, ok := r.Registry.PeerOf(from)
	if !ok {
		return
	}

	r.mu.Lock()
	if r.sessions[from] != nil || r.sessions[target] != nil {
		r.mu.Unlock()
		log.Warn().Str("module", "app.relay").Str("caller", string(from)).Str("callee", string(target)).Msg("participant busy, initiate dropped")
		r.m.DroppedTotal.WithLabelValues("busy").Inc()
		return
	}
	sess := core.NewCallSession(caller, callee)
	if err := sess.Initiate(ctx); err != nil {
		r.mu.Unlock()
		return
	}
	r.sessions[from] = sess
	r.sessions[target] = sess
	r.m.ActiveSessions.Inc()
	r.mu.Unlock()

	log.Info().Str("module", "app.relay").Str("caller", string(from)).Str("callee", string(target)).Msg("call ringing")
	delivered := r.Router.Unicast(target, EventIncomingCall, incomingCallEvent{
		Type:   EventIncomingCall,
		Signal: signal,
		From:   string(from),
		Name:   caller.Name,
	})
	if !delivered {
		// Callee vanished between the busy check and delivery. Drop the
		// session quietly so the caller is free to redial.
		r.discardSession(from)
	}
}

// Answer accepts a ringing call. Only the designated callee may answer;
// the answer carries the callee's media snapshot, which is recorded
// atomically with the transition and announced alongside the answer.
func (r *Relay) Answer(ctx context.Context, from, to domain.PeerID, signal json.RawMessage, userName string, media MediaChange) {
	r.Registry.UpdateName(from, userName)

	r.mu.Lock()
	sess := r.sessions[from]
	if sess == nil {
		r.mu.Unlock()
		log.Warn().Str("module", "app.relay").Str("peer", string(from)).Msg("answer without live session, dropped")
		r.m.DroppedTotal.WithLabelValues("invalid_transition").Inc()
		return
	}
	if sess.Caller().ID != to {
		r.mu.Unlock()
		log.Warn().Str("module", "app.relay").Str("peer", string(from)).Str("to", string(to)).Msg("answer target is not the caller, dropped")
		r.m.DroppedTotal.WithLabelValues("invalid_transition").Inc()
		return
	}
	snapshot, ok := r.Registry.MediaOf(from)
	if !ok {
		snapshot = domain.DefaultMediaStatus()
	}
	if _, err := snapshot.Apply(media.toggle(snapshot)); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("peer", string(from)).Msg("bad media snapshot on answer")
	}
	if err := sess.Answer(ctx, from, snapshot); err != nil {
		r.mu.Unlock()
		log.Warn().Err(err).Str("module", "app.relay").Str("peer", string(from)).Msg("answer rejected")
		r.m.DroppedTotal.WithLabelValues("invalid_transition").Inc()
		return
	}
	r.mu.Unlock()

	log.Info().Str("module", "app.relay").Str("caller", string(to)).Str("callee", string(from)).Msg("call active")
	r.Router.Unicast(to, EventCallAnswered, callAnsweredEvent{
		Type:     EventCallAnswered,
		Signal:   signal,
		UserName: userName,
	})
	// The answerer's snapshot is announced so the caller's UI starts
	// from the real flag state, same as a regular toggle.
	r.Router.BroadcastOthers(from, EventMediaStatusChanged, mediaStatusChangedEvent{
		Type:      EventMediaStatusChanged,
		MediaType: string(media.Kind),
		IsActive:  media.Flags,
	})
}

// Terminate ends the caller's current call, if any, and notifies the
// other participant. A second terminate for the same call is a no-op.
func (r *Relay) Terminate(ctx context.Context, from domain.PeerID) {
	other, ok := r.endSession(ctx, from)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("peer", string(from)).Msg("terminate without live session, ignored")
		return
	}
	log.Info().Str("module", "app.relay").Str("peer", string(from)).Str("notify", string(other.ID)).Msg("call terminated")
	r.Router.Unicast(other.ID, EventCallTerminated, callTerminatedEvent{Type: EventCallTerminated})
}

// ChangeMediaStatus applies a participant's own toggle and announces
// it to every other connected peer as a single combined event.
func (r *Relay) ChangeMediaStatus(from domain.PeerID, change MediaChange) {
	r.mu.Lock()
	sess := r.sessions[from]
	r.mu.Unlock()

	if sess != nil {
		cur, _ := sess.MediaOf(from)
		if _, err := sess.ApplyMedia(from, change.toggle(cur)); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("peer", string(from)).Msg("media change rejected")
			return
		}
	} else {
		cur, ok := r.Registry.MediaOf(from)
		if !ok {
			return
		}
		if _, err := r.Registry.ApplyMedia(from, change.toggle(cur)); err != nil {
			if errors.Is(err, domain.ErrUnknownMediaKind) {
				log.Warn().Err(err).Str("module", "app.relay").Str("peer", string(from)).Msg("media change rejected")
			}
			return
		}
	}

	r.Router.BroadcastOthers(from, EventMediaStatusChanged, mediaStatusChangedEvent{
		Type:      EventMediaStatusChanged,
		MediaType: string(change.Kind),
		IsActive:  change.Flags,
	})
}

// SendChat relays one transient text message; nothing is retained.
func (r *Relay) SendChat(from, target domain.PeerID, message, senderName string) {
	r.Registry.UpdateName(from, senderName)
	r.Router.Unicast(target, EventReceiveMessage, receiveMessageEvent{
		Type:       EventReceiveMessage,
		Message:    message,
		SenderName: senderName,
	})
}

// SessionState reports the lifecycle state of the peer's current call,
// StateIdle when it has none.
func (r *Relay) SessionState(id domain.PeerID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess := r.sessions[id]; sess != nil {
		return sess.State()
	}
	return core.StateIdle
}

// endSession transitions the peer's call to ended and removes it from
// the table. Exactly one concurrent caller wins; the rest see ok=false.
func (r *Relay) endSession(ctx context.Context, by domain.PeerID) (domain.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.sessions[by]
	if sess == nil {
		return domain.Peer{}, false
	}
	other, err := sess.Terminate(ctx, by)
	if err != nil {
		return domain.Peer{}, false
	}
	delete(r.sessions, by)
	delete(r.sessions, other.ID)
	r.m.ActiveSessions.Dec()
	return other, true
}

// discardSession drops a session without notifying anyone. Used when
// the callee disappeared before the incoming-call event could be
// delivered.
func (r *Relay) discardSession(by domain.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.sessions[by]
	if sess == nil {
		return
	}
	if other, ok := sess.PeerOf(by); ok {
		delete(r.sessions, other.ID)
	}
	delete(r.sessions, by)
	r.m.ActiveSessions.Dec()
}
