package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/core"
	"github.com/vchern/peerline/internal/domain"
)

type peerEntry struct {
	Peer domain.Peer
	Conn core.SignalConnection
	// Capture state announced before any call exists; once a session
	// is created the session copy is authoritative.
	Media domain.MediaStatus
}

// Registry maps relay-assigned identifiers to live connections. It is
// the single routing authority: an identifier resolves only between
// Register and Unregister, never to a closed connection.
type Registry struct {
	mu    sync.RWMutex
	peers map[domain.PeerID]*peerEntry
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[domain.PeerID]*peerEntry)}
}

// Register assigns a fresh identifier and binds the connection to it.
func (r *Registry) Register(conn core.SignalConnection) domain.PeerID {
	id := domain.PeerID(uuid.NewString())
	r.mu.Lock()
	r.peers[id] = &peerEntry{
		Peer:  domain.Peer{ID: id},
		Conn:  conn,
		Media: domain.DefaultMediaStatus(),
	}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("peer", string(id)).Msg("peer registered")
	return id
}

// Resolve returns the connection bound to id, if it is still live.
func (r *Registry) Resolve(id domain.PeerID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// Unregister removes the binding and reports whether it existed.
// Idempotent: unregistering an unknown identifier is a no-op.
func (r *Registry) Unregister(id domain.PeerID) bool {
	r.mu.Lock()
	_, ok := r.peers[id]
	delete(r.peers, id)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("peer", string(id)).Msg("peer unregistered")
	}
	return ok
}

// UpdateName stores the display name the client last announced.
func (r *Registry) UpdateName(id domain.PeerID, name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.peers[id]
	if !ok {
		return
	}
	if err := e.Peer.SetName(name); err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("peer", string(id)).Msg("rejected display name")
	}
}

// PeerOf returns the peer meta for id.
func (r *Registry) PeerOf(id domain.PeerID) (domain.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok {
		return domain.Peer{}, false
	}
	return e.Peer, true
}

// ApplyMedia records a pre-call flag change for id.
func (r *Registry) ApplyMedia(id domain.PeerID, t domain.MediaToggle) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.peers[id]
	if !ok {
		return false, nil
	}
	return e.Media.Apply(t)
}

// MediaOf reads the pre-call capture state for id.
func (r *Registry) MediaOf(id domain.PeerID) (domain.MediaStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok {
		return domain.MediaStatus{}, false
	}
	return e.Media, true
}

type peerSnap struct {
	ID   domain.PeerID
	Conn core.SignalConnection
}

// Others snapshots every live connection except from, for
// broadcast-to-others delivery.
func (r *Registry) Others(from domain.PeerID) []peerSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]peerSnap, 0, len(r.peers))
	for id, e := range r.peers {
		if id == from {
			continue
		}
		out = append(out, peerSnap{ID: id, Conn: e.Conn})
	}
	return out
}
