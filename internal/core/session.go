package core

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"

	"github.com/vchern/peerline/internal/domain"
)

// Call lifecycle states. A pair with no recorded session is implicitly
// idle; ended sessions are discarded by the relay, so a live session is
// always ringing or active.
const (
	StateIdle    = "idle"
	StateRinging = "ringing"
	StateActive  = "active"
	StateEnded   = "ended"
)

const (
	eventInitiate  = "initiate"
	eventAnswer    = "answer"
	eventTerminate = "terminate"
)

var (
	ErrNotParticipant    = errors.New("peer is not part of this call")
	ErrNotCallee         = errors.New("only the callee may answer")
	ErrInvalidTransition = errors.New("invalid call transition")
)

// CallSession tracks one pending or established call between exactly
// two participants. It owns no transport resources: the relay drives
// transitions and performs the routing side effects.
type CallSession struct {
	mu     sync.RWMutex
	caller domain.Peer
	callee domain.Peer
	media  map[domain.PeerID]domain.MediaStatus
	sm     *fsm.FSM
}

func NewCallSession(caller, callee domain.Peer) *CallSession {
	s := &CallSession{
		caller: caller,
		callee: callee,
		media:  make(map[domain.PeerID]domain.MediaStatus, 2),
	}
	s.media[caller.ID] = domain.DefaultMediaStatus()
	s.media[callee.ID] = domain.DefaultMediaStatus()
	s.sm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventInitiate, Src: []string{StateIdle}, Dst: StateRinging},
			{Name: eventAnswer, Src: []string{StateRinging}, Dst: StateActive},
			{Name: eventTerminate, Src: []string{StateRinging, StateActive}, Dst: StateEnded},
		},
		fsm.Callbacks{},
	)
	return s
}

func (s *CallSession) State() string { return s.sm.Current() }

func (s *CallSession) Caller() domain.Peer { return s.caller }
func (s *CallSession) Callee() domain.Peer { return s.callee }

func (s *CallSession) Involves(id domain.PeerID) bool {
	return s.caller.ID == id || s.callee.ID == id
}

// PeerOf returns the other participant of the call.
func (s *CallSession) PeerOf(id domain.PeerID) (domain.Peer, bool) {
	switch id {
	case s.caller.ID:
		return s.callee, true
	case s.callee.ID:
		return s.caller, true
	}
	return domain.Peer{}, false
}

// Initiate moves the session from idle to ringing.
func (s *CallSession) Initiate(ctx context.Context) error {
	if err := s.sm.Event(ctx, eventInitiate); err != nil {
		return ErrInvalidTransition
	}
	return nil
}

// Answer moves a ringing session to active. Only the designated callee
// may answer; the callee's media snapshot is recorded atomically with
// the transition so both sides start from a consistent view.
func (s *CallSession) Answer(ctx context.Context, by domain.PeerID, snapshot domain.MediaStatus) error {
	if by != s.callee.ID {
		if !s.Involves(by) {
			return ErrNotParticipant
		}
		return ErrNotCallee
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sm.Event(ctx, eventAnswer); err != nil {
		return ErrInvalidTransition
	}
	s.media[by] = snapshot
	return nil
}

// Terminate ends a ringing or active session. Either participant may
// terminate; it reports the remaining peer so the relay can notify it.
func (s *CallSession) Terminate(ctx context.Context, by domain.PeerID) (domain.Peer, error) {
	other, ok := s.PeerOf(by)
	if !ok {
		return domain.Peer{}, ErrNotParticipant
	}
	if err := s.sm.Event(ctx, eventTerminate); err != nil {
		return domain.Peer{}, ErrInvalidTransition
	}
	return other, nil
}

// ApplyMedia records a participant's own flag change inside the call.
func (s *CallSession) ApplyMedia(id domain.PeerID, t domain.MediaToggle) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.media[id]
	if !ok {
		return false, ErrNotParticipant
	}
	changed, err := st.Apply(t)
	if err != nil {
		return false, err
	}
	s.media[id] = st
	return changed, nil
}

// MediaOf reads a participant's current flags.
func (s *CallSession) MediaOf(id domain.PeerID) (domain.MediaStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.media[id]
	return st, ok
}
