package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vchern/peerline/internal/core"
	"github.com/vchern/peerline/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func TestRegisterResolveUnregister(t *testing.T) {
	r := NewRegistry()
	conn := nopConn{}

	id := r.Register(conn)
	require.NotEmpty(t, id)

	got, ok := r.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, core.SignalConnection(conn), got)

	assert.True(t, r.Unregister(id))
	_, ok = r.Resolve(id)
	assert.False(t, ok, "resolve after unregister must fail")

	assert.False(t, r.Unregister(id), "unregister is idempotent")
}

func TestRegisterAssignsUniqueIdentifiers(t *testing.T) {
	r := NewRegistry()
	seen := make(map[domain.PeerID]bool)
	for i := 0; i < 1000; i++ {
		id := r.Register(nopConn{})
		require.False(t, seen[id], "identifier reused: %s", id)
		seen[id] = true
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve("nope")
	assert.False(t, ok)
}

func TestUpdateName(t *testing.T) {
	r := NewRegistry()
	id := r.Register(nopConn{})

	r.UpdateName(id, "Alice")
	p, ok := r.PeerOf(id)
	require.True(t, ok)
	assert.Equal(t, "Alice", p.Name)

	// Empty and oversized names are ignored, the old name survives.
	r.UpdateName(id, "")
	long := make([]byte, domain.MaxPeerNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	r.UpdateName(id, string(long))
	p, _ = r.PeerOf(id)
	assert.Equal(t, "Alice", p.Name)

	r.UpdateName("ghost", "Nobody")
}

func TestPendingMediaState(t *testing.T) {
	r := NewRegistry()
	id := r.Register(nopConn{})

	st, ok := r.MediaOf(id)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultMediaStatus(), st)

	changed, err := r.ApplyMedia(id, domain.MediaToggle{Kind: domain.MediaVideo, Audio: true, Video: false})
	require.NoError(t, err)
	assert.True(t, changed)

	st, _ = r.MediaOf(id)
	assert.False(t, st.Video)

	changed, err = r.ApplyMedia("ghost", domain.MediaToggle{Kind: domain.MediaAudio})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOthersExcludesSender(t *testing.T) {
	r := NewRegistry()
	a := r.Register(nopConn{})
	b := r.Register(nopConn{})
	c := r.Register(nopConn{})

	others := r.Others(a)
	ids := make(map[domain.PeerID]bool, len(others))
	for _, snap := range others {
		ids[snap.ID] = true
	}
	assert.Len(t, others, 2)
	assert.True(t, ids[b])
	assert.True(t, ids[c])
	assert.False(t, ids[a])
}

// closedConn fails TrySend once its flag flips, modeling a connection
// torn down by the adapter.
type closedConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *closedConn) TrySend(core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	return nil
}

func (c *closedConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Resolve must never observe an identifier whose unregister completed:
// after Close+Unregister finish, a resolved connection (if any) must
// still be writable at the moment it was resolved out of the map.
func TestNoStaleRoutingUnderConcurrency(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &closedConn{}
			id := r.Register(conn)
			done := make(chan struct{})
			go func() {
				defer close(done)
				if got, ok := r.Resolve(id); ok {
					// A successful resolve may race the unregister, but
					// it must return this connection, never another's.
					if got != core.SignalConnection(conn) {
						t.Error("resolve returned a foreign connection")
					}
				}
			}()
			r.Unregister(id)
			conn.Close()
			<-done
			if _, ok := r.Resolve(id); ok {
				t.Error("resolve succeeded after unregister completed")
			}
		}()
	}
	wg.Wait()
}
