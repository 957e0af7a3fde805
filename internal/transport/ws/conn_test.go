package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
)

func TestConnectionManager_NameDisambiguation(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	_, assigned, renamed := cm.BindNew(nil, "alice")
	req.Equal("alice", assigned)
	req.False(renamed)

	_, assigned, renamed = cm.BindNew(nil, "alice")
	req.Equal("alice-2", assigned)
	req.True(renamed)

	_, assigned, renamed = cm.BindNew(nil, "Alice")
	req.Equal("Alice-3", assigned)
	req.True(renamed)
}

func TestConnectionManager_BlankNameGetsDefault(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	_, assigned, _ := cm.BindNew(nil, "   ")
	req.Equal("player", assigned)
}

func TestConnectionManager_ReleaseFreesName(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	identity, _, _ := cm.BindNew(nil, "alice")
	req.Equal(1, cm.Count())

	cm.Release(identity.ID, nil)
	req.Equal(0, cm.Count())

	_, assigned, renamed := cm.BindNew(nil, "alice")
	req.Equal("alice", assigned)
	req.False(renamed)
}

func TestConnectionManager_SendUnknownIsNoop(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()
	req.NoError(cm.Send("nobody", domain.ServerMessage{Type: domain.MsgError}))
}

func TestConnectionManager_DisconnectedKeepsName(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	identity, _, _ := cm.BindNew(nil, "alice")
	stamp, marked := cm.MarkDisconnected(identity.ID, nil)
	req.True(marked)
	req.False(stamp.IsZero())

	// Sends to a disconnected binding drop silently.
	req.NoError(cm.Send(identity.ID, domain.ServerMessage{Type: domain.MsgError}))

	// The name stays reserved for the reconnection window.
	_, assigned, renamed := cm.BindNew(nil, "alice")
	req.True(renamed)
	req.Equal("alice-2", assigned)

	got, ok := cm.FindByName("alice")
	req.True(ok)
	req.Equal(identity.ID, got.ID)
}

func TestConnectionManager_ReleaseIfStale(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	identity, _, _ := cm.BindNew(nil, "alice")
	stamp, _ := cm.MarkDisconnected(identity.ID, nil)

	// A rebind clears the stamp, so the stale release is a no-op.
	cm.Rebind(identity, nil, "s-1")
	cm.ReleaseIfStale(identity.ID, stamp)
	req.Equal(1, cm.Count())

	stamp, _ = cm.MarkDisconnected(identity.ID, nil)
	cm.ReleaseIfStale(identity.ID, stamp)
	req.Equal(0, cm.Count())
}

func TestConnectionManager_SessionOf(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	identity, _, _ := cm.BindNew(nil, "alice")
	req.Empty(cm.SessionOf(identity.ID))

	cm.SetSession(identity.ID, "s-1")
	req.Equal("s-1", cm.SessionOf(identity.ID))
	req.Empty(cm.SessionOf("nobody"))
}

// Send must read the binding's connection and disconnect stamp under the
// manager lock while other goroutines rebind and stamp the same identity.
// Verified with the race detector enabled.
func TestConnectionManager_ConcurrentSendAndRebind(t *testing.T) {
	cm := NewConnectionManager()
	identity, _, _ := cm.BindNew(nil, "alice")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			cm.Send(identity.ID, domain.ServerMessage{Type: domain.MsgSessionUpdate})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			cm.MarkDisconnected(identity.ID, nil)
			cm.Rebind(identity, nil, "s-1")
		}
	}()
	wg.Wait()
}

func TestConnectionManager_MarkDisconnectedStaleConn(t *testing.T) {
	req := require.New(t)
	cm := NewConnectionManager()

	identity, _, _ := cm.BindNew(nil, "alice")
	cm.Rebind(identity, nil, "s-1")

	// Stamping must not race a takeover; same conn (nil here) still works,
	// and the binding survives a stale stamp attempt after release.
	_, marked := cm.MarkDisconnected(identity.ID, nil)
	req.True(marked)

	cm.Release(identity.ID, nil)
	_, marked = cm.MarkDisconnected(identity.ID, nil)
	req.False(marked)
}
