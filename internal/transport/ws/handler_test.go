package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
	"github.com/abhayymishraa/4-in-a-row/internal/service/matchmaking"
	"github.com/abhayymishraa/4-in-a-row/pkg/token"
)

type testRig struct {
	server   *httptest.Server
	registry *game.Registry
	queue    *matchmaking.Queue
}

func newTestRig(t *testing.T, fallbackDelay, reconnectWindow time.Duration) *testRig {
	t.Helper()

	cm := NewConnectionManager()
	queue := matchmaking.NewQueue(fallbackDelay, nil)
	registry := game.NewRegistry(game.Deps{ResultGrace: time.Hour, BotDepth: 2})
	tokens := token.NewManager("test-secret", time.Hour)
	handler := NewHandler(cm, queue, registry, nil, tokens, reconnectWindow, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go matchmaking.Listen(ctx, queue, handler)

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return &testRig{server: server, registry: registry, queue: queue}
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (r *testRig) dial(t *testing.T) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(r.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(msg domain.ClientMessage) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// expect reads until a message of the wanted type arrives, skipping
// interleaved events other tests steps produced.
func (c *testClient) expect(msgType string) domain.ServerMessage {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		c.conn.SetReadDeadline(deadline)
		var msg domain.ServerMessage
		err := c.conn.ReadJSON(&msg)
		require.NoError(c.t, err, "waiting for %q", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestHandler_CreateJoinAndPlayToWin(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	alice := rig.dial(t)
	bob := rig.dial(t)

	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	created := alice.expect(domain.MsgSessionCreated)
	req.NotEmpty(created.SessionID)
	req.True(created.Waiting)
	req.Positive(created.FallbackDelayMs)

	bob.send(domain.ClientMessage{
		Type:         domain.MsgJoinSession,
		IdentityName: "bob",
		SessionID:    created.SessionID,
	})

	aliceUpdate := alice.expect(domain.MsgSessionUpdate)
	bobUpdate := bob.expect(domain.MsgSessionUpdate)
	req.Equal(created.SessionID, aliceUpdate.SessionID)
	req.NotEmpty(aliceUpdate.ResumeToken)
	req.NotNil(bobUpdate.Session)

	session := aliceUpdate.Session
	req.Equal("alice", session.Identities[0].Name)
	req.Equal("bob", session.Identities[1].Name)
	req.Equal(session.Identities[0].ID, session.Turn, "host moves first")

	// Alice claims the bottom row, bob stacks the far column.
	for col := 0; col < 3; col++ {
		alice.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: col})
		applied := bob.expect(domain.MsgMoveApplied)
		req.Equal(col, applied.Column)
		req.Equal(domain.Rows-1, applied.Row)

		bob.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 6})
		alice.expect(domain.MsgMoveApplied)
	}
	alice.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 3})

	for _, c := range []*testClient{alice, bob} {
		over := c.expect(domain.MsgSessionOver)
		req.NotNil(over.Winner)
		req.Equal(session.Identities[0].ID, over.Winner.ID)
		req.False(over.Forfeit)
		req.Equal(domain.StatusWon, over.Session.Status)
	}
}

func TestHandler_MoveOutOfTurnRejected(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	alice := rig.dial(t)
	bob := rig.dial(t)

	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	created := alice.expect(domain.MsgSessionCreated)
	bob.send(domain.ClientMessage{
		Type:         domain.MsgJoinSession,
		IdentityName: "bob",
		SessionID:    created.SessionID,
	})
	alice.expect(domain.MsgSessionUpdate)
	bob.expect(domain.MsgSessionUpdate)

	bob.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 0})
	errMsg := bob.expect(domain.MsgError)
	req.Equal(domain.ErrNotYourTurn.Error(), errMsg.Message)
}

func TestHandler_NameTaken(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	first := rig.dial(t)
	second := rig.dial(t)

	first.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	first.expect(domain.MsgSessionCreated)

	second.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	taken := second.expect(domain.MsgNameTaken)
	req.Equal("alice", taken.Requested)
	req.Equal("alice-2", taken.Assigned)

	// The two also matched, since both queued without a target session.
	update := second.expect(domain.MsgSessionUpdate)
	req.Equal("alice", update.Session.Identities[0].Name)
	req.Equal("alice-2", update.Session.Identities[1].Name)
}

func TestHandler_InstantPairSkipsSessionCreated(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	alice := rig.dial(t)
	bob := rig.dial(t)

	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	created := alice.expect(domain.MsgSessionCreated)

	// Bob pairs with the waiting host immediately. The session keeps the
	// host's id, so bob must see session-update first, never a
	// session-created carrying an id the match discarded.
	bob.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "bob"})
	bob.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var first domain.ServerMessage
	req.NoError(bob.conn.ReadJSON(&first))
	req.Equal(domain.MsgSessionUpdate, first.Type)
	req.Equal(created.SessionID, first.SessionID)
	req.Equal("alice", first.Session.Identities[0].Name)
	req.Equal("bob", first.Session.Identities[1].Name)
}

func TestHandler_FallbackBotMatch(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, 50*time.Millisecond, time.Hour)

	alice := rig.dial(t)
	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	alice.expect(domain.MsgSessionCreated)

	update := alice.expect(domain.MsgSessionUpdate)
	req.Equal(domain.KindBot, update.Session.Identities[1].Kind)

	// The human still moves first against the bot, and the bot answers.
	alice.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 3})
	alice.expect(domain.MsgMoveApplied)
	botMove := alice.expect(domain.MsgMoveApplied)
	req.Equal(update.Session.Identities[1].ID, botMove.IdentityID)
}

func TestHandler_JoinUnknownSession(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	c := rig.dial(t)
	c.send(domain.ClientMessage{
		Type:         domain.MsgJoinSession,
		IdentityName: "guest",
		SessionID:    "no-such-session",
	})
	errMsg := c.expect(domain.MsgError)
	req.Equal(domain.ErrSessionNotFound.Error(), errMsg.Message)
}

func TestHandler_MoveWithoutSession(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	c := rig.dial(t)
	c.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 3})
	errMsg := c.expect(domain.MsgError)
	req.Contains(errMsg.Message, "not in a session")
}

func TestHandler_ReconnectWithResumeToken(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, 5*time.Second)

	alice := rig.dial(t)
	bob := rig.dial(t)

	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	created := alice.expect(domain.MsgSessionCreated)
	bob.send(domain.ClientMessage{
		Type:         domain.MsgJoinSession,
		IdentityName: "bob",
		SessionID:    created.SessionID,
	})
	aliceUpdate := alice.expect(domain.MsgSessionUpdate)
	bob.expect(domain.MsgSessionUpdate)

	alice.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 0})
	bob.expect(domain.MsgMoveApplied)

	// Transport drops; bob learns, alice comes back on a new socket.
	alice.conn.Close()
	gone := bob.expect(domain.MsgOpponentDisconnected)
	req.Equal(aliceUpdate.Session.Identities[0].ID, gone.IdentityID)

	alice2 := rig.dial(t)
	alice2.send(domain.ClientMessage{
		Type:        domain.MsgReconnect,
		ResumeToken: aliceUpdate.ResumeToken,
	})
	update := alice2.expect(domain.MsgSessionUpdate)
	req.Equal(created.SessionID, update.SessionID)
	req.Equal(1, update.Session.Board[domain.Rows-1][0])
	req.NotEmpty(update.ResumeToken)

	back := bob.expect(domain.MsgOpponentReconnected)
	req.Equal(gone.IdentityID, back.IdentityID)

	// Play continues where it left off.
	bob.send(domain.ClientMessage{Type: domain.MsgMakeMove, Column: 6})
	alice2.expect(domain.MsgMoveApplied)
}

func TestHandler_ReconnectByNameAndSession(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, 5*time.Second)

	alice := rig.dial(t)
	bob := rig.dial(t)

	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	created := alice.expect(domain.MsgSessionCreated)
	bob.send(domain.ClientMessage{
		Type:         domain.MsgJoinSession,
		IdentityName: "bob",
		SessionID:    created.SessionID,
	})
	alice.expect(domain.MsgSessionUpdate)
	bob.expect(domain.MsgSessionUpdate)

	alice.conn.Close()
	bob.expect(domain.MsgOpponentDisconnected)

	alice2 := rig.dial(t)
	alice2.send(domain.ClientMessage{
		Type:         domain.MsgReconnect,
		IdentityName: "alice",
		SessionID:    created.SessionID,
	})
	update := alice2.expect(domain.MsgSessionUpdate)
	req.Equal(created.SessionID, update.SessionID)
	bob.expect(domain.MsgOpponentReconnected)
}

func TestHandler_ForfeitAfterReconnectWindow(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, 60*time.Millisecond)

	alice := rig.dial(t)
	bob := rig.dial(t)

	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	created := alice.expect(domain.MsgSessionCreated)
	bob.send(domain.ClientMessage{
		Type:         domain.MsgJoinSession,
		IdentityName: "bob",
		SessionID:    created.SessionID,
	})
	alice.expect(domain.MsgSessionUpdate)
	bobUpdate := bob.expect(domain.MsgSessionUpdate)

	alice.conn.Close()
	bob.expect(domain.MsgOpponentDisconnected)

	over := bob.expect(domain.MsgSessionOver)
	req.True(over.Forfeit)
	req.NotNil(over.Winner)
	req.Equal(bobUpdate.Session.Identities[1].ID, over.Winner.ID)
}

func TestHandler_QueuedDisconnectLeavesQueue(t *testing.T) {
	req := require.New(t)
	rig := newTestRig(t, time.Hour, time.Hour)

	alice := rig.dial(t)
	alice.send(domain.ClientMessage{Type: domain.MsgCreateSession, IdentityName: "alice"})
	alice.expect(domain.MsgSessionCreated)
	alice.conn.Close()

	req.Eventually(func() bool { return rig.queue.Waiting() == 0 },
		2*time.Second, 10*time.Millisecond)
}
