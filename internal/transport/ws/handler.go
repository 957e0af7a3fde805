package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/metrics"
	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
	"github.com/abhayymishraa/4-in-a-row/internal/service/matchmaking"
	"github.com/abhayymishraa/4-in-a-row/pkg/token"
	"github.com/abhayymishraa/4-in-a-row/pkg/uid"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	// sessionLookupRetry covers the gap between a match being formed and
	// the session landing in the registry.
	sessionLookupRetry = 50 * time.Millisecond
)

// ResultReader looks up finished-session payloads that already left the
// registry. Optional; nil means late reconnects get session-not-found.
type ResultReader interface {
	GetResult(ctx context.Context, sessionID string) (*domain.SessionState, error)
}

// Handler is the realtime coordinator: it upgrades connections, routes
// client intents and drives matchmaking, sessions and reconnection.
type Handler struct {
	cm       *ConnectionManager
	queue    *matchmaking.Queue
	registry *game.Registry
	results  ResultReader
	tokens   *token.Manager

	reconnectWindow time.Duration
	logger          *slog.Logger
	upgrader        websocket.Upgrader
}

var _ matchmaking.Starter = (*Handler)(nil)

func NewHandler(
	cm *ConnectionManager,
	queue *matchmaking.Queue,
	registry *game.Registry,
	results ResultReader,
	tokens *token.Manager,
	reconnectWindow time.Duration,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cm:              cm,
		queue:           queue,
		registry:        registry,
		results:         results,
		tokens:          tokens,
		reconnectWindow: reconnectWindow,
		logger:          logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	metrics.OpenConnections.Inc()
	defer metrics.OpenConnections.Dec()

	h.serveConn(conn)
}

// serveConn runs one connection's read loop until the transport drops.
func (h *Handler) serveConn(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go keepalive(conn, done)

	// self is the identity bound to this connection; zero until the first
	// create-session, join-session or successful reconnect.
	var self domain.Identity
	defer func() { h.connectionLost(conn, self) }()

	for {
		var msg domain.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case domain.MsgCreateSession:
			h.handleCreate(conn, &self, msg)
		case domain.MsgJoinSession:
			h.handleJoin(conn, &self, msg)
		case domain.MsgMakeMove:
			h.handleMove(conn, self, msg)
		case domain.MsgReconnect:
			h.handleReconnect(conn, &self, msg)
		default:
			h.sendError(conn, self, "unknown message type: "+msg.Type)
		}
	}
}

func keepalive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handleCreate binds a fresh identity and enqueues it for matchmaking,
// with the fallback-AI timer armed.
func (h *Handler) handleCreate(conn *websocket.Conn, self *domain.Identity, msg domain.ClientMessage) {
	if self.ID != "" {
		h.sendError(conn, *self, "already in a session or queue")
		return
	}

	identity, assigned, renamed := h.cm.BindNew(conn, msg.IdentityName)
	*self = identity
	if renamed {
		h.cm.Send(identity.ID, domain.ServerMessage{
			Type:      domain.MsgNameTaken,
			Requested: strings.TrimSpace(msg.IdentityName),
			Assigned:  assigned,
		})
	}

	sessionID := uid.NewSessionID()
	paired, err := h.queue.Enqueue(identity, sessionID, true)
	if err != nil {
		h.sendError(conn, identity, err.Error())
		return
	}
	if paired {
		// A peer was already waiting; the match keeps the peer's session
		// id and the session-update announces it, so a session-created
		// with a dead id would only mislead the client.
		return
	}

	h.cm.Send(identity.ID, domain.ServerMessage{
		Type:            domain.MsgSessionCreated,
		SessionID:       sessionID,
		Waiting:         true,
		FallbackDelayMs: h.queue.FallbackDelay().Milliseconds(),
	})
}

// handleJoin binds a fresh identity and pairs it directly with the host
// waiting on the given session id.
func (h *Handler) handleJoin(conn *websocket.Conn, self *domain.Identity, msg domain.ClientMessage) {
	if self.ID != "" {
		h.sendError(conn, *self, "already in a session or queue")
		return
	}
	if msg.SessionID == "" {
		h.sendError(conn, *self, "sessionId required")
		return
	}

	identity, assigned, renamed := h.cm.BindNew(conn, msg.IdentityName)
	*self = identity
	if renamed {
		h.cm.Send(identity.ID, domain.ServerMessage{
			Type:      domain.MsgNameTaken,
			Requested: strings.TrimSpace(msg.IdentityName),
			Assigned:  assigned,
		})
	}

	if err := h.queue.JoinBySessionID(msg.SessionID, identity); err != nil {
		h.cm.Release(identity.ID, conn)
		*self = domain.Identity{}
		h.sendError(conn, domain.Identity{}, err.Error())
	}
}

func (h *Handler) handleMove(conn *websocket.Conn, self domain.Identity, msg domain.ClientMessage) {
	if self.ID == "" {
		h.sendError(conn, self, "not in a session")
		return
	}

	s, ok := h.lookupSession(self.ID)
	if !ok {
		// The match may still be in flight between queue and registry.
		time.Sleep(sessionLookupRetry)
		if s, ok = h.lookupSession(self.ID); !ok {
			h.sendError(conn, self, domain.ErrSessionNotFound.Error())
			return
		}
	}
	if msg.SessionID != "" && msg.SessionID != s.ID {
		h.sendError(conn, self, domain.ErrIdentityNotInSession.Error())
		return
	}

	if err := s.HandleMove(self.ID, msg.Column, h.cm); err != nil {
		h.sendError(conn, self, err.Error())
	}
}

// handleReconnect restores a dropped identity onto this connection. A
// resume token is authoritative; otherwise the seat is recovered by
// display name, scoped to a session id when one is supplied.
func (h *Handler) handleReconnect(conn *websocket.Conn, self *domain.Identity, msg domain.ClientMessage) {
	if self.ID != "" {
		h.sendError(conn, *self, "connection already bound")
		return
	}

	identityID, sessionID, err := h.resolveReconnect(msg)
	if err != nil {
		h.sendError(conn, *self, err.Error())
		return
	}

	s, ok := h.registry.Get(sessionID)
	if !ok {
		// The session may already be gone; a cached result still lets the
		// client render the outcome.
		if h.results != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			state, rerr := h.results.GetResult(ctx, sessionID)
			cancel()
			if rerr == nil {
				h.writeDirect(conn, domain.ServerMessage{
					Type:    domain.MsgSessionOver,
					Session: state,
					Winner:  state.Winner,
				})
				return
			}
		}
		h.sendError(conn, *self, domain.ErrSessionNotFound.Error())
		return
	}

	identity, seated := seatIdentity(s, identityID)
	if !seated {
		h.sendError(conn, *self, domain.ErrIdentityNotInSession.Error())
		return
	}

	h.cm.Rebind(identity, conn, s.ID)
	*self = identity
	if err := s.HandleReconnect(identity.ID, h.cm); err != nil {
		h.sendError(conn, identity, err.Error())
		return
	}

	resume, err := h.tokens.Mint(identity.ID, s.ID)
	if err != nil {
		h.logger.Warn("resume token mint failed", "identityId", identity.ID, "error", err)
	}
	state := s.State()
	h.cm.Send(identity.ID, domain.ServerMessage{
		Type:        domain.MsgSessionUpdate,
		SessionID:   s.ID,
		Session:     &state,
		ResumeToken: resume,
	})
}

// resolveReconnect turns a reconnect intent into (identityID, sessionID).
func (h *Handler) resolveReconnect(msg domain.ClientMessage) (string, string, error) {
	if msg.ResumeToken != "" {
		claims, err := h.tokens.Parse(msg.ResumeToken)
		if err != nil {
			return "", "", domain.Error("invalid resume token")
		}
		return claims.IdentityID, claims.SessionID, nil
	}

	if msg.SessionID != "" {
		s, ok := h.registry.Get(msg.SessionID)
		if !ok {
			// Let the caller try the result cache.
			return "", msg.SessionID, nil
		}
		for _, id := range []domain.Identity{s.First, s.Second} {
			if !id.IsBot() && strings.EqualFold(id.Name, strings.TrimSpace(msg.IdentityName)) {
				return id.ID, s.ID, nil
			}
		}
		return "", "", domain.ErrIdentityNotInSession
	}

	// Name only: the disconnect-marked binding still holds the identity.
	identity, ok := h.cm.FindByName(msg.IdentityName)
	if !ok {
		return "", "", domain.ErrSessionNotFound
	}
	s, ok := h.lookupSession(identity.ID)
	if !ok {
		return "", "", domain.ErrSessionNotFound
	}
	return identity.ID, s.ID, nil
}

// lookupSession resolves the session an identity plays in, preferring the
// session id recorded on its connection binding and falling back to the
// registry's identity index.
func (h *Handler) lookupSession(identityID string) (*game.Session, bool) {
	if sid := h.cm.SessionOf(identityID); sid != "" {
		if s, ok := h.registry.Get(sid); ok {
			return s, true
		}
	}
	return h.registry.FindByIdentity(identityID)
}

// StartMatch turns a formed pairing into a live session and notifies both
// human participants. Implements matchmaking.Starter.
func (h *Handler) StartMatch(match matchmaking.Match) {
	s := h.registry.Create(match.First, match.Second, match.SessionID)
	state := s.State()

	for _, identity := range []domain.Identity{match.First, match.Second} {
		if identity.IsBot() {
			continue
		}
		h.cm.SetSession(identity.ID, s.ID)

		resume, err := h.tokens.Mint(identity.ID, s.ID)
		if err != nil {
			h.logger.Warn("resume token mint failed", "identityId", identity.ID, "error", err)
		}
		snapshot := state
		h.cm.Send(identity.ID, domain.ServerMessage{
			Type:        domain.MsgSessionUpdate,
			SessionID:   s.ID,
			Session:     &snapshot,
			ResumeToken: resume,
		})
	}
}

// connectionLost runs when the transport drops. A queued identity is
// simply dequeued; one in a live session gets the reconnection window.
func (h *Handler) connectionLost(conn *websocket.Conn, self domain.Identity) {
	if self.ID == "" {
		return
	}

	if h.queue.Dequeue(self.ID) {
		h.cm.Release(self.ID, conn)
		return
	}

	s, ok := h.lookupSession(self.ID)
	if ok && s.State().Status == domain.StatusInProgress {
		stamp, marked := h.cm.MarkDisconnected(self.ID, conn)
		if !marked {
			return
		}
		s.HandleDisconnect(self.ID, h.reconnectWindow, h.cm)
		// Free the binding (and the name) once the window has clearly
		// passed without a reconnect.
		id := self.ID
		time.AfterFunc(h.reconnectWindow+time.Minute, func() {
			h.cm.ReleaseIfStale(id, stamp)
		})
		return
	}

	h.cm.Release(self.ID, conn)
}

func seatIdentity(s *game.Session, identityID string) (domain.Identity, bool) {
	switch identityID {
	case s.First.ID:
		return s.First, true
	case s.Second.ID:
		return s.Second, true
	}
	return domain.Identity{}, false
}

// sendError routes through the connection manager once bound, and writes
// directly while the connection is still anonymous.
func (h *Handler) sendError(conn *websocket.Conn, self domain.Identity, message string) {
	msg := domain.ServerMessage{Type: domain.MsgError, Message: message}
	if self.ID != "" {
		h.cm.Send(self.ID, msg)
		return
	}
	h.writeDirect(conn, msg)
}

func (h *Handler) writeDirect(conn *websocket.Conn, msg domain.ServerMessage) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("direct write failed", "error", err)
	}
}
