package ws

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
)

const writeTimeout = 10 * time.Second

// binding ties a live transport connection to an identity and, once
// matched, a session. On disconnect it is kept with a disconnect timestamp
// rather than deleted, so the identity's seat and name survive until the
// reconnection window closes.
type binding struct {
	conn           *websocket.Conn
	identity       domain.Identity
	sessionID      string
	disconnectedAt time.Time // zero while live

	// writeMu serializes writes to this socket; gorilla's WriteJSON is
	// not safe for concurrent use.
	writeMu sync.Mutex
}

// ConnectionManager owns all connection bindings and the display-name
// uniqueness guarantee among concurrently active connections.
type ConnectionManager struct {
	mu       sync.RWMutex
	bindings map[string]*binding // identityID -> binding
	names    map[string]string   // lowercased name -> identityID
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		bindings: make(map[string]*binding),
		names:    make(map[string]string),
	}
}

// BindNew registers a fresh human identity for conn. When the requested
// name is already held by another active connection a disambiguated one is
// assigned; the caller informs the client via name-taken.
func (cm *ConnectionManager) BindNew(conn *websocket.Conn, requestedName string) (identity domain.Identity, assigned string, renamed bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	requestedName = strings.TrimSpace(requestedName)
	if requestedName == "" {
		requestedName = "player"
	}

	assigned = requestedName
	for i := 2; ; i++ {
		if _, taken := cm.names[strings.ToLower(assigned)]; !taken {
			break
		}
		assigned = fmt.Sprintf("%s-%d", requestedName, i)
	}
	renamed = assigned != requestedName

	identity = domain.NewHuman(assigned)
	cm.names[strings.ToLower(assigned)] = identity.ID
	cm.bindings[identity.ID] = &binding{conn: conn, identity: identity}
	return identity, assigned, renamed
}

// Rebind points an existing identity's binding at a new connection and
// clears the disconnect mark. Creates the binding if it was already
// released.
func (cm *ConnectionManager) Rebind(identity domain.Identity, conn *websocket.Conn, sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	b, ok := cm.bindings[identity.ID]
	if !ok {
		b = &binding{identity: identity}
		cm.bindings[identity.ID] = b
		cm.names[strings.ToLower(identity.Name)] = identity.ID
	}
	if b.conn != nil && b.conn != conn {
		b.conn.Close()
	}
	b.conn = conn
	b.sessionID = sessionID
	b.disconnectedAt = time.Time{}
}

// SetSession records the session an identity was matched into.
func (cm *ConnectionManager) SetSession(identityID, sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if b, ok := cm.bindings[identityID]; ok {
		b.sessionID = sessionID
	}
}

// SessionOf returns the session id bound to identityID, or "" when the
// identity is unknown or not yet matched.
func (cm *ConnectionManager) SessionOf(identityID string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if b, ok := cm.bindings[identityID]; ok {
		return b.sessionID
	}
	return ""
}

// MarkDisconnected stamps the binding if conn is still its current
// connection and returns the stamp. A false return means a newer
// connection already took over the identity.
func (cm *ConnectionManager) MarkDisconnected(identityID string, conn *websocket.Conn) (time.Time, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	b, ok := cm.bindings[identityID]
	if !ok || b.conn != conn {
		return time.Time{}, false
	}
	b.disconnectedAt = time.Now()
	return b.disconnectedAt, true
}

// Release removes the binding and frees the display name, but only while
// conn is still the identity's current connection.
func (cm *ConnectionManager) Release(identityID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	b, ok := cm.bindings[identityID]
	if !ok || (conn != nil && b.conn != conn) {
		return
	}
	cm.releaseLocked(identityID, b)
}

// ReleaseIfStale removes a binding that is still marked with the given
// disconnect stamp. A reconnect in the meantime cleared or replaced the
// stamp, making this a no-op.
func (cm *ConnectionManager) ReleaseIfStale(identityID string, stamp time.Time) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	b, ok := cm.bindings[identityID]
	if !ok || !b.disconnectedAt.Equal(stamp) {
		return
	}
	cm.releaseLocked(identityID, b)
}

func (cm *ConnectionManager) releaseLocked(identityID string, b *binding) {
	if cm.names[strings.ToLower(b.identity.Name)] == identityID {
		delete(cm.names, strings.ToLower(b.identity.Name))
	}
	delete(cm.bindings, identityID)
}

// FindByName resolves an active or disconnected identity by display name.
func (cm *ConnectionManager) FindByName(name string) (domain.Identity, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	id, ok := cm.names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Identity{}, false
	}
	b, ok := cm.bindings[id]
	if !ok {
		return domain.Identity{}, false
	}
	return b.identity, true
}

// Send delivers a server event to one identity. Unknown, disconnected or
// bot identities are silently skipped so broadcast code doesn't need to
// special-case them. The binding's mutable fields are copied out under
// cm.mu; only the socket write itself happens outside it.
func (cm *ConnectionManager) Send(identityID string, message domain.ServerMessage) error {
	cm.mu.RLock()
	b, ok := cm.bindings[identityID]
	var conn *websocket.Conn
	if ok && b.disconnectedAt.IsZero() {
		conn = b.conn
	}
	cm.mu.RUnlock()

	if conn == nil {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(message)
}

// Count reports the number of bindings, disconnected ones included.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.bindings)
}
