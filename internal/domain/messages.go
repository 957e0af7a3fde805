package domain

// Client intents.
const (
	MsgCreateSession = "create-session"
	MsgJoinSession   = "join-session"
	MsgMakeMove      = "make-move"
	MsgReconnect     = "reconnect"
)

// Server events.
const (
	MsgSessionCreated        = "session-created"
	MsgSessionUpdate         = "session-update"
	MsgMoveApplied           = "move-applied"
	MsgSessionOver           = "session-over"
	MsgOpponentDisconnected  = "opponent-disconnected"
	MsgOpponentReconnected   = "opponent-reconnected"
	MsgNameTaken             = "name-taken"
	MsgError                 = "error"
)

// ClientMessage is one inbound intent.
type ClientMessage struct {
	Type         string `json:"type"`
	IdentityName string `json:"identityName,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	Column       int    `json:"column"`
	ResumeToken  string `json:"resumeToken,omitempty"`
}

// ServerMessage is one outbound event. Fields are populated per event type
// and omitted otherwise.
type ServerMessage struct {
	Type            string        `json:"type"`
	SessionID       string        `json:"sessionId,omitempty"`
	Waiting         bool          `json:"waiting,omitempty"`
	FallbackDelayMs int64         `json:"fallbackDelayMs,omitempty"`
	Session         *SessionState `json:"session,omitempty"`
	IdentityID      string        `json:"identityId,omitempty"`
	Column          int           `json:"column"`
	Row             int           `json:"row"`
	Winner          *Identity     `json:"winner,omitempty"`
	Forfeit         bool          `json:"forfeit,omitempty"`
	Requested       string        `json:"requested,omitempty"`
	Assigned        string        `json:"assigned,omitempty"`
	ResumeToken     string        `json:"resumeToken,omitempty"`
	Message         string        `json:"message,omitempty"`
}

// SessionState is the full session payload shared with clients, the
// archive and the result cache. Timestamps are unix milliseconds.
type SessionState struct {
	SessionID  string      `json:"sessionId"`
	Identities [2]Identity `json:"identities"`
	Turn       string      `json:"turn"` // identity id to move; empty once over
	Status     Status      `json:"status"`
	Board      [][]int     `json:"board"`
	Winner     *Identity   `json:"winner,omitempty"`
	CreatedAt  int64       `json:"createdAt"`
	LastMoveAt int64       `json:"lastMoveAt"`
}
