package game

import (
	"time"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/metrics"
	"github.com/abhayymishraa/4-in-a-row/pkg/uid"

	"sync"
)

// Registry is the concurrent map of live sessions, indexed both by session
// id and by participant identity. Tests construct isolated instances; there
// is no package-level singleton.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	byIdentity map[string]string // identityID -> sessionID
	deps       Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		byIdentity: make(map[string]string),
		deps:       deps,
	}
}

// Create constructs and indexes a session between first and second. An
// empty sessionID gets a generated one.
func (r *Registry) Create(first, second domain.Identity, sessionID string) *Session {
	if sessionID == "" {
		sessionID = uid.NewSessionID()
	}

	r.mu.Lock()
	s := newSession(sessionID, first, second, r.deps, r)
	r.sessions[sessionID] = s
	r.byIdentity[first.ID] = sessionID
	r.byIdentity[second.ID] = sessionID
	metrics.LiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	r.deps.upsertIdentity(first)
	r.deps.upsertIdentity(second)
	r.deps.publish("session_started", s.State())
	r.deps.logger().Info("session created",
		"sessionId", sessionID,
		"first", first.Name, "second", second.Name,
		"vsBot", second.IsBot())
	return s
}

func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

func (r *Registry) FindByIdentity(identityID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.byIdentity[identityID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Update replaces a stored session and refreshes the identity index. Used
// when a session is rebuilt from externally recovered state.
func (r *Registry) Update(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.sessions[s.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.byIdentity, old.First.ID)
	delete(r.byIdentity, old.Second.ID)
	r.sessions[s.ID] = s
	r.byIdentity[s.First.ID] = s.ID
	r.byIdentity[s.Second.ID] = s.ID
	return nil
}

// Remove de-indexes the session and both identities.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.byIdentity, s.First.ID)
		delete(r.byIdentity, s.Second.ID)
		delete(r.sessions, sessionID)
	}
	metrics.LiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepStale removes in-progress sessions whose last move is older than
// maxAge. This is the liveness guard against orphaned sessions whose
// participants dropped and never reconnected. Returns how many were
// removed.
func (r *Registry) SweepStale(maxAge time.Duration) int {
	r.mu.RLock()
	candidates := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		candidates = append(candidates, s)
	}
	r.mu.RUnlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, s := range candidates {
		if s.finished() {
			continue
		}
		if s.lastActivity().Before(cutoff) {
			r.Remove(s.ID)
			removed++
		}
	}
	if removed > 0 {
		r.deps.logger().Info("swept stale sessions", "count", removed)
	}
	return removed
}
