package matchmaking

import (
	"log/slog"
	"sync"
	"time"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/metrics"
	"github.com/abhayymishraa/4-in-a-row/pkg/uid"
)

// Match is a formed pairing, delivered on the match channel. Second is the
// fallback bot when no human opponent appeared in time.
type Match struct {
	First     domain.Identity
	Second    domain.Identity
	SessionID string
}

type entry struct {
	identity   domain.Identity
	enqueuedAt time.Time
	sessionID  string
	timer      *time.Timer // fallback-AI timer; nil for direct invites
}

// Queue pairs waiting identities FIFO (longest waiting first) and arms a
// fallback-AI timer for entries that are open to any opponent. All pairing
// and timer cancellation happens under one mutex so an identity can never
// be matched twice.
type Queue struct {
	mu      sync.Mutex
	order   []string // identity ids, oldest first
	entries map[string]*entry

	matches       chan Match
	fallbackDelay time.Duration
	logger        *slog.Logger
}

func NewQueue(fallbackDelay time.Duration, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		entries:       make(map[string]*entry),
		matches:       make(chan Match, 64),
		fallbackDelay: fallbackDelay,
		logger:        logger,
	}
}

// Matches is the channel formed pairings are delivered on.
func (q *Queue) Matches() <-chan Match {
	return q.matches
}

// FallbackDelay returns the configured fallback-AI delay.
func (q *Queue) FallbackDelay() time.Duration {
	return q.fallbackDelay
}

// Enqueue adds identity to the queue. sessionID pre-assigns the id the
// eventual session will carry (generated when empty). armFallback arms the
// fallback-AI timer; direct-invite hosts pass false and wait for
// JoinBySessionID. Duplicate enqueues of the same identity are rejected.
// Reports whether the identity was paired with a waiting peer right away.
func (q *Queue) Enqueue(identity domain.Identity, sessionID string, armFallback bool) (bool, error) {
	q.mu.Lock()

	if _, exists := q.entries[identity.ID]; exists {
		q.mu.Unlock()
		return false, domain.ErrAlreadyQueued
	}
	if sessionID == "" {
		sessionID = uid.NewSessionID()
	}

	// Pair with the longest-waiting entry if one exists. Delivery happens
	// outside the lock so a slow listener can never stall enqueue/dequeue
	// behind it.
	if len(q.order) > 0 {
		host := q.takeLocked(q.order[0])
		q.mu.Unlock()
		q.matches <- Match{
			First:     host.identity,
			Second:    identity,
			SessionID: host.sessionID,
		}
		return true, nil
	}

	e := &entry{
		identity:   identity,
		enqueuedAt: time.Now(),
		sessionID:  sessionID,
	}
	if armFallback {
		id := identity.ID
		e.timer = time.AfterFunc(q.fallbackDelay, func() {
			q.fallbackFire(id)
		})
	}
	q.entries[identity.ID] = e
	q.order = append(q.order, identity.ID)
	metrics.QueueDepth.Set(float64(len(q.order)))
	q.mu.Unlock()
	return false, nil
}

// Dequeue removes an entry and cancels its fallback timer. Used on
// disconnect and on explicit cancel. Reports whether the identity was
// queued.
func (q *Queue) Dequeue(identityID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.takeLocked(identityID) != nil
}

// JoinBySessionID matches joining directly against the waiting host that
// pre-assigned sessionID, bypassing FIFO pairing.
func (q *Queue) JoinBySessionID(sessionID string, joining domain.Identity) error {
	q.mu.Lock()
	for _, id := range q.order {
		e := q.entries[id]
		if e.sessionID != sessionID {
			continue
		}
		host := q.takeLocked(id)
		q.mu.Unlock()
		q.matches <- Match{
			First:     host.identity,
			Second:    joining,
			SessionID: sessionID,
		}
		return nil
	}
	q.mu.Unlock()
	return domain.ErrSessionNotFound
}

// Waiting reports the current queue depth.
func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// takeLocked removes an entry and stops its timer. Caller holds q.mu.
func (q *Queue) takeLocked(identityID string) *entry {
	e, ok := q.entries[identityID]
	if !ok {
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	delete(q.entries, identityID)
	for i, id := range q.order {
		if id == identityID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	metrics.QueueDepth.Set(float64(len(q.order)))
	return e
}

// fallbackFire manufactures an AI opponent for an identity that waited out
// the fallback delay. A lost race with pairing or dequeue is a no-op.
func (q *Queue) fallbackFire(identityID string) {
	q.mu.Lock()
	e := q.takeLocked(identityID)
	q.mu.Unlock()
	if e == nil {
		return
	}

	q.logger.Info("fallback timer fired, pairing with bot",
		"identityId", identityID, "sessionId", e.sessionID)
	q.matches <- Match{
		First:     e.identity,
		Second:    domain.NewBot(),
		SessionID: e.sessionID,
	}
}
