package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/metrics"
	"github.com/abhayymishraa/4-in-a-row/internal/service/bot"
)

// Reasons a session finishes with.
const (
	ReasonConnectFour = "connect-four"
	ReasonDraw        = "draw"
	ReasonForfeit     = "forfeit"
)

// Session binds two identities to one game. The mutex serializes every
// turn mutation so two near-simultaneous moves can't corrupt whose-turn
// state; whose-turn itself is always derived from the engine, never stored
// separately.
type Session struct {
	ID     string
	First  domain.Identity // seat P1
	Second domain.Identity // seat P2

	Engine     *domain.Engine
	CreatedAt  time.Time
	LastMoveAt time.Time
	Winner     *domain.Identity
	Reason     string

	mu            sync.Mutex
	deps          Deps
	registry      *Registry
	forfeitTimers map[string]*time.Timer
	removeTimer   *time.Timer
}

func newSession(id string, first, second domain.Identity, deps Deps, registry *Registry) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		First:         first,
		Second:        second,
		Engine:        domain.NewEngine(),
		CreatedAt:     now,
		LastMoveAt:    now,
		deps:          deps,
		registry:      registry,
		forfeitTimers: make(map[string]*time.Timer),
	}
}

func (s *Session) seatOf(identityID string) (domain.Cell, bool) {
	switch identityID {
	case s.First.ID:
		return domain.P1, true
	case s.Second.ID:
		return domain.P2, true
	}
	return domain.Empty, false
}

func (s *Session) identityFor(cell domain.Cell) domain.Identity {
	if cell == domain.P1 {
		return s.First
	}
	return s.Second
}

func (s *Session) opponentOf(identityID string) domain.Identity {
	if identityID == s.First.ID {
		return s.Second
	}
	return s.First
}

// Contains reports whether identityID holds a seat in this session.
func (s *Session) Contains(identityID string) bool {
	_, ok := s.seatOf(identityID)
	return ok
}

// State snapshots the full session payload.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() domain.SessionState {
	state := domain.SessionState{
		SessionID:  s.ID,
		Identities: [2]domain.Identity{s.First, s.Second},
		Status:     s.Engine.Status(),
		Board:      s.Engine.Board().Cells(),
		Winner:     s.Winner,
		CreatedAt:  s.CreatedAt.UnixMilli(),
		LastMoveAt: s.LastMoveAt.UnixMilli(),
	}
	if turn := s.Engine.Turn(); turn != domain.Empty {
		state.Turn = s.identityFor(turn).ID
	}
	return state
}

// HandleMove validates turn ownership, applies the move and broadcasts the
// outcome. When the new mover is the bot, its move is computed on a
// separate goroutine so search never blocks other sessions.
func (s *Session) HandleMove(identityID string, column int, m Messenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seatOf(identityID)
	if !ok {
		return domain.ErrIdentityNotInSession
	}
	if s.Engine.Finished() {
		return domain.ErrGameOver
	}
	if s.Engine.Turn() != seat {
		return domain.ErrNotYourTurn
	}

	res, err := s.applyLocked(seat, s.identityFor(seat), column, m)
	if err != nil {
		return err
	}

	if res.Status == domain.StatusInProgress && s.identityFor(s.Engine.Turn()).IsBot() {
		go s.runBot(m)
	}
	return nil
}

// applyLocked performs the engine move plus everything that rides along
// with it: timestamps, broadcast, analytics and the terminal transition.
// Caller holds s.mu.
func (s *Session) applyLocked(seat domain.Cell, mover domain.Identity, column int, m Messenger) (domain.MoveResult, error) {
	res, err := s.Engine.ApplyMove(column)
	if err != nil {
		return res, err
	}
	s.LastMoveAt = time.Now()
	metrics.MovesApplied.Inc()

	state := s.stateLocked()
	s.sendBoth(m, domain.ServerMessage{
		Type:       domain.MsgMoveApplied,
		SessionID:  s.ID,
		IdentityID: mover.ID,
		Column:     res.Column,
		Row:        res.Row,
		Session:    &state,
	})
	s.deps.publish("move_made", map[string]any{
		"sessionId":  s.ID,
		"identityId": mover.ID,
		"column":     res.Column,
		"row":        res.Row,
	})

	switch res.Status {
	case domain.StatusWon:
		s.finishLocked(m, ReasonConnectFour, false)
	case domain.StatusDrawn:
		s.finishLocked(m, ReasonDraw, false)
	}
	return res, nil
}

// runBot keeps moving while the mover remains the bot. The board is
// snapshotted under the lock, searched outside it, and the chosen column
// re-validated under the lock before applying.
func (s *Session) runBot(m Messenger) {
	for {
		if s.deps.BotDelay > 0 {
			time.Sleep(s.deps.BotDelay)
		}

		s.mu.Lock()
		if s.Engine.Finished() {
			s.mu.Unlock()
			return
		}
		seat := s.Engine.Turn()
		mover := s.identityFor(seat)
		if !mover.IsBot() {
			s.mu.Unlock()
			return
		}
		board := s.Engine.Board()
		s.mu.Unlock()

		started := time.Now()
		column := bot.ChooseDepth(board, seat, s.deps.botDepth())
		metrics.BotMoveDuration.Observe(time.Since(started).Seconds())
		if column < 0 {
			return
		}

		s.mu.Lock()
		if s.Engine.Finished() || s.Engine.Turn() != seat {
			s.mu.Unlock()
			continue
		}
		_, err := s.applyLocked(seat, mover, column, m)
		if err != nil {
			// The engine rejected the searched column; fall back to any
			// legal one rather than stall the session.
			if legal := s.Engine.Board().LegalColumns(); len(legal) > 0 {
				_, err = s.applyLocked(seat, mover, legal[rand.IntN(len(legal))], m)
			}
		}
		s.mu.Unlock()
		if err != nil {
			s.deps.logger().Error("bot move failed", "sessionId", s.ID, "error", err)
			return
		}
	}
}

// finishLocked runs the terminal transition exactly once: resolves the
// winner, broadcasts session-over, hands the result to the collaborators
// and schedules registry removal after the grace period. Caller holds s.mu.
func (s *Session) finishLocked(m Messenger, reason string, forfeit bool) {
	for id, t := range s.forfeitTimers {
		t.Stop()
		delete(s.forfeitTimers, id)
	}

	if cell := s.Engine.Winner(); cell != domain.Empty {
		winner := s.identityFor(cell)
		s.Winner = &winner
	}
	s.Reason = reason

	state := s.stateLocked()
	s.sendBoth(m, domain.ServerMessage{
		Type:    domain.MsgSessionOver,
		Session: &state,
		Winner:  s.Winner,
		Forfeit: forfeit,
	})

	metrics.SessionsCompleted.WithLabelValues(reason).Inc()
	s.deps.publish("session_completed", state)
	s.deps.archiveCompleted(state, reason)

	if s.registry != nil {
		grace := s.deps.ResultGrace
		if grace <= 0 {
			grace = time.Minute
		}
		id := s.ID
		s.removeTimer = time.AfterFunc(grace, func() {
			s.registry.Remove(id)
		})
	}
}

// HandleDisconnect starts the reconnection window for identityID. The
// session stays alive; only when the window elapses does the opponent get
// the win.
func (s *Session) HandleDisconnect(identityID string, window time.Duration, m Messenger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Contains(identityID) || s.Engine.Finished() {
		return
	}
	if _, armed := s.forfeitTimers[identityID]; armed {
		return
	}

	s.forfeitTimers[identityID] = time.AfterFunc(window, func() {
		s.forfeit(identityID, m)
	})

	opponent := s.opponentOf(identityID)
	if !opponent.IsBot() {
		m.Send(opponent.ID, domain.ServerMessage{
			Type:       domain.MsgOpponentDisconnected,
			IdentityID: identityID,
		})
	}
	s.deps.publish("identity_disconnected", map[string]any{
		"sessionId":  s.ID,
		"identityId": identityID,
	})
	s.deps.logger().Info("identity disconnected, reconnection window started",
		"sessionId", s.ID, "identityId", identityID, "window", window)
}

// HandleReconnect cancels the forfeit timer the instant the identity is
// back and tells the opponent.
func (s *Session) HandleReconnect(identityID string, m Messenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Contains(identityID) {
		return domain.ErrIdentityNotInSession
	}
	if t, ok := s.forfeitTimers[identityID]; ok {
		t.Stop()
		delete(s.forfeitTimers, identityID)
	}

	opponent := s.opponentOf(identityID)
	if !opponent.IsBot() {
		m.Send(opponent.ID, domain.ServerMessage{
			Type:       domain.MsgOpponentReconnected,
			IdentityID: identityID,
		})
	}
	return nil
}

// forfeit awards the win to identityID's opponent after the reconnection
// window elapsed.
func (s *Session) forfeit(identityID string, m Messenger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Engine.Finished() {
		return
	}
	seat, ok := s.seatOf(identityID)
	if !ok {
		return
	}
	delete(s.forfeitTimers, identityID)
	s.Engine.Resign(seat)
	s.deps.logger().Info("reconnection window elapsed, forfeiting",
		"sessionId", s.ID, "identityId", identityID)
	s.finishLocked(m, ReasonForfeit, true)
}

// Close stops all timers. Used when a session is removed by the sweep.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.forfeitTimers {
		t.Stop()
		delete(s.forfeitTimers, id)
	}
	if s.removeTimer != nil {
		s.removeTimer.Stop()
		s.removeTimer = nil
	}
}

func (s *Session) sendBoth(m Messenger, msg domain.ServerMessage) {
	if !s.First.IsBot() {
		m.Send(s.First.ID, msg)
	}
	if !s.Second.IsBot() {
		m.Send(s.Second.ID, msg)
	}
}

func (s *Session) lastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastMoveAt
}

func (s *Session) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Finished()
}
