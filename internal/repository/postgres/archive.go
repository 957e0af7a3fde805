package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
)

// Archive persists finished sessions and the identities that played them.
// It is a best-effort collaborator: callers run it off the turn-processing
// path and only log failures.
type Archive struct {
	db *sql.DB
}

var _ game.Archiver = (*Archive)(nil)

func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// RecordCompletedSession stores one terminal outcome, forfeits included.
// Replays of the same session id are ignored.
func (a *Archive) RecordCompletedSession(ctx context.Context, state domain.SessionState, reason string) error {
	board, err := json.Marshal(state.Board)
	if err != nil {
		return err
	}

	var winnerID *string
	if state.Winner != nil {
		winnerID = &state.Winner.ID
	}

	first, second := state.Identities[0], state.Identities[1]
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO completed_sessions
			(session_id, first_id, first_name, second_id, second_name,
			 second_is_bot, winner_id, reason, board, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO NOTHING`,
		state.SessionID,
		first.ID, first.Name,
		second.ID, second.Name, second.IsBot(),
		winnerID, reason, board,
		time.UnixMilli(state.CreatedAt),
		time.UnixMilli(state.LastMoveAt),
	)
	return err
}

// UpsertIdentity records a human identity's current display name.
func (a *Archive) UpsertIdentity(ctx context.Context, id, name string) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO identities (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, last_seen = now()`,
		id, name,
	)
	return err
}
