package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/service/bot"
)

// Messenger delivers a server event to one identity. Implementations must
// treat unknown or disconnected identities (and bots) as a no-op.
type Messenger interface {
	Send(identityID string, message domain.ServerMessage) error
}

// Archiver is the persistence collaborator. Calls are made on goroutines
// and their failure never affects session correctness.
type Archiver interface {
	RecordCompletedSession(ctx context.Context, state domain.SessionState, reason string) error
	UpsertIdentity(ctx context.Context, id, name string) error
}

// EventPublisher is the fire-and-forget analytics collaborator.
type EventPublisher interface {
	Publish(event string, payload any)
}

// ResultCache keeps finished-session payloads readable after the registry
// entry is gone.
type ResultCache interface {
	StoreResult(ctx context.Context, state domain.SessionState) error
}

// Deps carries the collaborators and tunables shared by all sessions. Any
// collaborator may be nil; sessions keep working without them.
type Deps struct {
	Archive Archiver
	Events  EventPublisher
	Results ResultCache
	Logger  *slog.Logger

	BotDepth    int
	BotDelay    time.Duration
	ResultGrace time.Duration
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) botDepth() int {
	if d.BotDepth > 0 {
		return d.BotDepth
	}
	return bot.DefaultDepth
}

func (d Deps) publish(event string, payload any) {
	if d.Events != nil {
		d.Events.Publish(event, payload)
	}
}

// archiveCompleted hands a terminal session to the persistence and cache
// collaborators off the turn-processing path.
func (d Deps) archiveCompleted(state domain.SessionState, reason string) {
	log := d.logger()
	if d.Archive != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := d.Archive.RecordCompletedSession(ctx, state, reason); err != nil {
				log.Warn("recording completed session failed",
					"sessionId", state.SessionID, "error", err)
			}
		}()
	}
	if d.Results != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := d.Results.StoreResult(ctx, state); err != nil {
				log.Warn("caching session result failed",
					"sessionId", state.SessionID, "error", err)
			}
		}()
	}
}

// upsertIdentity records a human identity's first appearance, best effort.
func (d Deps) upsertIdentity(identity domain.Identity) {
	if d.Archive == nil || identity.IsBot() {
		return
	}
	log := d.logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Archive.UpsertIdentity(ctx, identity.ID, identity.Name); err != nil {
			log.Warn("identity upsert failed", "identityId", identity.ID, "error", err)
		}
	}()
}
