package redisx

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
)

// Publisher emits analytics events on a Redis pub/sub channel. Events are
// fire-and-forget: publishing happens on its own goroutine and failures
// are only logged, so analytics can never slow down or fail a move.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

var _ game.EventPublisher = (*Publisher)(nil)

func NewPublisher(client *redis.Client, channel string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, channel: channel, logger: logger}
}

type envelope struct {
	Event   string `json:"event"`
	At      int64  `json:"at"`
	Payload any    `json:"payload"`
}

func (p *Publisher) Publish(event string, payload any) {
	data, err := json.Marshal(envelope{
		Event:   event,
		At:      time.Now().UnixMilli(),
		Payload: payload,
	})
	if err != nil {
		p.logger.Warn("analytics event marshal failed", "event", event, "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
			p.logger.Warn("analytics publish failed", "event", event, "error", err)
		}
	}()
}
