package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
)

const resultKeyPrefix = "result:"

// Results caches finished-session payloads with a TTL so clients that
// query after the grace-period registry removal can still read the
// outcome.
type Results struct {
	client *redis.Client
	ttl    time.Duration
}

var _ game.ResultCache = (*Results)(nil)

func NewResults(client *redis.Client, ttl time.Duration) *Results {
	return &Results{client: client, ttl: ttl}
}

func (r *Results) StoreResult(ctx context.Context, state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, resultKeyPrefix+state.SessionID, data, r.ttl).Err()
}

// GetResult returns the cached payload, or domain.ErrSessionNotFound when
// the result expired or never existed.
func (r *Results) GetResult(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	data, err := r.client.Get(ctx, resultKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
