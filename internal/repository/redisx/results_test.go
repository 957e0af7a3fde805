package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sampleState() domain.SessionState {
	winner := domain.NewHuman("alice")
	return domain.SessionState{
		SessionID:  "s-1",
		Identities: [2]domain.Identity{winner, domain.NewBot()},
		Status:     domain.StatusWon,
		Board:      (domain.Board{}).Cells(),
		Winner:     &winner,
		CreatedAt:  time.Now().Add(-time.Minute).UnixMilli(),
		LastMoveAt: time.Now().UnixMilli(),
	}
}

func TestResults_StoreAndGet(t *testing.T) {
	req := require.New(t)
	results := NewResults(testClient(t), time.Hour)
	state := sampleState()

	req.NoError(results.StoreResult(context.Background(), state))

	got, err := results.GetResult(context.Background(), "s-1")
	req.NoError(err)
	req.Equal(state.SessionID, got.SessionID)
	req.Equal(state.Status, got.Status)
	req.NotNil(got.Winner)
	req.Equal(state.Winner.ID, got.Winner.ID)
}

func TestResults_MissingIsSessionNotFound(t *testing.T) {
	req := require.New(t)
	results := NewResults(testClient(t), time.Hour)

	_, err := results.GetResult(context.Background(), "nope")
	req.ErrorIs(err, domain.ErrSessionNotFound)
}

func TestResults_EntriesCarryTTL(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	results := NewResults(client, time.Minute)

	req.NoError(results.StoreResult(context.Background(), sampleState()))

	mr.FastForward(2 * time.Minute)
	_, err := results.GetResult(context.Background(), "s-1")
	req.ErrorIs(err, domain.ErrSessionNotFound)
}

func TestPublisher_Publish(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sub := client.Subscribe(context.Background(), "events")
	_, err := sub.Receive(context.Background())
	req.NoError(err)
	defer sub.Close()

	p := NewPublisher(client, "events", nil)
	p.Publish("session_started", map[string]any{"sessionId": "s-1"})

	select {
	case msg := <-sub.Channel():
		req.Contains(msg.Payload, "session_started")
		req.Contains(msg.Payload, "s-1")
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
