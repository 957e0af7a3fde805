package redisx

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client from a URL. Redis backs only optional
// collaborators (analytics, result cache), so an unreachable server is a
// warning, not a startup failure: callers get a nil client and run
// degraded.
func Connect(url string, logger *slog.Logger) *redis.Client {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid redis url, running without redis", "error", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, running without redis", "error", err)
		client.Close()
		return nil
	}

	logger.Info("redis connected")
	return client
}
