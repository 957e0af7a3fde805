package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":8080", cfg.ListenAddr)
	req.Equal(15*time.Second, cfg.FallbackDelay)
	req.Equal(30*time.Second, cfg.ReconnectWindow)
	req.Equal(6, cfg.BotDepth)
	req.Empty(cfg.DatabaseURL)
	req.Equal("c4.events", cfg.EventsChannel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("FALLBACK_DELAY", "3s")
	t.Setenv("BOT_DEPTH", "8")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":9999", cfg.ListenAddr)
	req.Equal(3*time.Second, cfg.FallbackDelay)
	req.Equal(8, cfg.BotDepth)
	req.Equal("redis://localhost:6379/0", cfg.RedisURL)
}
