package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from the environment. A .env file is honored when
// present so local runs match the deployed process.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Matchmaking / session timing. Both windows are wall-clock.
	FallbackDelay   time.Duration `envconfig:"FALLBACK_DELAY" default:"15s"`
	ReconnectWindow time.Duration `envconfig:"RECONNECT_WINDOW" default:"30s"`
	ResultGrace     time.Duration `envconfig:"RESULT_GRACE" default:"60s"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"10m"`
	SessionMaxAge   time.Duration `envconfig:"SESSION_MAX_AGE" default:"30m"`

	BotDepth int           `envconfig:"BOT_DEPTH" default:"6"`
	BotDelay time.Duration `envconfig:"BOT_DELAY" default:"500ms"`

	TokenSecret string        `envconfig:"TOKEN_SECRET" default:"change-me-in-production"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"2h"`

	// Persistence collaborator. Empty DATABASE_URL disables it.
	DatabaseURL          string `envconfig:"DATABASE_URL"`
	DBMaxOpenConns       int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns       int    `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	DBConnMaxLifetimeMin int    `envconfig:"DB_CONN_MAX_LIFETIME_MINUTES" default:"5"`

	// Analytics / result cache collaborator. Empty REDIS_URL disables it.
	RedisURL      string        `envconfig:"REDIS_URL"`
	ResultTTL     time.Duration `envconfig:"RESULT_TTL" default:"1h"`
	EventsChannel string        `envconfig:"EVENTS_CHANNEL" default:"c4.events"`
}

// Load reads .env (best effort) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
