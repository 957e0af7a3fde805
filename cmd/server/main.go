package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhayymishraa/4-in-a-row/internal/config"
	"github.com/abhayymishraa/4-in-a-row/internal/repository/postgres"
	"github.com/abhayymishraa/4-in-a-row/internal/repository/redisx"
	"github.com/abhayymishraa/4-in-a-row/internal/service/cleanup"
	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
	"github.com/abhayymishraa/4-in-a-row/internal/service/matchmaking"
	"github.com/abhayymishraa/4-in-a-row/internal/transport/ws"
	"github.com/abhayymishraa/4-in-a-row/pkg/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	deps := game.Deps{
		Logger:      logger,
		BotDepth:    cfg.BotDepth,
		BotDelay:    cfg.BotDelay,
		ResultGrace: cfg.ResultGrace,
	}

	// Postgres archives finished sessions. It is optional: without it the
	// engine runs fully in memory.
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL,
			cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
			time.Duration(cfg.DBConnMaxLifetimeMin)*time.Minute)
		if err != nil {
			logger.Error("database connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := postgres.RunMigrations(db); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("database ready")
		deps.Archive = postgres.NewArchive(db)
	}

	// Redis backs the result cache and analytics stream, also optional.
	var results *redisx.Results
	if cfg.RedisURL != "" {
		if client := redisx.Connect(cfg.RedisURL, logger); client != nil {
			defer client.Close()
			results = redisx.NewResults(client, cfg.ResultTTL)
			deps.Results = results
			deps.Events = redisx.NewPublisher(client, cfg.EventsChannel, logger)
		}
	}

	registry := game.NewRegistry(deps)
	queue := matchmaking.NewQueue(cfg.FallbackDelay, logger)
	tokens := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)
	cm := ws.NewConnectionManager()

	var resultReader ws.ResultReader
	if results != nil {
		resultReader = results
	}
	handler := ws.NewHandler(cm, queue, registry, resultReader, tokens, cfg.ReconnectWindow, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go matchmaking.Listen(ctx, queue, handler)
	go cleanup.NewWorker(registry, cfg.SweepInterval, cfg.SessionMaxAge, logger).Run(ctx)

	router := mux.NewRouter()
	router.Handle("/ws", handler)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server exited")
}
