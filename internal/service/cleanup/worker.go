package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhayymishraa/4-in-a-row/internal/service/game"
)

// Worker periodically sweeps the session registry for orphaned in-progress
// sessions whose participants dropped and never came back.
type Worker struct {
	registry *game.Registry
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

func NewWorker(registry *game.Registry, interval, maxAge time.Duration, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		registry: registry,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. Start it on its own goroutine.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("cleanup worker started", "interval", w.interval, "maxAge", w.maxAge)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.registry.SweepStale(w.maxAge)
		}
	}
}
