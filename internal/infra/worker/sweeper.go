package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Evicter drops expired entries (idle sessions, rate limit windows) and reports how many went.
type Evicter interface {
	Evict() int
}

// Sweeper calls Evict on a fixed tick until its context is cancelled.
type Sweeper struct {
	target       Evicter
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewSweeper(name string, target Evicter, tickInterval time.Duration, logger *zap.Logger) *Sweeper {
	if tickInterval <= 0 {
		tickInterval = time.Minute // Roda a cada 1 min
	}
	return &Sweeper{
		target:       target,
		tickInterval: tickInterval,
		logger:       logger.Named("sweeper").With(zap.String("target", name)),
	}
}

// Start blocks until ctx is cancelled.
func (w *Sweeper) Start(ctx context.Context) {
	w.logger.Info("sweeper started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Sweeper) sweep() {
	if n := w.target.Evict(); n > 0 {
		w.logger.Debug("expired entries evicted", zap.Int("count", n))
	}
}
