package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
)

// Clock abstracts wall time so runners can be stepped in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the host clock.
var SystemClock Clock = systemClock{}

// Runner drives one engine from a ticker, feeding it the wall time elapsed
// since the previous tick.
type Runner struct {
	engine   *battle.Engine
	clock    Clock
	interval time.Duration
	logger   *slog.Logger
	last     time.Time
}

func NewRunner(engine *battle.Engine, clock Clock, interval time.Duration, logger *slog.Logger) *Runner {
	if clock == nil {
		clock = SystemClock
	}
	return &Runner{
		engine:   engine,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks the engine until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.last = r.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.step(r.clock.Now())
		}
	}
}

// step ticks the engine with the time elapsed since the previous step.
func (r *Runner) step(now time.Time) []battle.Action {
	delta := now.Sub(r.last)
	r.last = now
	if delta < 0 {
		delta = 0
	}

	released, err := r.engine.Tick(delta)
	if err != nil {
		r.logger.Warn("tick failed", "error", err, "code", battle.CodeOf(err))
	}
	return released
}
