package match

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerStepFeedsElapsedTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	engine := battle.NewEngine(battle.WithWaitingTimeout(5 * time.Second))
	r := NewRunner(engine, clock, time.Second, discardLogger())
	r.last = clock.Now()

	if err := engine.RequestTransition(battle.PhaseWaiting); err != nil {
		t.Fatalf("transition: %v", err)
	}

	r.step(clock.Advance(time.Second))
	r.step(clock.Advance(3 * time.Second))
	if got := engine.CurrentPhase(); got != battle.PhaseWaiting {
		t.Fatalf("phase = %s before timeout, want Waiting", got)
	}
	r.step(clock.Advance(time.Second))
	if got := engine.CurrentPhase(); got != battle.PhaseFighting {
		t.Fatalf("phase = %s after timeout, want Fighting", got)
	}

	if err := engine.SubmitAction(battle.Action{Kind: battle.ActionAttack, UnitID: "u1", ExecuteAt: 0.5}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	released := r.step(clock.Advance(time.Second))
	if len(released) != 1 || released[0].UnitID != "u1" {
		t.Errorf("released = %+v, want [u1]", released)
	}
}

func TestRunnerStepIgnoresClockGoingBackwards(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	engine := battle.NewEngine()
	r := NewRunner(engine, clock, time.Second, discardLogger())
	r.last = clock.Now()

	// Init passes straight through to Waiting on the first tick.
	r.step(clock.Advance(-time.Hour))
	if got := engine.CurrentPhase(); got != battle.PhaseWaiting {
		t.Fatalf("phase = %s, want Waiting", got)
	}
	if d, _ := engine.PhaseDuration(battle.PhaseInit); d != 0 {
		t.Errorf("Init duration = %v, want 0", d)
	}

	r.step(clock.Advance(time.Second))
	if err := engine.ForceEvent(battle.EventWaitingTimedOut); err != nil {
		t.Fatalf("force: %v", err)
	}
	d, ok := engine.PhaseDuration(battle.PhaseWaiting)
	if !ok || d != time.Second {
		t.Errorf("Waiting duration = %v (%v), want 1s", d, ok)
	}
}
