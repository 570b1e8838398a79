// Package match owns the live matches of the process and the goroutines that
// tick them.
package match

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/notify"
)

var (
	ErrNotFound = errors.New("match not found")
	ErrClosed   = errors.New("registry closed")
)

// Match is one running battle.
type Match struct {
	ID        string
	CreatedAt time.Time
	Engine    *battle.Engine

	cancel context.CancelFunc
}

// Config holds the defaults applied to every new match.
type Config struct {
	TickInterval   time.Duration
	WaitingTimeout time.Duration
	TimeScale      float64
}

type Registry struct {
	cfg       Config
	clock     Clock
	publisher notify.Publisher
	logger    *slog.Logger

	mu      sync.RWMutex
	matches map[string]*Match
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	g      errgroup.Group
}

// NewRegistry returns a registry whose runners stop when ctx is done or Close is called.
func NewRegistry(ctx context.Context, cfg Config, clock Clock, publisher notify.Publisher, logger *slog.Logger) *Registry {
	if clock == nil {
		clock = SystemClock
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 16 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Registry{
		cfg:       cfg,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		matches:   make(map[string]*Match),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Create starts a new match in PhaseInit and begins ticking it.
func (r *Registry) Create() (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	id := uuid.NewString()
	logger := r.logger.With("match_id", id)
	engine := battle.NewEngine(
		battle.WithWaitingTimeout(r.cfg.WaitingTimeout),
		battle.WithTimeScale(r.cfg.TimeScale),
		battle.WithObserver(r.observer(id, logger)),
	)

	ctx, cancel := context.WithCancel(r.ctx)
	m := &Match{
		ID:        id,
		CreatedAt: r.clock.Now(),
		Engine:    engine,
		cancel:    cancel,
	}
	r.matches[id] = m

	runner := NewRunner(engine, r.clock, r.cfg.TickInterval, logger)
	r.g.Go(func() error { return runner.Run(ctx) })

	logger.Info("match created")
	return m, nil
}

func (r *Registry) Get(id string) (*Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// List returns live matches ordered by creation time.
func (r *Registry) List() []*Match {
	r.mu.RLock()
	out := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Match) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Remove stops the match runner and forgets the match.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	m, ok := r.matches[id]
	delete(r.matches, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	m.cancel()
	r.logger.Info("match removed", "match_id", id)
	return nil
}

// Close stops every runner and waits for them to return.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	for id := range r.matches {
		delete(r.matches, id)
	}
	r.mu.Unlock()

	r.cancel()
	return r.g.Wait()
}

func (r *Registry) observer(id string, logger *slog.Logger) func(battle.Notification) {
	return func(n battle.Notification) {
		switch n.Kind {
		case battle.NotifyPhaseChanged:
			logger.Info("phase changed", "from", n.From, "to", n.To, "round", n.Round, "forced", n.Forced)
		case battle.NotifyActionsReleased:
			logger.Debug("actions released", "count", len(n.Actions), "round", n.Round)
		case battle.NotifyRoundCompleted:
			logger.Info("round completed", "round", n.Round, "actions", len(n.Actions))
		}

		if r.publisher == nil {
			return
		}
		if err := r.publisher.Publish(r.ctx, notify.Event{MatchID: id, Notification: n}); err != nil {
			logger.Warn("publishing event failed", "error", err)
		}
	}
}
