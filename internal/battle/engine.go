package battle

import (
	"sync"
	"time"
)

// NotificationKind names a state change reported by the engine.
type NotificationKind string

const (
	NotifyPhaseChanged    NotificationKind = "PhaseChanged"
	NotifyActionsReleased NotificationKind = "ActionsReleased"
	NotifyRoundCompleted  NotificationKind = "RoundCompleted"
)

// Notification is a state change reported outward after an engine operation.
type Notification struct {
	Kind    NotificationKind `json:"type"`
	From    Phase            `json:"from,omitempty"`
	To      Phase            `json:"to,omitempty"`
	Round   int              `json:"round"`
	Actions []Action         `json:"actions,omitempty"`
	Forced  bool             `json:"forced,omitempty"`
}

// Snapshot is a consistent read of the engine state.
type Snapshot struct {
	Phase     Phase                   `json:"phase"`
	History   []Phase                 `json:"history"`
	Durations map[Phase]time.Duration `json:"-"`
	Clock     float64                 `json:"clock"`
	TimeScale float64                 `json:"timeScale"`
	Pending   []Action                `json:"pending"`
	Completed []Action                `json:"completed"`
	Round     int                     `json:"round"`
}

type options struct {
	waitingTimeout float64
	timeScale      float64
	observer       func(Notification)
}

// Option configures an Engine.
type Option func(*options)

// WithWaitingTimeout overrides DefaultWaitingTimeout.
func WithWaitingTimeout(d time.Duration) Option {
	return func(o *options) { o.waitingTimeout = d.Seconds() }
}

// WithTimeScale sets the initial match clock multiplier.
func WithTimeScale(scale float64) Option {
	return func(o *options) { o.timeScale = scale }
}

// WithObserver registers fn to receive notifications. fn is called after the
// engine lock is released, in the goroutine that performed the operation.
func WithObserver(fn func(Notification)) Option {
	return func(o *options) { o.observer = fn }
}

// Engine is the per-match battle orchestration engine. Every operation runs
// under a single mutex, so at most one tick is in flight at a time.
type Engine struct {
	mu       sync.Mutex
	m        *StateMachine
	observer func(Notification)
}

func NewEngine(opts ...Option) *Engine {
	o := options{waitingTimeout: DefaultWaitingTimeout, timeScale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	m := NewStateMachine(o.waitingTimeout)
	m.queue.SetTimeScale(o.timeScale)
	return &Engine{m: m, observer: o.observer}
}

// Tick feeds delta into the current phase handler and returns the actions
// released during this tick.
func (e *Engine) Tick(delta time.Duration) ([]Action, error) {
	e.mu.Lock()
	released, err := e.m.Tick(delta.Seconds())
	notes := e.m.drainNotifications()
	e.mu.Unlock()

	e.publish(notes)
	return released, err
}

// SubmitAction enqueues an action. It fails unless the match is in Fighting.
func (e *Engine) SubmitAction(a Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.EnqueueAction(a)
}

// ForceEvent delivers an external event to the state machine.
func (e *Engine) ForceEvent(ev Event) error {
	e.mu.Lock()
	err := e.m.HandleEvent(ev)
	notes := e.m.drainNotifications()
	e.mu.Unlock()

	e.publish(notes)
	return err
}

// RequestTransition asks for a direct phase change along a legal edge.
func (e *Engine) RequestTransition(target Phase) error {
	e.mu.Lock()
	err := e.m.RequestTransition(target)
	notes := e.m.drainNotifications()
	e.mu.Unlock()

	e.publish(notes)
	return err
}

// Reset returns the match to Init with an empty history, queue and duration map.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.m.Reset()
	notes := e.m.drainNotifications()
	e.mu.Unlock()

	e.publish(notes)
}

// SetTimeScale changes the match clock multiplier; 0 pauses combat.
func (e *Engine) SetTimeScale(scale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m.queue.SetTimeScale(scale)
}

func (e *Engine) CurrentPhase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.CurrentPhase()
}

func (e *Engine) PhaseHistory() []Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.History()
}

// PhaseDuration returns the cumulative time spent in p, if p was ever left.
func (e *Engine) PhaseDuration(p Phase) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.Duration(p)
}

// CompletedActions returns the actions released during the current round.
func (e *Engine) CompletedActions() []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.CompletedActions()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Phase:     e.m.CurrentPhase(),
		History:   e.m.History(),
		Durations: e.m.Durations(),
		Clock:     e.m.queue.Clock(),
		TimeScale: e.m.queue.TimeScale(),
		Pending:   e.m.queue.Remaining(),
		Completed: e.m.CompletedActions(),
		Round:     e.m.Round(),
	}
}

func (e *Engine) publish(notes []Notification) {
	if e.observer == nil {
		return
	}
	for _, n := range notes {
		e.observer(n)
	}
}
