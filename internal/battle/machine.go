package battle

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// DefaultWaitingTimeout is how long, in seconds, a match stays in Waiting
// before combat starts on its own.
const DefaultWaitingTimeout = 60.0

// StateMachine drives the six-phase round cycle and owns the action queue
// used during Fighting. Time inside the machine is the sum of tick deltas,
// in seconds, so behaviour is deterministic for a given tick sequence.
//
// StateMachine is not safe for concurrent use; see Engine.
type StateMachine struct {
	current   Phase
	history   []Phase
	durations map[Phase]time.Duration

	uptime    float64 // seconds of tick time since construction
	enteredAt float64 // uptime when current was entered

	waitingStarted bool
	waitingStart   float64
	waitingTimeout float64

	queue     *ActionQueue
	completed []Action
	round     int

	outbox []Notification
}

type phaseHooks struct {
	enter func(m *StateMachine, from Phase)
	exit  func(m *StateMachine)
	tick  func(m *StateMachine, delta float64) ([]Action, error)
}

var hooks map[Phase]phaseHooks

func init() {
	hooks = map[Phase]phaseHooks{
		PhaseInit: {
			enter: (*StateMachine).enterInit,
			tick:  (*StateMachine).tickPassThrough,
		},
		PhaseWaiting: {
			enter: func(m *StateMachine, _ Phase) { m.startWaitingTimer() },
			exit:  (*StateMachine).clearWaitingTimer,
			tick:  (*StateMachine).tickWaiting,
		},
		PhaseFighting: {
			enter: (*StateMachine).enterFighting,
			exit:  (*StateMachine).exitFighting,
			tick:  (*StateMachine).tickFighting,
		},
		PhaseEnded: {
			enter: (*StateMachine).enterEnded,
			tick:  (*StateMachine).tickPassThrough,
		},
		PhaseResult: {
			tick: (*StateMachine).tickPassThrough,
		},
		PhaseNextRound: {
			tick: (*StateMachine).tickPassThrough,
		},
	}
}

// NewStateMachine returns a machine in PhaseInit with history [Init], round 1.
func NewStateMachine(waitingTimeout float64) *StateMachine {
	if !(waitingTimeout >= 0) {
		waitingTimeout = DefaultWaitingTimeout
	}
	return &StateMachine{
		current:        PhaseInit,
		history:        []Phase{PhaseInit},
		durations:      make(map[Phase]time.Duration),
		waitingTimeout: waitingTimeout,
		queue:          NewActionQueue(),
		round:          1,
	}
}

func (m *StateMachine) CurrentPhase() Phase { return m.current }

// History returns a copy of the phases visited since construction or the last reset.
func (m *StateMachine) History() []Phase { return slices.Clone(m.history) }

// Duration returns the accumulated time spent in p. The second result is
// false until p has been left at least once.
func (m *StateMachine) Duration(p Phase) (time.Duration, bool) {
	d, ok := m.durations[p]
	return d, ok
}

// Durations returns a copy of the accumulated per-phase durations.
func (m *StateMachine) Durations() map[Phase]time.Duration { return maps.Clone(m.durations) }

func (m *StateMachine) Queue() *ActionQueue { return m.queue }

func (m *StateMachine) Round() int { return m.round }

// CompletedActions returns the actions released since Fighting was last entered.
func (m *StateMachine) CompletedActions() []Action { return slices.Clone(m.completed) }

// RequestTransition moves to target when (current, target) is a legal edge.
// On failure nothing is mutated.
func (m *StateMachine) RequestTransition(target Phase) error {
	from := m.current
	if !from.CanTransitionTo(target) {
		return &TransitionError{From: from, To: target}
	}

	m.accumulate(from)
	if h := hooks[from]; h.exit != nil {
		h.exit(m)
	}
	m.history = append(m.history, target)
	m.current = target
	m.enteredAt = m.uptime
	m.emit(Notification{Kind: NotifyPhaseChanged, From: from, To: target, Round: m.round})
	if h := hooks[target]; h.enter != nil {
		h.enter(m, from)
	}
	return nil
}

// HandleEvent reacts to an external event. Only WaitingTimedOut while in
// Waiting has an effect; every other pair is rejected without mutation.
func (m *StateMachine) HandleEvent(ev Event) error {
	if ev == EventWaitingTimedOut && m.current == PhaseWaiting {
		return m.RequestTransition(PhaseFighting)
	}
	return &EventError{Event: ev, Phase: m.current}
}

// Tick advances machine time by delta seconds and runs the current phase's
// handler. It returns the actions released during this tick.
func (m *StateMachine) Tick(delta float64) ([]Action, error) {
	if !(delta > 0) {
		delta = 0
	}
	h, ok := hooks[m.current]
	if !ok || h.tick == nil {
		panic(fmt.Sprintf("battle: no tick handler for phase %q", m.current))
	}
	m.uptime += delta
	return h.tick(m, delta)
}

// EnqueueAction schedules a on the action queue. It is only legal in Fighting.
func (m *StateMachine) EnqueueAction(a Action) error {
	if m.current != PhaseFighting {
		return &PhaseError{Op: "enqueue action", Phase: m.current}
	}
	return m.queue.Enqueue(a)
}

// Reset forces the machine back to Init regardless of the current phase.
// The exit hook of the current phase runs. Init's enter hook does not: it
// belongs to the NextRound -> Init edge, and Reset restores Init's state
// itself. Durations are cleared entirely, including the partial time of the
// phase being left, and the round counter restarts at 1.
func (m *StateMachine) Reset() {
	from := m.current
	if h := hooks[from]; h.exit != nil {
		h.exit(m)
	}

	m.current = PhaseInit
	m.history = []Phase{PhaseInit}
	m.durations = make(map[Phase]time.Duration)
	m.enteredAt = m.uptime
	m.queue.Clear()
	m.clearWaitingTimer()
	m.completed = nil
	m.round = 1

	m.emit(Notification{Kind: NotifyPhaseChanged, From: from, To: PhaseInit, Round: m.round, Forced: true})
}

// WaitingElapsed returns how long the waiting timer has been running.
func (m *StateMachine) WaitingElapsed() (float64, bool) {
	if !m.waitingStarted {
		return 0, false
	}
	return m.uptime - m.waitingStart, true
}

// drainNotifications hands pending notifications to the caller.
func (m *StateMachine) drainNotifications() []Notification {
	out := m.outbox
	m.outbox = nil
	return out
}

func (m *StateMachine) emit(n Notification) {
	m.outbox = append(m.outbox, n)
}

func (m *StateMachine) accumulate(p Phase) {
	elapsed := m.uptime - m.enteredAt
	if elapsed < 0 {
		elapsed = 0
	}
	m.durations[p] += time.Duration(elapsed * float64(time.Second))
}

func (m *StateMachine) startWaitingTimer() {
	m.waitingStarted = true
	m.waitingStart = m.uptime
}

func (m *StateMachine) clearWaitingTimer() {
	m.waitingStarted = false
	m.waitingStart = 0
}

// A round that wraps around from NextRound starts from a clean match clock.
func (m *StateMachine) enterInit(from Phase) {
	if from == PhaseNextRound {
		m.queue.Clear()
		m.completed = nil
		m.round++
	}
}

func (m *StateMachine) enterFighting(Phase) {
	m.clearWaitingTimer()
	m.completed = nil
}

// Leaving Fighting early (for example through Reset) must not leave actions behind.
func (m *StateMachine) exitFighting() {
	m.queue.Discard()
}

func (m *StateMachine) enterEnded(Phase) {
	m.emit(Notification{
		Kind:    NotifyRoundCompleted,
		Round:   m.round,
		Actions: slices.Clone(m.completed),
	})
}

func (m *StateMachine) tickPassThrough(float64) ([]Action, error) {
	return nil, m.RequestTransition(m.current.Next())
}

func (m *StateMachine) tickWaiting(float64) ([]Action, error) {
	if !m.waitingStarted {
		m.startWaitingTimer()
	}
	if elapsed, _ := m.WaitingElapsed(); elapsed >= m.waitingTimeout {
		return nil, m.HandleEvent(EventWaitingTimedOut)
	}
	return nil, nil
}

func (m *StateMachine) tickFighting(delta float64) ([]Action, error) {
	released := m.queue.Advance(delta)
	if len(released) > 0 {
		m.completed = append(m.completed, released...)
		m.emit(Notification{Kind: NotifyActionsReleased, Round: m.round, Actions: slices.Clone(released)})
	}
	if m.queue.Len() == 0 {
		return released, m.RequestTransition(PhaseEnded)
	}
	return released, nil
}
