package battle

import "fmt"

// Phase is one stage of a match round.
type Phase string

const (
	// PhaseInit prepares a fresh round.
	PhaseInit Phase = "Init"
	// PhaseWaiting waits for players before combat starts.
	PhaseWaiting Phase = "Waiting"
	// PhaseFighting is the only phase that accepts actions and advances the match clock.
	PhaseFighting Phase = "Fighting"
	// PhaseEnded closes combat.
	PhaseEnded Phase = "Ended"
	// PhaseResult is reserved for reward computation.
	PhaseResult Phase = "Result"
	// PhaseNextRound hands over to the next round.
	PhaseNextRound Phase = "NextRound"
)

// Phases lists every phase in cycle order starting at PhaseInit.
var Phases = []Phase{
	PhaseInit,
	PhaseWaiting,
	PhaseFighting,
	PhaseEnded,
	PhaseResult,
	PhaseNextRound,
}

// The legal edge set is a single cycle, so every phase has exactly one successor.
var successors = map[Phase]Phase{
	PhaseInit:      PhaseWaiting,
	PhaseWaiting:   PhaseFighting,
	PhaseFighting:  PhaseEnded,
	PhaseEnded:     PhaseResult,
	PhaseResult:    PhaseNextRound,
	PhaseNextRound: PhaseInit,
}

func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is one of the six known phases.
func (p Phase) Valid() bool {
	_, ok := successors[p]
	return ok
}

// Next returns the phase that follows p in the cycle.
func (p Phase) Next() Phase {
	return successors[p]
}

// CanTransitionTo checks if a transition from p to target is a legal edge.
func (p Phase) CanTransitionTo(target Phase) bool {
	next, ok := successors[p]
	return ok && next == target
}

// ParsePhase converts a wire name into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// Event is an external signal the state machine may react to.
type Event string

const (
	EventWaitingTimedOut Event = "WaitingTimedOut"
	EventBattleStart     Event = "BattleStart"
	EventBattleEnd       Event = "BattleEnd"
)

func (e Event) String() string {
	return string(e)
}

// ParseEvent converts a wire name into an Event.
func ParseEvent(s string) (Event, error) {
	switch e := Event(s); e {
	case EventWaitingTimedOut, EventBattleStart, EventBattleEnd:
		return e, nil
	}
	return "", fmt.Errorf("unknown event %q", s)
}
