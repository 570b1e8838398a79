package battle

import (
	"errors"
	"maps"
	"slices"
	"testing"
	"time"
)

func TestPhaseCanTransitionTo(t *testing.T) {
	for _, from := range Phases {
		for _, to := range Phases {
			want := from.Next() == to
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
	if PhaseInit.CanTransitionTo("Lobby") {
		t.Error("unknown target accepted")
	}
}

func TestRequestTransitionFollowsCycle(t *testing.T) {
	m := NewStateMachine(DefaultWaitingTimeout)

	for n := 1; n <= 18; n++ {
		target := m.CurrentPhase().Next()
		if err := m.RequestTransition(target); err != nil {
			t.Fatalf("transition %d to %s: %v", n, target, err)
		}
		if want := Phases[n%len(Phases)]; m.CurrentPhase() != want {
			t.Fatalf("after %d transitions phase = %s, want %s", n, m.CurrentPhase(), want)
		}
		if got := len(m.History()); got != n+1 {
			t.Fatalf("history length = %d, want %d", got, n+1)
		}
	}
	if m.History()[0] != PhaseInit {
		t.Errorf("history[0] = %s, want Init", m.History()[0])
	}
}

func TestRequestTransitionIllegalLeavesStateUntouched(t *testing.T) {
	for _, from := range Phases {
		for _, to := range Phases {
			if from.CanTransitionTo(to) {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				m := NewStateMachine(DefaultWaitingTimeout)
				for m.CurrentPhase() != from {
					m.Tick(0.25)
					if m.CurrentPhase() == PhaseWaiting && from != PhaseWaiting {
						m.HandleEvent(EventWaitingTimedOut)
					}
				}
				m.drainNotifications()
				history := m.History()
				durations := m.Durations()

				err := m.RequestTransition(to)

				var te *TransitionError
				if !errors.As(err, &te) || te.From != from || te.To != to {
					t.Fatalf("err = %v, want TransitionError(%s, %s)", err, from, to)
				}
				if !errors.Is(err, ErrInvalidStateTransition) {
					t.Error("error does not match ErrInvalidStateTransition")
				}
				if m.CurrentPhase() != from {
					t.Errorf("phase = %s, want %s", m.CurrentPhase(), from)
				}
				if !slices.Equal(m.History(), history) {
					t.Errorf("history = %v, want %v", m.History(), history)
				}
				if !maps.Equal(m.Durations(), durations) {
					t.Errorf("durations = %v, want %v", m.Durations(), durations)
				}
				if n := len(m.drainNotifications()); n != 0 {
					t.Errorf("emitted %d notifications on failure", n)
				}
			})
		}
	}
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name    string
		phase   Phase
		event   Event
		wantErr bool
		want    Phase
	}{
		{"timeout in waiting", PhaseWaiting, EventWaitingTimedOut, false, PhaseFighting},
		{"timeout in init", PhaseInit, EventWaitingTimedOut, true, PhaseInit},
		{"timeout in fighting", PhaseFighting, EventWaitingTimedOut, true, PhaseFighting},
		{"battle start in waiting", PhaseWaiting, EventBattleStart, true, PhaseWaiting},
		{"battle end in fighting", PhaseFighting, EventBattleEnd, true, PhaseFighting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine(DefaultWaitingTimeout)
			for m.CurrentPhase() != tt.phase {
				if err := m.RequestTransition(m.CurrentPhase().Next()); err != nil {
					t.Fatal(err)
				}
			}

			err := m.HandleEvent(tt.event)

			if tt.wantErr {
				var ee *EventError
				if !errors.As(err, &ee) || ee.Event != tt.event || ee.Phase != tt.phase {
					t.Fatalf("err = %v, want EventError(%s, %s)", err, tt.event, tt.phase)
				}
				if CodeOf(err) != CodeInvalidEventHandling {
					t.Errorf("code = %s", CodeOf(err))
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.CurrentPhase() != tt.want {
				t.Errorf("phase = %s, want %s", m.CurrentPhase(), tt.want)
			}
		})
	}
}

func TestWaitingTimeoutFiresOnce(t *testing.T) {
	m := NewStateMachine(DefaultWaitingTimeout)
	m.Tick(0)
	if m.CurrentPhase() != PhaseWaiting {
		t.Fatalf("phase = %s, want Waiting", m.CurrentPhase())
	}

	m.Tick(59.5)
	if m.CurrentPhase() != PhaseWaiting {
		t.Fatalf("timed out early: phase = %s", m.CurrentPhase())
	}

	m.Tick(0.5)
	if m.CurrentPhase() != PhaseFighting {
		t.Fatalf("phase = %s, want Fighting", m.CurrentPhase())
	}
	m.EnqueueAction(move("u1", 100))

	for range 10 {
		m.Tick(1)
	}

	count := 0
	for _, p := range m.History() {
		if p == PhaseFighting {
			count++
		}
	}
	if count != 1 {
		t.Errorf("entered Fighting %d times, want 1", count)
	}
	if m.CurrentPhase() != PhaseFighting {
		t.Errorf("phase = %s, want Fighting", m.CurrentPhase())
	}
}

func TestWaitingTimerStartsAndClears(t *testing.T) {
	m := NewStateMachine(10)
	if _, ok := m.WaitingElapsed(); ok {
		t.Fatal("timer set in Init")
	}

	m.Tick(1)
	m.Tick(4)
	if elapsed, ok := m.WaitingElapsed(); !ok || elapsed != 4 {
		t.Fatalf("elapsed = %v (%v), want 4", elapsed, ok)
	}

	m.HandleEvent(EventWaitingTimedOut)
	if _, ok := m.WaitingElapsed(); ok {
		t.Error("timer still set after leaving Waiting")
	}
}

func TestEnqueueActionOutsideFighting(t *testing.T) {
	m := NewStateMachine(DefaultWaitingTimeout)
	for _, p := range Phases {
		for m.CurrentPhase() != p {
			m.RequestTransition(m.CurrentPhase().Next())
		}
		if p == PhaseFighting {
			continue
		}
		err := m.EnqueueAction(move("u1", 1))
		if !errors.Is(err, ErrInvalidStateTransition) {
			t.Errorf("%s: err = %v, want ErrInvalidStateTransition", p, err)
		}
		if m.Queue().Len() != 0 {
			t.Errorf("%s: queue mutated", p)
		}
	}
}

func TestFightingEndsWhenQueueDrains(t *testing.T) {
	m := NewStateMachine(DefaultWaitingTimeout)
	m.Tick(0)
	m.HandleEvent(EventWaitingTimedOut)
	m.EnqueueAction(move("u1", 0.5))
	m.EnqueueAction(move("u2", 1.0))

	got, err := m.Tick(0.5)
	if err != nil || len(got) != 1 {
		t.Fatalf("tick = %v, %v; want one action", got, err)
	}
	if m.CurrentPhase() != PhaseFighting {
		t.Fatalf("phase = %s, want Fighting", m.CurrentPhase())
	}

	got, _ = m.Tick(0.5)
	if len(got) != 1 || got[0].UnitID != "u2" {
		t.Fatalf("tick = %v, want u2", got)
	}
	if m.CurrentPhase() != PhaseEnded {
		t.Fatalf("phase = %s, want Ended", m.CurrentPhase())
	}
	if n := len(m.CompletedActions()); n != 2 {
		t.Errorf("completed = %d, want 2", n)
	}
}

func TestPhaseDurationsAccumulate(t *testing.T) {
	m := NewStateMachine(5)

	if _, ok := m.Duration(PhaseWaiting); ok {
		t.Fatal("duration present before Waiting was left")
	}

	// Two full rounds through Waiting.
	for range 2 {
		m.Tick(1) // Init -> Waiting
		m.Tick(5) // Waiting -> Fighting
		m.Tick(0) // Fighting -> Ended
		m.Tick(0) // Ended -> Result
		m.Tick(0) // Result -> NextRound
		m.Tick(0) // NextRound -> Init
	}

	got, ok := m.Duration(PhaseWaiting)
	if !ok {
		t.Fatal("no Waiting duration")
	}
	if want := 10 * time.Second; got != want {
		t.Errorf("waiting duration = %v, want %v", got, want)
	}
	if got, _ := m.Duration(PhaseInit); got != 2*time.Second {
		t.Errorf("init duration = %v, want 2s", got)
	}
	if m.Round() != 3 {
		t.Errorf("round = %d, want 3", m.Round())
	}
}

func TestResetFromEveryPhase(t *testing.T) {
	for _, p := range Phases {
		t.Run(string(p), func(t *testing.T) {
			m := NewStateMachine(DefaultWaitingTimeout)
			for m.CurrentPhase() != p {
				m.Tick(1)
				if m.CurrentPhase() == PhaseWaiting && p != PhaseWaiting {
					m.HandleEvent(EventWaitingTimedOut)
					m.EnqueueAction(move("u1", 1000))
					m.Tick(1)
					if p != PhaseFighting {
						m.RequestTransition(PhaseEnded)
					}
				}
			}

			m.Reset()

			if m.CurrentPhase() != PhaseInit {
				t.Errorf("phase = %s, want Init", m.CurrentPhase())
			}
			if h := m.History(); !slices.Equal(h, []Phase{PhaseInit}) {
				t.Errorf("history = %v, want [Init]", h)
			}
			if n := len(m.Durations()); n != 0 {
				t.Errorf("durations = %v, want empty", m.Durations())
			}
			if m.Queue().Len() != 0 || m.Queue().Clock() != 0 {
				t.Errorf("queue not cleared: len=%d clock=%v", m.Queue().Len(), m.Queue().Clock())
			}
			if _, ok := m.WaitingElapsed(); ok {
				t.Error("waiting timer survived reset")
			}
			if m.Round() != 1 {
				t.Errorf("round = %d, want 1", m.Round())
			}
		})
	}
}

func TestResetFromNextRoundRestartsRoundCount(t *testing.T) {
	m := NewStateMachine(0)
	for m.CurrentPhase() != PhaseNextRound {
		if _, err := m.Tick(0); err != nil {
			t.Fatalf("tick in %s: %v", m.CurrentPhase(), err)
		}
	}

	m.Reset()
	if m.Round() != 1 {
		t.Fatalf("round after reset = %d, want 1", m.Round())
	}

	// The natural wrap still counts rounds after a reset.
	for m.CurrentPhase() != PhaseNextRound {
		m.Tick(0)
	}
	m.Tick(0)
	if m.CurrentPhase() != PhaseInit || m.Round() != 2 {
		t.Errorf("after wrap: phase = %s round = %d, want Init 2", m.CurrentPhase(), m.Round())
	}
}

func TestNotificationsOrder(t *testing.T) {
	m := NewStateMachine(0)
	m.Tick(0) // Init -> Waiting
	m.Tick(0) // Waiting -> Fighting
	m.EnqueueAction(move("u1", 0.1))
	m.drainNotifications()

	m.Tick(0.1)

	notes := m.drainNotifications()
	kinds := make([]NotificationKind, len(notes))
	for i, n := range notes {
		kinds[i] = n.Kind
	}
	want := []NotificationKind{NotifyActionsReleased, NotifyPhaseChanged, NotifyRoundCompleted}
	if !slices.Equal(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	if len(notes[2].Actions) != 1 {
		t.Errorf("round completed with %d actions, want 1", len(notes[2].Actions))
	}
}
