package battle

import (
	"fmt"
	"math"
)

// ActionKind enumerates the supported unit activities.
type ActionKind string

const (
	ActionMove   ActionKind = "Move"
	ActionAttack ActionKind = "Attack"
	ActionSkill  ActionKind = "Skill"
	ActionItem   ActionKind = "Item"
)

// ParseActionKind converts a wire name into an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch k := ActionKind(s); k {
	case ActionMove, ActionAttack, ActionSkill, ActionItem:
		return k, nil
	}
	return "", &ActionError{Reason: fmt.Sprintf("unknown kind %q", s)}
}

// Action is a unit activity scheduled against the match clock. The queue
// copies actions on enqueue, so callers cannot mutate a pending action.
type Action struct {
	Kind     ActionKind `json:"kind"`
	UnitID   string     `json:"unitId"`
	TargetID string     `json:"targetId,omitempty"`
	// ExecuteAt is the match clock time, in seconds, at which the action is released.
	ExecuteAt float64 `json:"executeAt"`
}

// HasTarget reports whether the action addresses a target unit.
func (a Action) HasTarget() bool {
	return a.TargetID != ""
}

// Validate rejects actions the queue cannot schedule.
func (a Action) Validate() error {
	if _, err := ParseActionKind(string(a.Kind)); err != nil {
		return err
	}
	if a.UnitID == "" {
		return &ActionError{Reason: "unit id is required"}
	}
	if math.IsNaN(a.ExecuteAt) || math.IsInf(a.ExecuteAt, 0) {
		return &ActionError{Reason: "scheduled time must be finite"}
	}
	if a.ExecuteAt < 0 {
		return &ActionError{Reason: fmt.Sprintf("scheduled time %g is negative", a.ExecuteAt)}
	}
	return nil
}
