package battle

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidEventHandling   = errors.New("invalid event handling")
	ErrInvalidAction          = errors.New("invalid action")
)

// Code is a machine-readable error code carried in wire responses.
type Code string

const (
	CodeUnknown                Code = "UNKNOWN"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeInvalidEventHandling   Code = "INVALID_EVENT_HANDLING"
	CodeInvalidAction          Code = "INVALID_ACTION"
)

// TransitionError reports a (from, to) pair outside the legal edge set.
type TransitionError struct {
	From Phase
	To   Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidStateTransition }

func (e *TransitionError) Code() Code { return CodeInvalidStateTransition }

// PhaseError reports an operation that is not allowed in the current phase.
// It belongs to the same family as TransitionError.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Phase)
}

func (e *PhaseError) Is(target error) bool { return target == ErrInvalidStateTransition }

func (e *PhaseError) Code() Code { return CodeInvalidStateTransition }

// EventError reports an event that has no meaning in the current phase.
type EventError struct {
	Event Event
	Phase Phase
}

func (e *EventError) Error() string {
	return fmt.Sprintf("invalid event %s in phase %s", e.Event, e.Phase)
}

func (e *EventError) Is(target error) bool { return target == ErrInvalidEventHandling }

func (e *EventError) Code() Code { return CodeInvalidEventHandling }

// ActionError reports a malformed action.
type ActionError struct {
	Reason string
}

func (e *ActionError) Error() string {
	return "invalid action: " + e.Reason
}

func (e *ActionError) Is(target error) bool { return target == ErrInvalidAction }

func (e *ActionError) Code() Code { return CodeInvalidAction }

// CodeOf returns the wire code of err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var coded interface{ Code() Code }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeUnknown
}
