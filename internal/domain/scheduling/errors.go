package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidScheduling      = errors.New("invalid scheduling")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSlotUnavailable        = errors.New("slot unavailable")
	ErrNotFound               = errors.New("appointment not found")
)

// SchedulingError rejects a request to create an appointment.
type SchedulingError struct {
	Reason string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidScheduling, e.Reason)
}

func (e *SchedulingError) Unwrap() error { return ErrInvalidScheduling }

// TransitionError rejects a lifecycle move that the state machine does not allow.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s -> %s", ErrInvalidStateTransition, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }
