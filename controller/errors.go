package controller

import "fmt"

// ContactBlockedError reports both front and rear contacts blocked
// simultaneously, per spec §7's ContactBlocked kind (halt, surface the
// "blocked" exit token to a scripted fsm.Agent).
type ContactBlockedError struct{}

func (e *ContactBlockedError) Error() string { return "controller: both front and rear contacts blocked" }

// SourceClosedError reports the underlying Source signalling closed, per
// spec §5's cancellation condition (b).
type SourceClosedError struct{ Err error }

func (e *SourceClosedError) Error() string {
	return fmt.Sprintf("controller: source closed: %v", e.Err)
}

func (e *SourceClosedError) Unwrap() error { return e.Err }
