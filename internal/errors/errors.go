// internal/errors/errors.go
package apperr

import (
    "errors"
    "fmt"
)

var (
    // ErrNoRecipients is returned when dispatch is attempted against an
    // audience that resolves to nothing.
    ErrNoRecipients = errors.New("no recipients resolved for broadcast")

    // ErrAlreadyDispatched is returned when the status gate rejects a
    // transition because another caller got there first.
    ErrAlreadyDispatched = errors.New("broadcast already dispatched")

    // ErrDispatchRejected is returned when the executor accepted none of
    // the delivery tasks for a broadcast.
    ErrDispatchRejected = errors.New("executor rejected all delivery tasks")

    // ErrInvalidTransition is returned for a status change the state
    // machine does not allow (e.g. resending a draft).
    ErrInvalidTransition = errors.New("invalid broadcast status transition")
)

// ErrBroadcastNotFound is a typed error carrying the missing ID.
type ErrBroadcastNotFound struct {
    BroadcastID int
}

func (e *ErrBroadcastNotFound) Error() string {
    return fmt.Sprintf("broadcast with ID %d not found", e.BroadcastID)
}

func NewBroadcastNotFound(id int) error {
    return &ErrBroadcastNotFound{BroadcastID: id}
}

// ErrUnknownAudience is a typed error for a selector outside the enum.
type ErrUnknownAudience struct {
    Audience string
}

func (e *ErrUnknownAudience) Error() string {
    return fmt.Sprintf("unknown audience selector %q", e.Audience)
}
