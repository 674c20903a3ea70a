package relay

import (
	"errors"
	"fmt"
)

// Recoverable routing conditions. All of these are reported to the caller
// and never terminate the process.
var (
	// ErrTransport indicates a send failed at the transport layer. The
	// router does not retry; retry policy belongs to the transport.
	ErrTransport = errors.New("transport delivery failed")

	// ErrUnknownCorrelation indicates a reply referenced a forwarded
	// message outside the tracked window. No state is mutated.
	ErrUnknownCorrelation = errors.New("unknown correlation")

	// ErrForbidden indicates the actor lacks the required authorization.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyBanned indicates a ban on an already-banned user.
	ErrAlreadyBanned = errors.New("user already banned")

	// ErrNotBanned indicates an unban on a user who is not banned.
	ErrNotBanned = errors.New("user not banned")

	// ErrNotAssigned indicates a release on an unassigned user.
	ErrNotAssigned = errors.New("user not assigned")

	// ErrBroadcastInProgress indicates a broadcast was requested while
	// another one is still running. Only one job runs at a time.
	ErrBroadcastInProgress = errors.New("broadcast already in progress")
)

// PersistenceError wraps a store write failure. An operation never reports
// success when its durable write did not complete; callers treat this as
// fatal to the in-flight operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
