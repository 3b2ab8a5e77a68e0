package botflow

import (
	"errors"
)

// Sentinel errors for session lifecycle.
var (
	// ErrSessionClosed indicates an action was delivered to a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoFlow indicates a session was created without a flow.
	ErrNoFlow = errors.New("flow cannot be nil")
)
