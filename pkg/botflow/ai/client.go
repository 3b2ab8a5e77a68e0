// Package ai provides the completion service adapter used for AI-delegated
// turns and grammar-correction suggestions.
package ai

import (
	"context"
	"fmt"
)

// Client is the completion service consumed by the engine.
//
// Implementations return an error for transport or service failures; the
// session converts Reply errors into a diagnostic bot turn and treats
// Correct errors as "no correction warranted", so neither can break a
// conversation run.
type Client interface {
	// Reply turns a free-text user message into a bot reply.
	Reply(ctx context.Context, userMessage string) (string, error)

	// Correct returns a grammar/spelling-corrected version of the input,
	// or the input unchanged when no correction is warranted.
	Correct(ctx context.Context, userMessage string) (string, error)
}

// Error wraps a completion service failure.
type Error struct {
	// Op is the operation that failed ("reply" or "correct").
	Op string
	// Err is the underlying error.
	Err error
	// Retryable indicates the failure looked transient.
	Retryable bool
}

// NewError creates an Error for the given operation.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if aiErr, ok := err.(*Error); ok {
		return aiErr.Retryable
	}
	return false
}
