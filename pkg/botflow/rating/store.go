// Package rating provides persistent storage for conversation ratings.
//
// Ratings are collected by rating nodes for observability only; they have
// no conversational effect.
package rating

import (
	"errors"
	"time"
)

// Rating is one star rating submitted during a conversation run.
type Rating struct {
	// SessionID identifies the conversation run.
	SessionID string
	// NodeID is the rating node that collected the stars.
	NodeID string
	// Stars is the submitted value, 1-5.
	Stars int
	// At is the submission time.
	At time.Time
}

// Store persists ratings.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a rating. Ratings are append-only; a session may
	// submit more than one over repeated runs.
	Save(r Rating) error

	// List returns all ratings for a session, ordered by submission time.
	// Returns an empty slice (not an error) if the session has none.
	List(sessionID string) ([]Rating, error)

	// DeleteSession removes all ratings for a session.
	// Returns nil if the session has none.
	DeleteSession(sessionID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for rating stores.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("rating store closed")

	// ErrInvalidStars indicates a rating outside the 1-5 range.
	ErrInvalidStars = errors.New("stars must be between 1 and 5")
)
