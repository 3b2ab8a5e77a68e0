package botflow

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a turn.
type Sender string

// Turn senders.
const (
	SenderBot    Sender = "bot"
	SenderUser   Sender = "user"
	SenderStatus Sender = "status"
)

// Turn is one conversational event emitted to the presentation sink.
// Turns are ephemeral: a restart discards the whole sequence.
type Turn struct {
	// ID uniquely identifies the turn within a session.
	ID string `json:"id"`

	// Sender is bot, user, or status.
	Sender Sender `json:"sender"`

	// Message is the turn text. May carry lightweight inline formatting;
	// rendering is the sink's concern.
	Message string `json:"message"`

	// Options are choices presented with a bot turn, if any.
	Options []Option `json:"options,omitempty"`

	// IsTyping marks a transient typing placeholder shown while an AI
	// round-trip is outstanding.
	IsTyping bool `json:"isTyping,omitempty"`

	// InputRequired marks a bot turn that expects free text rather than
	// an option selection.
	InputRequired bool `json:"inputRequired,omitempty"`

	// NodeID is the node that produced a bot turn, when one did.
	NodeID string `json:"nodeId,omitempty"`

	// At is the emission time.
	At time.Time `json:"at"`
}

// restartOption is the single choice attached to end-of-flow and
// fallback turns. Its value is matched case-insensitively on intake.
func restartOption() []Option {
	return []Option{{Label: "Restart", Value: "restart"}}
}

func newTurn(sender Sender, message string) Turn {
	return Turn{
		ID:      uuid.New().String(),
		Sender:  sender,
		Message: message,
		At:      time.Now(),
	}
}
