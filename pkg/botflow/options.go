package botflow

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/botflow/pkg/botflow/ai"
	"github.com/randalmurphal/botflow/pkg/botflow/observability"
	"github.com/randalmurphal/botflow/pkg/botflow/rating"
)

// sessionConfig holds configuration for a conversation run.
type sessionConfig struct {
	sessionID      string
	logger         *slog.Logger
	aiClient       ai.Client
	correction     bool
	ratings        rating.Store
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	sinks          []Sink
	maxAutoAdvance int
}

// defaultSessionConfig returns the default run configuration.
func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		sessionID:      uuid.New().String(),
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
		maxAutoAdvance: 100,
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// WithSessionID sets the session identifier.
// Default: a random UUID.
func WithSessionID(id string) SessionOption {
	return func(c *sessionConfig) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithLogger sets the structured logger for the session.
// Default: no logging.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithAI sets the completion service client used for AI-delegated nodes
// and, when enabled, the correction sub-protocol.
// Default: none; AI-delegated nodes degrade to a diagnostic turn.
func WithAI(client ai.Client) SessionOption {
	return func(c *sessionConfig) {
		c.aiClient = client
	}
}

// WithCorrection enables the "Did you mean" correction suggestion on
// free-text submissions. Requires WithAI; without a client the flag has
// no effect.
// Default: disabled.
func WithCorrection(enabled bool) SessionOption {
	return func(c *sessionConfig) {
		c.correction = enabled
	}
}

// WithRatings sets the store that receives submitted star ratings.
// Default: ratings are discarded.
func WithRatings(store rating.Store) SessionOption {
	return func(c *sessionConfig) {
		c.ratings = store
	}
}

// WithMetrics sets the metrics recorder.
// Default: no-op.
func WithMetrics(m observability.MetricsRecorder) SessionOption {
	return func(c *sessionConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpans sets the trace span manager.
// Default: no-op.
func WithSpans(m observability.SpanManager) SessionOption {
	return func(c *sessionConfig) {
		if m != nil {
			c.spans = m
		}
	}
}

// WithSink attaches one or more presentation sinks to the session.
// Turns are delivered to every sink, in attachment order, in addition
// to the session's own transcript.
func WithSink(sinks ...Sink) SessionOption {
	return func(c *sessionConfig) {
		for _, s := range sinks {
			if s != nil {
				c.sinks = append(c.sinks, s)
			}
		}
	}
}

// WithMaxAutoAdvance sets the maximum chain of auto-advancing nodes
// followed from a single user action.
// Default: 100
//
// This prevents message-node cycles from hanging forever. When the
// limit is hit the flow stalls at the current node.
func WithMaxAutoAdvance(n int) SessionOption {
	return func(c *sessionConfig) {
		if n > 0 {
			c.maxAutoAdvance = n
		}
	}
}
