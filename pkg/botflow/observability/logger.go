// Package observability provides structured logging, metrics, and
// distributed tracing for the conversation engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds session context to a logger.
// Returns a new logger with session_id and flow fields.
func EnrichLogger(logger *slog.Logger, sessionID, flowName string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("session_id", sessionID),
		slog.String("flow", flowName),
	)
}

// LogSessionStart logs the start of a conversation run.
func LogSessionStart(logger *slog.Logger, sessionID string) {
	if logger == nil {
		return
	}
	logger.Info("session starting",
		slog.String("session_id", sessionID),
	)
}

// LogSessionRestart logs a restart of a conversation run.
func LogSessionRestart(logger *slog.Logger, sessionID string, turnsDiscarded int) {
	if logger == nil {
		return
	}
	logger.Info("session restarting",
		slog.String("session_id", sessionID),
		slog.Int("turns_discarded", turnsDiscarded),
	)
}

// LogSessionEnd logs that a run reached an end node.
func LogSessionEnd(logger *slog.Logger, sessionID, nodeID string) {
	if logger == nil {
		return
	}
	logger.Info("session ended",
		slog.String("session_id", sessionID),
		slog.String("node_id", nodeID),
	)
}

// LogNodeEnter logs entry into a node.
func LogNodeEnter(logger *slog.Logger, nodeID string, nodeType string) {
	if logger == nil {
		return
	}
	logger.Debug("entering node",
		slog.String("node_id", nodeID),
		slog.String("node_type", nodeType),
	)
}

// LogTurn logs an emitted turn.
func LogTurn(logger *slog.Logger, sender string, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("turn emitted",
		slog.String("sender", sender),
		slog.String("node_id", nodeID),
	)
}

// LogFallback logs an input that resolved to no connection.
func LogFallback(logger *slog.Logger, nodeID, trigger string) {
	if logger == nil {
		return
	}
	logger.Debug("no connection matched input",
		slog.String("node_id", nodeID),
		slog.String("trigger", trigger),
	)
}

// LogStall logs a node with no outgoing connection to follow.
func LogStall(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Warn("flow stalled at node",
		slog.String("node_id", nodeID),
	)
}

// LogAIRequest logs a completion service round-trip.
func LogAIRequest(logger *slog.Logger, op string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("ai request completed",
		slog.String("operation", op),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogAIError logs a completion service failure (non-fatal).
func LogAIError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("ai request failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogRatingSaved logs a stored rating.
func LogRatingSaved(logger *slog.Logger, nodeID string, stars int) {
	if logger == nil {
		return
	}
	logger.Debug("rating saved",
		slog.String("node_id", nodeID),
		slog.Int("stars", stars),
	)
}

// LogRatingError logs a rating store failure (non-fatal).
func LogRatingError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("rating save failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
