package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records conversation engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSessionStart records the start (or restart) of a run.
	RecordSessionStart(ctx context.Context)

	// RecordTurn records an emitted turn.
	RecordTurn(ctx context.Context, sender string)

	// RecordAIRequest records a completion service round-trip.
	RecordAIRequest(ctx context.Context, op string, duration time.Duration, err error)

	// RecordFallback records an input that resolved to no connection.
	RecordFallback(ctx context.Context, nodeID string)

	// RecordRating records a submitted star rating.
	RecordRating(ctx context.Context, stars int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	sessions  metric.Int64Counter
	turns     metric.Int64Counter
	aiLatency metric.Float64Histogram
	aiErrors  metric.Int64Counter
	fallbacks metric.Int64Counter
	ratings   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("botflow")

	sessions, err := meter.Int64Counter("botflow.sessions.started",
		metric.WithDescription("Number of conversation runs started"),
	)
	if err != nil {
		return nil, err
	}

	turns, err := meter.Int64Counter("botflow.turns.emitted",
		metric.WithDescription("Number of turns emitted to the sink"),
	)
	if err != nil {
		return nil, err
	}

	aiLatency, err := meter.Float64Histogram("botflow.ai.latency_ms",
		metric.WithDescription("Completion service round-trip latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	aiErrors, err := meter.Int64Counter("botflow.ai.errors",
		metric.WithDescription("Number of completion service failures"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter("botflow.fallbacks",
		metric.WithDescription("Number of inputs that resolved to no connection"),
	)
	if err != nil {
		return nil, err
	}

	ratings, err := meter.Int64Histogram("botflow.ratings.stars",
		metric.WithDescription("Submitted star ratings"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		sessions:  sessions,
		turns:     turns,
		aiLatency: aiLatency,
		aiErrors:  aiErrors,
		fallbacks: fallbacks,
		ratings:   ratings,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordSessionStart records a run start.
func (m *otelMetrics) RecordSessionStart(ctx context.Context) {
	m.sessions.Add(ctx, 1)
}

// RecordTurn records an emitted turn.
func (m *otelMetrics) RecordTurn(ctx context.Context, sender string) {
	m.turns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sender", sender),
	))
}

// RecordAIRequest records a completion service round-trip.
func (m *otelMetrics) RecordAIRequest(ctx context.Context, op string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", op),
	}

	m.aiLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.aiErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordFallback records a resolution miss.
func (m *otelMetrics) RecordFallback(ctx context.Context, nodeID string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_id", nodeID),
	))
}

// RecordRating records a submitted rating.
func (m *otelMetrics) RecordRating(ctx context.Context, stars int) {
	m.ratings.Record(ctx, int64(stars))
}
