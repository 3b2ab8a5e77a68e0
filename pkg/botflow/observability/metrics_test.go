package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
}

func TestRecordSessionStartAndTurns(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSessionStart(ctx)
	m.RecordTurn(ctx, "bot")
	m.RecordTurn(ctx, "bot")
	m.RecordTurn(ctx, "user")

	rm := collectMetrics(t, reader)

	sessions := findMetric(rm, "botflow.sessions.started")
	require.NotNil(t, sessions)
	sessionData, ok := sessions.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sessionData.DataPoints, 1)
	assert.Equal(t, int64(1), sessionData.DataPoints[0].Value)

	turns := findMetric(rm, "botflow.turns.emitted")
	require.NotNil(t, turns)
	turnData, ok := turns.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	// One data point per sender attribute value.
	assert.Len(t, turnData.DataPoints, 2)
	var total int64
	for _, dp := range turnData.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func TestRecordAIRequest(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAIRequest(ctx, "reply", 120*time.Millisecond, nil)
	m.RecordAIRequest(ctx, "reply", 40*time.Millisecond, errors.New("boom"))

	rm := collectMetrics(t, reader)

	latency := findMetric(rm, "botflow.ai.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)

	aiErrors := findMetric(rm, "botflow.ai.errors")
	require.NotNil(t, aiErrors)
	errData, ok := aiErrors.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errData.DataPoints, 1)
	assert.Equal(t, int64(1), errData.DataPoints[0].Value)
}

func TestRecordFallbackAndRating(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordFallback(ctx, "menu")
	m.RecordFallback(ctx, "menu")
	m.RecordRating(ctx, 4)

	rm := collectMetrics(t, reader)

	fallbacks := findMetric(rm, "botflow.fallbacks")
	require.NotNil(t, fallbacks)
	fbData, ok := fallbacks.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, fbData.DataPoints, 1)
	assert.Equal(t, int64(2), fbData.DataPoints[0].Value)

	ratings := findMetric(rm, "botflow.ratings.stars")
	require.NotNil(t, ratings)
	rHist, ok := ratings.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, rHist.DataPoints, 1)
	assert.Equal(t, uint64(1), rHist.DataPoints[0].Count)
}

func TestNoopMetricsDoesNotPanic(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	m.RecordSessionStart(ctx)
	m.RecordTurn(ctx, "bot")
	m.RecordAIRequest(ctx, "reply", time.Second, errors.New("x"))
	m.RecordFallback(ctx, "n")
	m.RecordRating(ctx, 5)
}
