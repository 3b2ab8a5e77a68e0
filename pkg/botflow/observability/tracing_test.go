package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("botflow")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func TestStartSessionSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("creates span with correct name and attributes", func(t *testing.T) {
		ctx := context.Background()
		_, span := sm.StartSessionSpan(ctx, "support", "sess-123")
		require.NotNil(t, span)

		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, "botflow.session", s.Name)

		var flowName, sessionID string
		for _, attr := range s.Attributes {
			switch attr.Key {
			case "flow.name":
				flowName = attr.Value.AsString()
			case "session.id":
				sessionID = attr.Value.AsString()
			}
		}
		assert.Equal(t, "support", flowName)
		assert.Equal(t, "sess-123", sessionID)
	})
}

func TestStartAISpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("creates span with operation suffix", func(t *testing.T) {
		ctx := context.Background()
		_, span := sm.StartAISpan(ctx, "reply")
		require.NotNil(t, span)

		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "botflow.ai.reply", spans[0].Name)
	})

	t.Run("ai span is a child of the session span", func(t *testing.T) {
		exporter.Reset()

		ctx := context.Background()
		ctx, sessionSpan := sm.StartSessionSpan(ctx, "support", "sess-1")

		_, aiSpan := sm.StartAISpan(ctx, "correct")
		aiSpan.End()
		sessionSpan.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 2)

		var aiData *tracetest.SpanStub
		for i := range spans {
			if spans[i].Name == "botflow.ai.correct" {
				aiData = &spans[i]
				break
			}
		}
		require.NotNil(t, aiData)
		assert.True(t, aiData.Parent.IsValid())
	})
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("sets OK status for nil error", func(t *testing.T) {
		_, span := sm.StartSessionSpan(context.Background(), "f", "s-1")

		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("sets Error status and records error", func(t *testing.T) {
		exporter.Reset()

		_, span := sm.StartAISpan(context.Background(), "reply")
		sm.EndSpanWithError(span, errors.New("rate limited"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, codes.Error, s.Status.Code)
		assert.Equal(t, "rate limited", s.Status.Description)

		found := false
		for _, event := range s.Events {
			if event.Name == "exception" {
				found = true
			}
		}
		assert.True(t, found, "Expected exception event")
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.EndSpanWithError(nil, nil)
		})
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("adds event to current span", func(t *testing.T) {
		ctx, span := sm.StartSessionSpan(context.Background(), "f", "s-1")

		sm.AddSpanEvent(ctx, "fallback_emitted",
			attribute.String("node_id", "menu"),
		)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		found := false
		for _, event := range spans[0].Events {
			if event.Name == "fallback_emitted" {
				found = true
				for _, attr := range event.Attributes {
					if attr.Key == "node_id" {
						assert.Equal(t, "menu", attr.Value.AsString())
					}
				}
			}
		}
		assert.True(t, found, "Expected fallback_emitted event")
	})

	t.Run("no panic with no current span", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.AddSpanEvent(context.Background(), "orphan_event")
		})
	})
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := sm.StartSessionSpan(ctx, "f", "s")
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	_, aiSpan := sm.StartAISpan(ctx, "reply")
	require.NotNil(t, aiSpan)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("x"))
		sm.AddSpanEvent(ctx, "e")
	})
}
