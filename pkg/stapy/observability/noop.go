package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordExpand does nothing.
func (NoopMetrics) RecordExpand(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordQuery does nothing.
func (NoopMetrics) RecordQuery(_ context.Context, _ int, _ error) {}

// RecordBuildPage does nothing.
func (NoopMetrics) RecordBuildPage(_ context.Context, _ string, _ error) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartExpandSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartExpandSpan(ctx context.Context, _, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartQuerySpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartQuerySpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartBuildPageSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartBuildPageSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
