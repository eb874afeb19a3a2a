package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("stapy")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartExpandSpan starts a span for one Expand call. Nested expansions
	// become child spans.
	StartExpandSpan(ctx context.Context, path, env string, depth int) (context.Context, trace.Span)

	// StartQuerySpan starts a span for a query run.
	StartQuerySpan(ctx context.Context, query string) (context.Context, trace.Span)

	// StartBuildPageSpan starts a span for generating one page.
	StartBuildPageSpan(ctx context.Context, env, path string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager backed by the global OTel tracer
// provider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartExpandSpan(ctx context.Context, path, env string, depth int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "stapy.expand",
		trace.WithAttributes(
			attribute.String("page.path", path),
			attribute.String("env", env),
			attribute.Int("expand.depth", depth),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartQuerySpan(ctx context.Context, query string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "stapy.query",
		trace.WithAttributes(attribute.String("query.text", query)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartBuildPageSpan(ctx context.Context, env, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "stapy.build.page",
		trace.WithAttributes(
			attribute.String("page.path", path),
			attribute.String("env", env),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
