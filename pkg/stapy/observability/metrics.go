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

// MetricsRecorder records stapy metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordExpand records one Expand call on a page or fragment.
	RecordExpand(ctx context.Context, env string, duration time.Duration, err error)

	// RecordQuery records a query run and how many results it returned.
	RecordQuery(ctx context.Context, matches int, err error)

	// RecordBuildPage records a page written (or failed) during a build.
	RecordBuildPage(ctx context.Context, env string, err error)
}

type otelMetrics struct {
	expandCount   metric.Int64Counter
	expandLatency metric.Float64Histogram
	expandErrors  metric.Int64Counter
	queryCount    metric.Int64Counter
	queryMatches  metric.Int64Histogram
	buildPages    metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("stapy")

	expandCount, err := meter.Int64Counter("stapy.expand.count",
		metric.WithDescription("Number of template expansions"),
	)
	if err != nil {
		return nil, err
	}

	expandLatency, err := meter.Float64Histogram("stapy.expand.latency_ms",
		metric.WithDescription("Template expansion latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	expandErrors, err := meter.Int64Counter("stapy.expand.errors",
		metric.WithDescription("Number of failed template expansions"),
	)
	if err != nil {
		return nil, err
	}

	queryCount, err := meter.Int64Counter("stapy.query.count",
		metric.WithDescription("Number of queries run"),
	)
	if err != nil {
		return nil, err
	}

	queryMatches, err := meter.Int64Histogram("stapy.query.matches",
		metric.WithDescription("Results returned per query"),
	)
	if err != nil {
		return nil, err
	}

	buildPages, err := meter.Int64Counter("stapy.build.pages",
		metric.WithDescription("Number of pages written by builds"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		expandCount:   expandCount,
		expandLatency: expandLatency,
		expandErrors:  expandErrors,
		queryCount:    queryCount,
		queryMatches:  queryMatches,
		buildPages:    buildPages,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider, or a no-op recorder if the instruments cannot be created.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordExpand(ctx context.Context, env string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("env", env))
	m.expandCount.Add(ctx, 1, attrs)
	m.expandLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.expandErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordQuery(ctx context.Context, matches int, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.queryCount.Add(ctx, 1, attrs)
	if err == nil {
		m.queryMatches.Record(ctx, int64(matches))
	}
}

func (m *otelMetrics) RecordBuildPage(ctx context.Context, env string, err error) {
	m.buildPages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("env", env),
		attribute.Bool("success", err == nil),
	))
}
