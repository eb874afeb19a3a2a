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

func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

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

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestRecordExpand(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordExpand(ctx, "local", 2*time.Millisecond, nil)
	m.RecordExpand(ctx, "local", time.Millisecond, errors.New("bad tag"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "stapy.expand.count")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "stapy.expand.errors")))

	latency := findMetric(rm, "stapy.expand.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	require.NotEmpty(t, hist.DataPoints)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestRecordQuery(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordQuery(ctx, 3, nil)
	m.RecordQuery(ctx, 0, errors.New("syntax"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "stapy.query.count")))

	matches := findMetric(rm, "stapy.query.matches")
	require.NotNil(t, matches)
	hist, ok := matches.Data.(metricdata.Histogram[int64])
	require.True(t, ok, "Expected Histogram type")
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, int64(3), hist.DataPoints[0].Sum)
}

func TestRecordBuildPage(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordBuildPage(context.Background(), "prod", nil)
	m.RecordBuildPage(context.Background(), "prod", nil)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "stapy.build.pages")))
}
