package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/infrastructure/telemetry"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func sumCounter(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func histogramCount(rm metricdata.ResourceMetrics, name string) uint64 {
	var total uint64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if hist, ok := m.Data.(metricdata.Histogram[float64]); ok {
				for _, dp := range hist.DataPoints {
					total += dp.Count
				}
			}
		}
	}
	return total
}

func TestOtelMetricRecorderCountsJobsAndSteps(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	recorder, err := telemetry.NewOtelMetricRecorder(mp)
	require.NoError(t, err)

	ctx := context.Background()
	job := model.NewJobRecord("job-1", model.SubjectMeta{FileName: "scan.pdf", FileSize: 2048})

	recorder.RecordJobStart(ctx, job)
	recorder.RecordStepStart(ctx, job.ID, "extract")
	recorder.RecordStepEnd(ctx, job.ID, "extract", "completed", 150*time.Millisecond)
	recorder.RecordStepStart(ctx, job.ID, "analyze")
	recorder.RecordStepRetry(ctx, job.ID, "analyze", 1, false)
	recorder.RecordStepEnd(ctx, job.ID, "analyze", "failed", 80*time.Millisecond)
	job.MarkAsFinished()
	recorder.RecordJobEnd(ctx, job)

	rm := collect(t, reader)

	assert.Equal(t, int64(1), sumCounter(rm, "pipeline.jobs.started"))
	assert.Equal(t, int64(1), sumCounter(rm, "pipeline.jobs.finished"))
	assert.Equal(t, int64(2), sumCounter(rm, "pipeline.steps.started"))
	assert.Equal(t, int64(2), sumCounter(rm, "pipeline.steps.finished"))
	assert.Equal(t, int64(1), sumCounter(rm, "pipeline.step.retries"))
	assert.Equal(t, uint64(2), histogramCount(rm, "pipeline.step.duration"))
	assert.Equal(t, uint64(1), histogramCount(rm, "pipeline.job.duration"))
}
