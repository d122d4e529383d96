// Package metrics provides the Prometheus implementation of the metric recorder.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	coremetrics "github.com/tenderworks/pipeline/pkg/pipeline/core/metrics"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the
// coremetrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	jobsStarted        *prometheus.CounterVec
	jobsFinished       *prometheus.CounterVec
	jobDurationSeconds *prometheus.HistogramVec

	stepsStarted        *prometheus.CounterVec
	stepsFinished       *prometheus.CounterVec
	stepDurationSeconds *prometheus.HistogramVec
	stepRetries         *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_jobs_started_total",
			Help: "Total number of pipeline jobs started.",
		}, []string{}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_jobs_finished_total",
			Help: "Total number of pipeline jobs finished by terminal status.",
		}, []string{"status"}),
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_job_duration_seconds",
			Help:    "Duration of pipeline jobs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		stepsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_steps_started_total",
			Help: "Total number of step attempts started.",
		}, []string{"step"}),
		stepsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_steps_finished_total",
			Help: "Total number of steps finished by outcome.",
		}, []string{"step", "outcome"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_seconds",
			Help:    "Duration of step executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		stepRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_step_retries_total",
			Help: "Total number of step retries, labeled by fallback usage.",
		}, []string{"step", "fallback"}),
	}

	registry.MustRegister(r.jobsStarted)
	registry.MustRegister(r.jobsFinished)
	registry.MustRegister(r.jobDurationSeconds)
	registry.MustRegister(r.stepsStarted)
	registry.MustRegister(r.stepsFinished)
	registry.MustRegister(r.stepDurationSeconds)
	registry.MustRegister(r.stepRetries)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordJobStart records the start of a job.
func (r *PrometheusRecorder) RecordJobStart(_ context.Context, job *model.JobRecord) {
	r.jobsStarted.WithLabelValues().Inc()
	logger.Debugf("Metrics: job '%s' started.", job.ID)
}

// RecordJobEnd records a finished job and its duration.
func (r *PrometheusRecorder) RecordJobEnd(_ context.Context, job *model.JobRecord) {
	status := string(job.Status)
	r.jobsFinished.WithLabelValues(status).Inc()
	r.jobDurationSeconds.WithLabelValues(status).Observe(float64(job.DurationMS()) / 1000)
	logger.Debugf("Metrics: job '%s' finished with status '%s'.", job.ID, job.Status)
}

// RecordStepStart records the start of a step attempt.
func (r *PrometheusRecorder) RecordStepStart(_ context.Context, jobID, stepID string) {
	r.stepsStarted.WithLabelValues(stepID).Inc()
	logger.Debugf("Metrics: job '%s' step '%s' started.", jobID, stepID)
}

// RecordStepEnd records a finished step with its outcome and duration.
func (r *PrometheusRecorder) RecordStepEnd(_ context.Context, jobID, stepID, outcome string, duration time.Duration) {
	r.stepsFinished.WithLabelValues(stepID, outcome).Inc()
	r.stepDurationSeconds.WithLabelValues(stepID).Observe(duration.Seconds())
	logger.Debugf("Metrics: job '%s' step '%s' finished (%s).", jobID, stepID, outcome)
}

// RecordStepRetry records a granted retry.
func (r *PrometheusRecorder) RecordStepRetry(_ context.Context, jobID, stepID string, attempt int, usedFallback bool) {
	r.stepRetries.WithLabelValues(stepID, strconv.FormatBool(usedFallback)).Inc()
	logger.Debugf("Metrics: job '%s' step '%s' retry %d (fallback=%t).", jobID, stepID, attempt, usedFallback)
}

var _ coremetrics.MetricRecorder = (*PrometheusRecorder)(nil)
