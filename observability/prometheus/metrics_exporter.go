// Package prometheus adapts the module's Metrics seam to Prometheus
// collectors.
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/nvoss/adaptivepool/pkg/types"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter implements types.Metrics on Prometheus collectors.
type MetricsExporter struct {
	coreSize            prom.Gauge
	queueDepth          prom.Gauge
	callerRunsTotal     prom.Counter
	taskFailuresTotal   prom.Counter
	taskDurationSeconds prom.Histogram
}

var _ types.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers the collectors.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "adaptivepool"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	e := &MetricsExporter{
		coreSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "core_size",
			Help:      "Current target number of always-available workers.",
		}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Queue depth observed at submission.",
		}),
		callerRunsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "caller_runs_total",
			Help:      "Total number of saturated submissions run on the caller.",
		}),
		taskFailuresTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_failures_total",
			Help:      "Total number of failed tasks.",
		}),
		taskDurationSeconds: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task wall time from submission to completion in seconds.",
			Buckets:   buckets,
		}),
	}

	for _, c := range []prom.Collector{
		e.coreSize, e.queueDepth, e.callerRunsTotal,
		e.taskFailuresTotal, e.taskDurationSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// RecordCoreSize records the core size after a resize decision.
func (e *MetricsExporter) RecordCoreSize(n int) {
	e.coreSize.Set(float64(n))
}

// RecordQueueDepth records the queue depth observed at submission.
func (e *MetricsExporter) RecordQueueDepth(depth int) {
	e.queueDepth.Set(float64(depth))
}

// RecordCallerRun records a caller-runs fallback.
func (e *MetricsExporter) RecordCallerRun() {
	e.callerRunsTotal.Inc()
}

// RecordTaskDuration records a completed task's wall time.
func (e *MetricsExporter) RecordTaskDuration(d time.Duration) {
	e.taskDurationSeconds.Observe(d.Seconds())
}

// RecordTaskFailure records a failed task.
func (e *MetricsExporter) RecordTaskFailure() {
	e.taskFailuresTotal.Inc()
}
