// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the load pipeline.
//
// It exposes a narrow interface (Backend) for counters and timing data and a
// global, pluggable backend that defaults to a no-op implementation, so
// metrics are always safe to call even when no real backend is configured.
// Concrete systems (Prometheus Pushgateway, Datadog) live in subpackages.
package metrics

import "time"

// Metric names emitted by the pipeline.
const (
	StepTotal    = "csvload_step_total"
	StepDuration = "csvload_step_duration_seconds"
	RowsTotal    = "csvload_rows_total"
	BatchesTotal = "csvload_batches_total"
	RetriesTotal = "csvload_retries_total"
	RowsLoaded   = "loaded"
	RowsSampled  = "sampled"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of a pipeline step
// ("infer", "load").
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows increments the row counter for the given job and kind
// (RowsSampled or RowsLoaded).
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the loaded batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordRetry counts one resend of a failed batch.
func RecordRetry(job string) {
	backend.IncCounter(RetriesTotal, 1, Labels{"job": job})
}
