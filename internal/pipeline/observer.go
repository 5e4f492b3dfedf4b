package pipeline

import (
	"log/slog"
	"time"

	"csvload/internal/metrics"
	"csvload/internal/storage"
)

// BatchEvent describes a batch the sink accepted.
type BatchEvent struct {
	Batch     int
	Rows      int64
	TotalRows int64

	// Elapsed is measured from the start of the load pass, SinceLast from the
	// previous accepted batch.
	Elapsed   time.Duration
	SinceLast time.Duration
}

// RowsPerSecond returns the running throughput.
func (e BatchEvent) RowsPerSecond() float64 {
	if e.Elapsed <= 0 {
		return 0
	}
	return float64(e.TotalRows) / e.Elapsed.Seconds()
}

// Observer receives progress notifications from Load. Implementations must
// not block for long; they run on the load goroutine.
type Observer interface {
	BatchLoaded(BatchEvent)
	Retry(storage.RetryEvent)
}

// Observers fans events out to every member.
type Observers []Observer

func (obs Observers) BatchLoaded(e BatchEvent) {
	for _, o := range obs {
		o.BatchLoaded(e)
	}
}

func (obs Observers) Retry(e storage.RetryEvent) {
	for _, o := range obs {
		o.Retry(e)
	}
}

// LogObserver writes progress to a slog.Logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o LogObserver) BatchLoaded(e BatchEvent) {
	o.logger().Info("batch loaded",
		"batch", e.Batch,
		"rps", int64(e.RowsPerSecond()),
		"inserted", e.Rows,
		"total_inserted", e.TotalRows,
		"elapsed", e.Elapsed.Truncate(time.Millisecond),
		"since_last", e.SinceLast.Truncate(time.Millisecond),
	)
}

func (o LogObserver) Retry(e storage.RetryEvent) {
	o.logger().Warn("batch failed, retrying",
		"batch", e.Batch,
		"attempt", e.Attempt,
		"max_attempts", e.MaxAttempts,
		"backoff", e.Backoff,
		"fingerprint", e.Fingerprint,
		"err", e.Err,
	)
}

// MetricsObserver counts loaded rows, batches and retries under Job.
type MetricsObserver struct {
	Job string
}

func (o MetricsObserver) BatchLoaded(e BatchEvent) {
	metrics.RecordRows(o.Job, metrics.RowsLoaded, e.Rows)
	metrics.RecordBatches(o.Job, 1)
}

func (o MetricsObserver) Retry(storage.RetryEvent) {
	metrics.RecordRetry(o.Job)
}

type nopObserver struct{}

func (nopObserver) BatchLoaded(BatchEvent)   {}
func (nopObserver) Retry(storage.RetryEvent) {}
