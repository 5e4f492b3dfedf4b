// Package pipeline runs the two passes over an input: a sampling pass that
// infers the table schema, and a load pass that streams every row to a sink
// in batches. The passes run strictly one after the other and each reopens
// the source from the start.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"csvload/internal/batch"
	"csvload/internal/datasource"
	"csvload/internal/metrics"
	"csvload/internal/parser/csv"
	"csvload/internal/schema"
	"csvload/internal/storage"
)

// InferOptions configures the sampling pass.
type InferOptions struct {
	CSV        csv.Options
	Table      string
	SampleSize int

	// Job labels emitted metrics.
	Job string
}

// Infer reads up to SampleSize rows of src and returns the inferred table.
// The table name is validated before the source is opened.
func Infer(ctx context.Context, src datasource.Source, opts InferOptions) (tbl schema.Table, err error) {
	if err := schema.ValidateTableName(opts.Table); err != nil {
		return schema.Table{}, err
	}

	start := time.Now()
	defer func() { metrics.RecordStep(opts.Job, "infer", err, time.Since(start)) }()

	r, err := csv.Open(ctx, src, opts.CSV)
	if err != nil {
		return schema.Table{}, err
	}
	defer r.Close()

	tbl, err = schema.InferTable(r, opts.Table, r.Header(), opts.SampleSize)
	if err != nil {
		return schema.Table{}, err
	}
	metrics.RecordRows(opts.Job, metrics.RowsSampled, r.Rows())
	return tbl, nil
}

// LoadOptions configures the load pass.
type LoadOptions struct {
	CSV       csv.Options
	BatchSize int
	Policy    storage.Policy

	Job      string
	Observer Observer

	// Sleep replaces the retry backoff wait; nil uses a timer.
	Sleep storage.SleepFunc
	// Now replaces time.Now for progress timing.
	Now func() time.Time
}

// LoadResult summarises a load pass. It is filled in even when Load fails, so
// Rows always holds the number of rows the sink already accepted.
type LoadResult struct {
	Rows    int64
	Batches int
	Elapsed time.Duration
}

// RowsPerSecond returns the overall throughput.
func (r LoadResult) RowsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Rows) / r.Elapsed.Seconds()
}

// Load reopens src and transfers every data row into tbl through sink. Batches
// are sent one at a time; cancellation is checked between batches and during
// a retry wait.
func Load(ctx context.Context, src datasource.Source, tbl schema.Table, sink storage.Sink, opts LoadOptions) (res LoadResult, err error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	start := now()
	defer func() {
		res.Elapsed = now().Sub(start)
		metrics.RecordStep(opts.Job, "load", err, res.Elapsed)
	}()

	columns := tbl.ColumnNames()
	loader, err := storage.NewLoader(sink, tbl.Name, columns, opts.Policy,
		storage.WithSleep(opts.Sleep),
		storage.WithRetryHook(obs.Retry),
	)
	if err != nil {
		return res, err
	}

	r, err := csv.Open(ctx, src, opts.CSV)
	if err != nil {
		return res, err
	}
	defer r.Close()

	if got := len(r.Header()); got != len(columns) {
		return res, &schema.SchemaError{Row: 0, Got: got, Want: len(columns)}
	}

	batcher, err := batch.NewBatcher(r, opts.BatchSize)
	if err != nil {
		return res, err
	}

	last := start
	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("load canceled after %d batches: %w", res.Batches, err)
		}

		b, err := batcher.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("read batch %d: %w", res.Batches+1, err)
		}

		n, err := loader.Load(ctx, b)
		if err != nil {
			return res, err
		}
		res.Rows += n
		res.Batches++

		t := now()
		obs.BatchLoaded(BatchEvent{
			Batch:     b.Index,
			Rows:      n,
			TotalRows: res.Rows,
			Elapsed:   t.Sub(start),
			SinceLast: t.Sub(last),
		})
		last = t
	}
}
