// This file implements the retrying batch loader: one batch is encoded once
// and handed to a Sink, and a failed transfer is resent after an exponential
// backoff until it succeeds or the retry budget is spent.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"csvload/internal/batch"
	"csvload/internal/encode"
)

// Default retry policy values.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 60 * time.Second
)

// Policy bounds the retries of a single batch.
type Policy struct {
	// MaxRetries is the number of resends after the first attempt.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Each further wait
	// doubles, capped at MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPolicy returns 3 retries with 1s initial and 60s max backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// Validate reports the first invalid field.
func (p Policy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return fmt.Errorf("storage: max retries must be >= 0, got %d", p.MaxRetries)
	case p.InitialBackoff < 0:
		return fmt.Errorf("storage: initial backoff must be >= 0, got %s", p.InitialBackoff)
	case p.MaxBackoff < p.InitialBackoff:
		return fmt.Errorf("storage: max backoff %s is below initial backoff %s", p.MaxBackoff, p.InitialBackoff)
	}
	return nil
}

// NextBackoff returns min(d*2, max).
func (p Policy) NextBackoff(d time.Duration) time.Duration {
	if d > p.MaxBackoff/2 {
		return p.MaxBackoff
	}
	return d * 2
}

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Batch       int
	Attempt     int
	MaxAttempts int
	Backoff     time.Duration
	Fingerprint uint64
	Err         error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Loader.
type Option func(*Loader)

// WithSleep replaces the backoff wait. Tests use it to record delays.
func WithSleep(fn SleepFunc) Option {
	return func(l *Loader) {
		if fn != nil {
			l.sleep = fn
		}
	}
}

// WithRetryHook registers fn to be called before every backoff wait.
func WithRetryHook(fn func(RetryEvent)) Option {
	return func(l *Loader) { l.onRetry = fn }
}

// Loader sends batches to a Sink with bounded retries.
type Loader struct {
	sink    Sink
	table   string
	columns []string
	policy  Policy
	sleep   SleepFunc
	onRetry func(RetryEvent)
}

// NewLoader returns a Loader writing to table through sink.
func NewLoader(sink Sink, table string, columns []string, p Policy, opts ...Option) (*Loader, error) {
	if sink == nil {
		return nil, errors.New("storage: sink must not be nil")
	}
	if len(columns) == 0 {
		return nil, errors.New("storage: at least one column is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	l := &Loader{
		sink:    sink,
		table:   table,
		columns: columns,
		policy:  p,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Policy returns the loader's retry policy.
func (l *Loader) Policy() Policy { return l.policy }

// Load encodes b and transfers it, retrying sink failures. It returns the
// number of rows the sink accepted. Encoding errors are not retried. When the
// retries run out the error is a *BatchExhaustedError wrapping the last
// *TransferError.
func (l *Loader) Load(ctx context.Context, b batch.Batch) (int64, error) {
	payload, err := encode.CSV(b, len(l.columns))
	if err != nil {
		return 0, err
	}

	backoff := l.policy.InitialBackoff
	for attempt := 1; ; attempt++ {
		n, err := l.sink.CopyCSV(ctx, l.table, l.columns, payload)
		if err == nil {
			return n, nil
		}
		terr := &TransferError{Batch: b.Index, Attempt: attempt, Err: err}

		if attempt > l.policy.MaxRetries {
			return 0, &BatchExhaustedError{
				Batch:    b.Index,
				Retries:  l.policy.MaxRetries,
				Attempts: attempt,
				Err:      terr,
			}
		}

		if l.onRetry != nil {
			l.onRetry(RetryEvent{
				Batch:       b.Index,
				Attempt:     attempt,
				MaxAttempts: l.policy.MaxRetries + 1,
				Backoff:     backoff,
				Fingerprint: encode.Fingerprint(payload),
				Err:         err,
			})
		}
		if err := l.sleep(ctx, backoff); err != nil {
			return 0, fmt.Errorf("storage: batch %d backoff: %w", b.Index, err)
		}
		backoff = l.policy.NextBackoff(backoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
