package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"csvload/internal/batch"
	"csvload/internal/encode"
)

// scriptedSink fails the first failures calls and then accepts every row.
type scriptedSink struct {
	failures int
	calls    int
	payloads [][]byte
	err      error
}

func (s *scriptedSink) CopyCSV(_ context.Context, _ string, _ []string, payload []byte) (int64, error) {
	s.calls++
	s.payloads = append(s.payloads, payload)
	if s.failures < 0 || s.calls <= s.failures {
		if s.err != nil {
			return 0, s.err
		}
		return 0, errors.New("connection reset")
	}
	return 2, nil
}

type sleepRecorder struct{ waits []time.Duration }

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func twoRows() batch.Batch {
	return batch.Batch{Index: 3, Rows: [][]string{{"1", "Alice"}, {"2", ""}}}
}

func newTestLoader(t *testing.T, sink Sink, p Policy, opts ...Option) *Loader {
	t.Helper()
	l, err := NewLoader(sink, "users", []string{"id", "name"}, p, opts...)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l
}

// TestLoader_RecoversAfterTwoFailures checks the exact doubling of backoff.
func TestLoader_RecoversAfterTwoFailures(t *testing.T) {
	t.Parallel()

	sink := &scriptedSink{failures: 2}
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 2, InitialBackoff: time.Second, MaxBackoff: time.Minute}

	n, err := newTestLoader(t, sink, p, WithSleep(rec.sleep)).Load(context.Background(), twoRows())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 2 {
		t.Fatalf("accepted = %d, want 2", n)
	}
	if sink.calls != 3 {
		t.Fatalf("attempts = %d, want 3", sink.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(rec.waits) != len(want) || rec.waits[0] != want[0] || rec.waits[1] != want[1] {
		t.Fatalf("waits = %v, want %v", rec.waits, want)
	}
	var total time.Duration
	for _, w := range rec.waits {
		total += w
	}
	if total != 3*time.Second {
		t.Fatalf("total backoff = %s, want 3s", total)
	}
}

// TestLoader_Exhausted checks the attempt count and error chain when every
// attempt fails.
func TestLoader_Exhausted(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	sink := &scriptedSink{failures: -1, err: boom}
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 2, InitialBackoff: time.Second, MaxBackoff: time.Minute}

	n, err := newTestLoader(t, sink, p, WithSleep(rec.sleep)).Load(context.Background(), twoRows())
	if n != 0 {
		t.Fatalf("accepted = %d, want 0", n)
	}
	var be *BatchExhaustedError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BatchExhaustedError", err)
	}
	if be.Retries != 2 || be.Attempts != 3 || be.Batch != 3 {
		t.Fatalf("exhausted = %+v", be)
	}
	if sink.calls != 3 {
		t.Fatalf("attempts = %d, want exactly 3", sink.calls)
	}
	var te *TransferError
	if !errors.As(err, &te) || te.Attempt != 3 {
		t.Fatalf("last transfer error = %v", te)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err does not wrap sink error: %v", err)
	}
	if len(rec.waits) != 2 {
		t.Fatalf("waits = %v, want 2 waits", rec.waits)
	}
}

func TestLoader_ZeroRetries(t *testing.T) {
	t.Parallel()

	sink := &scriptedSink{failures: -1}
	rec := &sleepRecorder{}
	_, err := newTestLoader(t, sink, Policy{MaxBackoff: time.Second}, WithSleep(rec.sleep)).
		Load(context.Background(), twoRows())

	var be *BatchExhaustedError
	if !errors.As(err, &be) || be.Attempts != 1 {
		t.Fatalf("err = %v, want exhaustion after one attempt", err)
	}
	if len(rec.waits) != 0 {
		t.Fatalf("unexpected waits %v", rec.waits)
	}
}

func TestLoader_BackoffCapped(t *testing.T) {
	t.Parallel()

	sink := &scriptedSink{failures: 5}
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 5, InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}

	if _, err := newTestLoader(t, sink, p, WithSleep(rec.sleep)).Load(context.Background(), twoRows()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	if len(rec.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", rec.waits, want)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Fatalf("waits = %v, want %v", rec.waits, want)
		}
	}
}

// TestLoader_ResendsSamePayload ensures a retried batch is byte-identical and
// the hook sees its fingerprint.
func TestLoader_ResendsSamePayload(t *testing.T) {
	t.Parallel()

	sink := &scriptedSink{failures: 1}
	rec := &sleepRecorder{}
	var events []RetryEvent
	l := newTestLoader(t, sink, DefaultPolicy(),
		WithSleep(rec.sleep),
		WithRetryHook(func(ev RetryEvent) { events = append(events, ev) }),
	)

	if _, err := l.Load(context.Background(), twoRows()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(sink.payloads[0]) != "1,Alice\n2,\n" || string(sink.payloads[0]) != string(sink.payloads[1]) {
		t.Fatalf("payloads = %q", sink.payloads)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Attempt != 1 || ev.MaxAttempts != 4 || ev.Backoff != time.Second || ev.Batch != 3 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Fingerprint != encode.Fingerprint(sink.payloads[0]) {
		t.Fatalf("fingerprint mismatch")
	}
}

func TestLoader_EncodingErrorNotRetried(t *testing.T) {
	t.Parallel()

	sink := &scriptedSink{}
	l := newTestLoader(t, sink, DefaultPolicy())
	_, err := l.Load(context.Background(), batch.Batch{Rows: [][]string{{"only-one"}}})

	var fe *encode.FieldCountError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *encode.FieldCountError", err)
	}
	if sink.calls != 0 {
		t.Fatalf("sink called %d times", sink.calls)
	}
}

// TestLoader_CanceledDuringBackoff checks the default sleep honours ctx.
func TestLoader_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sink := &scriptedSink{failures: -1}
	l := newTestLoader(t, sink, Policy{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour},
		WithRetryHook(func(RetryEvent) { cancel() }),
	)

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, twoRows())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not return after cancel")
	}
}

func TestNewLoader_Validation(t *testing.T) {
	t.Parallel()

	sink := &scriptedSink{}
	tests := []struct {
		name    string
		sink    Sink
		cols    []string
		policy  Policy
		wantErr bool
	}{
		{name: "ok", sink: sink, cols: []string{"a"}, policy: DefaultPolicy()},
		{name: "nil sink", cols: []string{"a"}, policy: DefaultPolicy(), wantErr: true},
		{name: "no columns", sink: sink, policy: DefaultPolicy(), wantErr: true},
		{name: "negative retries", sink: sink, cols: []string{"a"}, policy: Policy{MaxRetries: -1, MaxBackoff: time.Second}, wantErr: true},
		{name: "max below initial", sink: sink, cols: []string{"a"}, policy: Policy{InitialBackoff: 2 * time.Second, MaxBackoff: time.Second}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLoader(tt.sink, "t", tt.cols, tt.policy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
