package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"csvload/internal/datasource/file"
	"csvload/internal/parser/csv"
	"csvload/internal/schema"
	"csvload/internal/storage"
)

func writeCSV(tb testing.TB, name, data string) *file.Local {
	tb.Helper()
	p := filepath.Join(tb.TempDir(), name)
	require.NoError(tb, os.WriteFile(p, []byte(data), 0o644))
	return file.NewLocal(p)
}

// recordingSink accepts every payload except the attempts listed in failOn
// (1-based call numbers).
type recordingSink struct {
	mu       sync.Mutex
	calls    int
	failOn   map[int]bool
	payloads []string
}

func (s *recordingSink) CopyCSV(_ context.Context, _ string, _ []string, payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn[s.calls] {
		return 0, errors.New("connection reset")
	}
	s.payloads = append(s.payloads, string(payload))
	return int64(strings.Count(string(payload), "\n")), nil
}

type recordingObserver struct {
	batches []BatchEvent
	retries []storage.RetryEvent
}

func (o *recordingObserver) BatchLoaded(e BatchEvent)   { o.batches = append(o.batches, e) }
func (o *recordingObserver) Retry(e storage.RetryEvent) { o.retries = append(o.retries, e) }

func noSleep(context.Context, time.Duration) error { return nil }

const users = "id,name,joined\n1,Alice,2024-01-15\n2,Bob,2024-02-01\n,Carol,\n4,\"Smith, J\",2024-03-09\n5,Eve,2024-03-10\n"

func TestInfer(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "users.csv", users)
	tbl, err := Infer(context.Background(), src, InferOptions{
		CSV:        csv.Options{HasHeader: true},
		Table:      "users",
		SampleSize: 100,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "joined"}, tbl.ColumnNames())
	require.Equal(t, []schema.Type{schema.SmallInt, schema.Text, schema.Date}, tbl.Types())
	require.True(t, tbl.Columns[0].Nullable)
	require.False(t, tbl.Columns[1].Nullable)
	require.EqualValues(t, 5, tbl.Columns[0].SampleCount)
}

func TestInfer_InvalidTableBeforeOpen(t *testing.T) {
	t.Parallel()

	src := file.NewLocal(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := Infer(context.Background(), src, InferOptions{Table: "1users", SampleSize: 10})

	var ie *schema.InvalidIdentifierError
	require.ErrorAs(t, err, &ie)
}

func TestInfer_EmptyInput(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "empty.csv", "id,name\n")
	_, err := Infer(context.Background(), src, InferOptions{
		CSV:        csv.Options{HasHeader: true},
		Table:      "empty",
		SampleSize: 10,
	})
	require.ErrorIs(t, err, schema.ErrEmptyInput)
}

func inferUsers(t *testing.T, src *file.Local) schema.Table {
	t.Helper()
	tbl, err := Infer(context.Background(), src, InferOptions{
		CSV:        csv.Options{HasHeader: true},
		Table:      "users",
		SampleSize: 2,
	})
	require.NoError(t, err)
	return tbl
}

// TestLoad_RereadsWholeInput checks that the load pass sees every row even
// though inference only sampled two of them.
func TestLoad_RereadsWholeInput(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "users.csv", users)
	tbl := inferUsers(t, src)

	sink := &recordingSink{}
	obs := &recordingObserver{}
	res, err := Load(context.Background(), src, tbl, sink, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 2,
		Policy:    storage.DefaultPolicy(),
		Observer:  obs,
		Sleep:     noSleep,
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, res.Rows)
	require.Equal(t, 3, res.Batches)

	require.Equal(t, []string{
		"1,Alice,2024-01-15\n2,Bob,2024-02-01\n",
		",Carol,\n4,\"Smith, J\",2024-03-09\n",
		"5,Eve,2024-03-10\n",
	}, sink.payloads)

	require.Len(t, obs.batches, 3)
	require.EqualValues(t, 2, obs.batches[1].Rows)
	require.EqualValues(t, 4, obs.batches[1].TotalRows)
	require.Equal(t, 3, obs.batches[2].Batch)
	require.Empty(t, obs.retries)
}

func TestLoad_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "users.csv", users)
	tbl := inferUsers(t, src)

	var slept []time.Duration
	sink := &recordingSink{failOn: map[int]bool{2: true, 3: true}}
	obs := &recordingObserver{}
	res, err := Load(context.Background(), src, tbl, sink, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 3,
		Policy:    storage.Policy{MaxRetries: 2, InitialBackoff: time.Second, MaxBackoff: time.Minute},
		Observer:  obs,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, res.Rows)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)

	require.Len(t, obs.retries, 2)
	require.Equal(t, 2, obs.retries[0].Batch)
	require.Equal(t, 3, obs.retries[1].MaxAttempts)
	require.Equal(t, obs.retries[0].Fingerprint, obs.retries[1].Fingerprint)
}

// TestLoad_ExhaustedKeepsPartialCount fails every attempt of the second batch
// and expects the first batch's rows to be reported.
func TestLoad_ExhaustedKeepsPartialCount(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "users.csv", users)
	tbl := inferUsers(t, src)

	sink := &recordingSink{failOn: map[int]bool{2: true, 3: true}}
	res, err := Load(context.Background(), src, tbl, sink, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 2,
		Policy:    storage.Policy{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		Sleep:     noSleep,
	})

	var be *storage.BatchExhaustedError
	require.ErrorAs(t, err, &be)
	require.Equal(t, 2, be.Batch)
	require.Equal(t, 2, be.Attempts)
	require.EqualValues(t, 2, res.Rows)
	require.Equal(t, 1, res.Batches)
}

func TestLoad_ParseErrorAborts(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "bad.csv", "a,b\n1,2\n3,4\n5,\"open\n")
	tbl := schema.Table{Name: "bad", Columns: []schema.Profile{
		{Name: "a", Type: schema.SmallInt}, {Name: "b", Type: schema.SmallInt},
	}}

	sink := &recordingSink{}
	res, err := Load(context.Background(), src, tbl, sink, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 2,
		Policy:    storage.DefaultPolicy(),
		Sleep:     noSleep,
	})

	var pe *csv.ParseError
	require.ErrorAs(t, err, &pe)
	require.EqualValues(t, 2, res.Rows)
}

func TestLoad_FieldCountNotRetried(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "ragged.csv", "a,b\n1,2\n3\n")
	tbl := schema.Table{Name: "ragged", Columns: []schema.Profile{
		{Name: "a", Type: schema.SmallInt}, {Name: "b", Type: schema.SmallInt},
	}}

	sink := &recordingSink{}
	_, err := Load(context.Background(), src, tbl, sink, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 10,
		Policy:    storage.DefaultPolicy(),
		Sleep:     noSleep,
	})
	require.Error(t, err)
	require.Zero(t, sink.calls)
}

func TestLoad_HeaderWidthMismatch(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "wide.csv", "a,b,c\n1,2,3\n")
	tbl := schema.Table{Name: "wide", Columns: []schema.Profile{{Name: "a", Type: schema.SmallInt}}}

	_, err := Load(context.Background(), src, tbl, &recordingSink{}, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 10,
		Policy:    storage.DefaultPolicy(),
	})
	var se *schema.SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 3, se.Got)
}

func TestLoad_CanceledBetweenBatches(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "users.csv", users)
	tbl := inferUsers(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := &cancelAfterFirst{cancel: cancel}
	res, err := Load(ctx, src, tbl, &recordingSink{}, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 2,
		Policy:    storage.DefaultPolicy(),
		Observer:  obs,
	})
	require.ErrorIs(t, err, context.Canceled)
	require.EqualValues(t, 2, res.Rows)
	require.Equal(t, 1, res.Batches)
}

type cancelAfterFirst struct{ cancel context.CancelFunc }

func (c *cancelAfterFirst) BatchLoaded(BatchEvent)   { c.cancel() }
func (c *cancelAfterFirst) Retry(storage.RetryEvent) {}

func TestLoad_ElapsedUsesClock(t *testing.T) {
	t.Parallel()

	src := writeCSV(t, "users.csv", users)
	tbl := inferUsers(t, src)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	now := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	obs := &recordingObserver{}
	res, err := Load(context.Background(), src, tbl, &recordingSink{}, LoadOptions{
		CSV:       csv.Options{HasHeader: true},
		BatchSize: 5,
		Policy:    storage.DefaultPolicy(),
		Observer:  obs,
		Now:       now,
	})
	require.NoError(t, err)
	require.Equal(t, time.Second, obs.batches[0].Elapsed)
	require.Equal(t, 2*time.Second, res.Elapsed)
	require.InDelta(t, 2.5, res.RowsPerSecond(), 1e-9)
}
