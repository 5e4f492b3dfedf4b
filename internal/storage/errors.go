package storage

import "fmt"

// TransferError wraps a failure reported by a Sink for one attempt. It is the
// only error the Loader retries.
type TransferError struct {
	Batch   int
	Attempt int
	Err     error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("storage: batch %d attempt %d: %v", e.Batch, e.Attempt, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// BatchExhaustedError is returned when a batch still fails after the
// configured number of retries. Err is the last TransferError.
type BatchExhaustedError struct {
	Batch    int
	Retries  int
	Attempts int
	Err      error
}

func (e *BatchExhaustedError) Error() string {
	return fmt.Sprintf("storage: batch %d failed after %d retries: %v", e.Batch, e.Retries, e.Err)
}

func (e *BatchExhaustedError) Unwrap() error { return e.Err }
