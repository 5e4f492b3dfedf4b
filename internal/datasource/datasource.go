// Package datasource defines where input rows come from.
package datasource

import (
	"context"
	"io"
)

// Source is a restartable input. Every call to Open returns a fresh reader
// positioned at the first byte, so the inference pass and the load pass can
// each read the input from the start.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sizer is implemented by sources that know their length in bytes.
type Sizer interface {
	Size(ctx context.Context) (int64, error)
}
