// Package batch groups a stream of parsed rows into fixed-size batches, the
// unit in which rows are encoded, transferred and retried.
package batch

import (
	"errors"
	"fmt"
	"io"
)

// DefaultSize is the number of rows per batch when none is configured.
const DefaultSize = 10_000

// RowSource yields parsed rows; Next returns io.EOF when exhausted.
type RowSource interface {
	Next() ([]string, error)
}

// Batch is an ordered group of rows.
type Batch struct {
	// Index is the 1-based position of the batch in the stream.
	Index int
	// Offset is the number of rows that preceded this batch, so row i of the
	// batch is data row Offset+i+1 of the input.
	Offset int64
	Rows   [][]string
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int { return len(b.Rows) }

// Batcher pulls rows from a RowSource and hands them out in batches of at most
// size rows. It is single-pass: once it returns io.EOF or an error, every
// later call returns io.EOF.
type Batcher struct {
	src  RowSource
	size int

	index  int
	offset int64
	done   bool
}

// NewBatcher returns a Batcher over src.
func NewBatcher(src RowSource, size int) (*Batcher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch: size must be > 0, got %d", size)
	}
	if src == nil {
		return nil, fmt.Errorf("batch: source must not be nil")
	}
	return &Batcher{src: src, size: size}, nil
}

// Next returns the next batch. A short final batch is returned when the
// source runs out mid-batch, and io.EOF once nothing is left. A row error is
// returned as-is; the rows collected for that batch are discarded.
func (b *Batcher) Next() (Batch, error) {
	if b.done {
		return Batch{}, io.EOF
	}

	rows := make([][]string, 0, b.size)
	for len(rows) < b.size {
		row, err := b.src.Next()
		if errors.Is(err, io.EOF) {
			b.done = true
			break
		}
		if err != nil {
			b.done = true
			return Batch{}, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return Batch{}, io.EOF
	}

	b.index++
	out := Batch{Index: b.index, Offset: b.offset, Rows: rows}
	b.offset += int64(len(rows))
	return out, nil
}
