// Package file implements a local filesystem-backed data source.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"csvload/internal/datasource"
)

// readBufferSize is the read-ahead used for input files.
const readBufferSize = 1 << 20

var (
	_ datasource.Source = (*Local)(nil)
	_ datasource.Sizer  = (*Local)(nil)
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading. Every call starts a fresh read
// from offset zero.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
//   - Directories are rejected.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return &bufferedFile{Reader: bufio.NewReaderSize(f, readBufferSize), f: f}, nil
}

// Size returns the file length in bytes.
func (l *Local) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fi, err := os.Stat(l.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", l.path, err)
	}
	return fi.Size(), nil
}

type bufferedFile struct {
	*bufio.Reader
	f *os.File
}

func (b *bufferedFile) Close() error { return b.f.Close() }
