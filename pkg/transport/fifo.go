package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// readerPollInterval is how often Attach re-checks for a reader on the
// far end of the pipe. The encoder opens the read side shortly after it
// (re)starts, so the wait is normally brief.
const readerPollInterval = 100 * time.Millisecond

// FIFO is a Conduit backed by a named pipe. It is created fresh, so a
// stale pipe left by a previous run never carries old audio.
type FIFO struct {
	path  string
	guard guard
}

// NewFIFO creates the named pipe at path, replacing any existing file.
// Failure here is the one fatal startup condition: without the conduit
// there is no station.
func NewFIFO(path string) (*FIFO, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transport dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale transport: %w", err)
	}
	if err := unix.Mkfifo(path, 0o644); err != nil {
		return nil, fmt.Errorf("create transport fifo %s: %w", path, err)
	}
	return &FIFO{path: path}, nil
}

func (f *FIFO) Path() string { return f.path }

// Attach claims the writer side and opens the pipe. Opening is
// non-blocking: with no reader yet the kernel returns ENXIO, and we
// poll until the encoder opens its end or ctx is done.
func (f *FIFO) Attach(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := f.guard.reserve(name); err != nil {
		return nil, err
	}

	for {
		w, err := os.OpenFile(f.path, os.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			return &guardedWriter{WriteCloser: w, release: f.guard.release}, nil
		}
		if !errors.Is(err, unix.ENXIO) {
			f.guard.release()
			return nil, fmt.Errorf("open transport for write: %w", err)
		}

		select {
		case <-ctx.Done():
			f.guard.release()
			return nil, ctx.Err()
		case <-time.After(readerPollInterval):
		}
	}
}

func (f *FIFO) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
