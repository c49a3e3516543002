// Package transport provides the shared audio conduit between the
// station's active writer (gap filler or track player) and the
// publisher's encoder.
//
// The conduit carries fixed-format PCM and admits at most one writer at
// any instant. Writers claim it with Attach and release it by closing
// the returned WriteCloser; a second Attach while the first is held
// fails with ErrWriterAttached. Interleaving two writers would
// desynchronize the encoder, so the guard is enforced here rather than
// by caller convention alone.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// PCM format carried by the conduit. Writers and the encoder must agree
// on these; they are fixed for the life of the process.
const (
	SampleRate     = 44100
	Channels       = 2
	BytesPerSample = 2
)

// BytesPerSecond is the real-time byte rate of the conduit.
const BytesPerSecond = SampleRate * Channels * BytesPerSample

// ErrWriterAttached is returned by Attach while another writer holds
// the conduit.
var ErrWriterAttached = errors.New("transport: writer already attached")

// A Conduit is the single ordered audio path between playback and
// publishing.
type Conduit interface {
	// Attach claims the writer side under the given name. It fails with
	// ErrWriterAttached if another writer has not yet released (closed)
	// its end. The context bounds any wait for the reader side to appear.
	Attach(ctx context.Context, name string) (io.WriteCloser, error)

	// Path is the filesystem path the encoder reads from, empty for
	// in-process conduits.
	Path() string

	// Remove tears down the conduit resource.
	Remove() error
}

// guard tracks the currently attached writer by name.
type guard struct {
	mu     sync.Mutex
	holder string
}

func (g *guard) reserve(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder != "" {
		return fmt.Errorf("%w: held by %q, wanted by %q", ErrWriterAttached, g.holder, name)
	}
	g.holder = name
	return nil
}

func (g *guard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.holder = ""
}

// guardedWriter releases the conduit guard exactly once on Close.
type guardedWriter struct {
	io.WriteCloser
	once    sync.Once
	release func()
}

func (w *guardedWriter) Close() error {
	err := w.WriteCloser.Close()
	w.once.Do(w.release)
	return err
}
