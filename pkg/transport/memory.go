package transport

import (
	"context"
	"io"
	"sync"
)

// Memory is an in-process Conduit backed by a buffered channel. It is
// used by tests, where a real pipe and encoder would only get in the
// way of observing the writer protocol.
type Memory struct {
	guard guard

	mu       sync.Mutex
	dataChan chan []byte
	closed   bool
}

// NewMemory returns a Memory conduit buffering up to buffer chunks.
func NewMemory(buffer int) *Memory {
	return &Memory{
		dataChan: make(chan []byte, buffer),
	}
}

func (m *Memory) Attach(_ context.Context, name string) (io.WriteCloser, error) {
	if err := m.guard.reserve(name); err != nil {
		return nil, err
	}
	return &guardedWriter{
		WriteCloser: &memWriter{m: m},
		release:     m.guard.release,
	}, nil
}

func (m *Memory) Path() string { return "" }

// Chunks exposes the read side. The channel is closed by Remove.
func (m *Memory) Chunks() <-chan []byte { return m.dataChan }

func (m *Memory) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		close(m.dataChan)
		m.closed = true
	}
	return nil
}

type memWriter struct {
	m *Memory
}

// Write copies p (callers reuse their buffers) and hands it to the read
// side. When the buffer is full the chunk is dropped rather than
// blocking: a writer parked on a full conduit could never be stopped,
// and the stop path must always complete.
func (w *memWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()

	if w.m.closed {
		return 0, io.ErrClosedPipe
	}

	b := make([]byte, len(p))
	copy(b, p)

	select {
	case w.m.dataChan <- b:
	default:
	}

	return len(p), nil
}

func (w *memWriter) Close() error { return nil }
