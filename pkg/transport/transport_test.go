package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestMemorySingleWriter(t *testing.T) {
	m := NewMemory(8)
	ctx := context.Background()

	a, err := m.Attach(ctx, "gapfiller")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Attach(ctx, "player"); !errors.Is(err, ErrWriterAttached) {
		t.Fatalf("second attach: expected ErrWriterAttached, got %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := m.Attach(ctx, "player")
	if err != nil {
		t.Fatalf("attach after release: %v", err)
	}
	_ = b.Close()
}

func TestMemoryDoubleCloseReleasesOnce(t *testing.T) {
	m := NewMemory(8)
	ctx := context.Background()

	a, err := m.Attach(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	_ = a.Close()
	_ = a.Close()

	// A stale second Close must not free a newly attached writer.
	b, err := m.Attach(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	_ = a.Close()

	if _, err := m.Attach(ctx, "c"); !errors.Is(err, ErrWriterAttached) {
		t.Fatalf("expected ErrWriterAttached while b holds the conduit, got %v", err)
	}
	_ = b.Close()
}

func TestMemoryCarriesBytesInOrder(t *testing.T) {
	m := NewMemory(8)

	w, err := m.Attach(context.Background(), "player")
	if err != nil {
		t.Fatal(err)
	}

	first := []byte{1, 2, 3}
	second := []byte{4, 5}
	if _, err := w.Write(first); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(second); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	if got := <-m.Chunks(); !bytes.Equal(got, first) {
		t.Errorf("first chunk = %v, want %v", got, first)
	}
	if got := <-m.Chunks(); !bytes.Equal(got, second) {
		t.Errorf("second chunk = %v, want %v", got, second)
	}
}

func TestMemoryWriteAfterRemove(t *testing.T) {
	m := NewMemory(8)

	w, err := m.Attach(context.Background(), "player")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Write([]byte{1}); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected ErrClosedPipe, got %v", err)
	}
}

func TestFIFOLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime", "radio.pcm")

	f, err := NewFIFO(path)
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		t.Fatalf("%s is not a named pipe: %v", path, info.Mode())
	}

	// Open the read side the way the encoder would.
	r, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	w, err := f.Attach(ctx, "gapfiller")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.Attach(ctx, "player"); !errors.Is(err, ErrWriterAttached) {
		t.Fatalf("second attach: expected ErrWriterAttached, got %v", err)
	}

	payload := []byte("pcm-bytes")
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, len(payload))
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, payload) {
		t.Errorf("read %q, want %q", buf, payload)
	}

	_ = w.Close()

	if err := f.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("fifo still present after Remove: %v", err)
	}
}

func TestFIFOAttachWaitsForReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radio.pcm")

	f, err := NewFIFO(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Remove()

	// No reader: Attach must wait, then give up with the context.
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	if _, err := f.Attach(ctx, "gapfiller"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	// The failed attach released the guard; with a reader present the
	// next attach succeeds.
	r, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	w, err := f.Attach(context.Background(), "gapfiller")
	if err != nil {
		t.Fatalf("attach with reader: %v", err)
	}
	_ = w.Close()
}

func TestFIFOReplacesStalePipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radio.pcm")

	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFIFO(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Remove()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		t.Error("stale regular file was not replaced by a pipe")
	}
}
