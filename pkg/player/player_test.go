package player

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() slog.Logger {
	return *slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		BinPath:           "ffmpeg",
		UserAgent:         "test-agent/1.0",
		RWTimeout:         30 * time.Second,
		ReconnectDelayMax: 10 * time.Second,
	}
}

func indexOf(args []string, s string) int {
	for i, a := range args {
		if a == s {
			return i
		}
	}
	return -1
}

func TestArgs(t *testing.T) {
	p := New(testConfig(), testLogger())
	args := p.args("https://cdn.example/a.m4a")

	pairs := map[string]string{
		"-user_agent":          "test-agent/1.0",
		"-rw_timeout":          "30000000",
		"-reconnect":           "1",
		"-reconnect_streamed":  "1",
		"-reconnect_at_eof":    "1",
		"-reconnect_delay_max": "10",
		"-i":                   "https://cdn.example/a.m4a",
		"-ar":                  "44100",
		"-ac":                  "2",
	}
	for flag, want := range pairs {
		i := indexOf(args, flag)
		if i < 0 || i+1 >= len(args) {
			t.Errorf("missing %s", flag)
			continue
		}
		if args[i+1] != want {
			t.Errorf("%s = %q, want %q", flag, args[i+1], want)
		}
	}

	// Real-time pacing is an input option: -re must precede -i.
	if re, in := indexOf(args, "-re"), indexOf(args, "-i"); re < 0 || re > in {
		t.Errorf("-re must come before -i: %v", args)
	}

	if args[len(args)-1] != "pipe:1" {
		t.Errorf("output must be stdout, got %q", args[len(args)-1])
	}
}

func TestPlayCleanExit(t *testing.T) {
	cfg := testConfig()
	cfg.BinPath = "true"
	p := New(cfg, testLogger())

	var buf bytes.Buffer
	if err := p.Play(context.Background(), "https://example/x", &buf); err != nil {
		t.Fatalf("clean exit: %v", err)
	}
}

func TestPlayFailureIsStreamInterrupted(t *testing.T) {
	cfg := testConfig()
	cfg.BinPath = "false"
	p := New(cfg, testLogger())

	var buf bytes.Buffer
	err := p.Play(context.Background(), "https://example/x", &buf)
	if !errors.Is(err, ErrStreamInterrupted) {
		t.Fatalf("expected ErrStreamInterrupted, got %v", err)
	}
}

func TestPlayCancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.BinPath = "true"
	p := New(cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := p.Play(ctx, "https://example/x", &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
