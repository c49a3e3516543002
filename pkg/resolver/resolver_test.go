package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/flagext"
)

func testLogger() slog.Logger {
	return *slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(strategies ...string) Config {
	return Config{
		Strategies: flagext.StringSliceCSV(strategies),
		Backoff: backoff.Config{
			MinBackoff: time.Millisecond,
			MaxBackoff: 2 * time.Millisecond,
			MaxRetries: 3,
		},
		AttemptTimeout: time.Second,
	}
}

// scriptedExtractor fails every attempt before succeedAt (1-based) and
// records the strategy of each attempt.
type scriptedExtractor struct {
	mu        sync.Mutex
	attempts  []string
	succeedAt int
	silent    bool // return empty locators instead of errors
}

func (e *scriptedExtractor) Extract(_ context.Context, ref string, strategy Strategy) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.attempts = append(e.attempts, string(strategy))
	if e.succeedAt > 0 && len(e.attempts) >= e.succeedAt {
		return "https://cdn.example/" + ref, nil
	}
	if e.silent {
		return "", nil
	}
	return "", fmt.Errorf("no playable formats for %s", ref)
}

func (e *scriptedExtractor) attemptCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.attempts)
}

func TestResolveExhaustsStrategiesTimesRetries(t *testing.T) {
	ex := &scriptedExtractor{}
	r := New(testConfig("web", "tv"), ex, testLogger())

	_, err := r.Resolve(context.Background(), "https://example/v")
	if !errors.Is(err, ErrResolutionFailed) {
		t.Fatalf("expected ErrResolutionFailed, got %v", err)
	}

	// 2 strategies x 3 retries, grouped by strategy in configured order.
	if got := ex.attemptCount(); got != 6 {
		t.Fatalf("attempts = %d, want 6", got)
	}
	for i, s := range ex.attempts {
		want := "web"
		if i >= 3 {
			want = "tv"
		}
		if s != want {
			t.Errorf("attempt %d used strategy %q, want %q", i, s, want)
		}
	}
}

func TestResolveFirstSuccessShortCircuits(t *testing.T) {
	ex := &scriptedExtractor{succeedAt: 4}
	r := New(testConfig("web", "tv", "ios"), ex, testLogger())

	res, err := r.Resolve(context.Background(), "https://example/v")
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "tv" {
		t.Errorf("strategy = %q, want tv", res.Strategy)
	}
	if res.Locator != "https://cdn.example/https://example/v" {
		t.Errorf("unexpected locator %q", res.Locator)
	}
	if got := ex.attemptCount(); got != 4 {
		t.Errorf("attempts = %d, want 4", got)
	}
}

func TestResolveEmptyResultCountsAsFailure(t *testing.T) {
	ex := &scriptedExtractor{silent: true}
	r := New(testConfig("web"), ex, testLogger())

	_, err := r.Resolve(context.Background(), "https://example/v")
	if !errors.Is(err, ErrResolutionFailed) {
		t.Fatalf("expected ErrResolutionFailed, got %v", err)
	}
	if got := ex.attemptCount(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestResolveHonorsCancellation(t *testing.T) {
	ex := &scriptedExtractor{}
	r := New(testConfig("web", "tv"), ex, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "https://example/v")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
