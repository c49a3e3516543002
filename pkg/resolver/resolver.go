// Package resolver turns track references into direct, time-limited
// media locators by trying an ordered list of client strategies, each
// with a bounded number of retries.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grafana/dskit/backoff"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Strategy identifies a client variant handed to the external
// extractor, e.g. "web", "tv", "ios". Some sources restrict individual
// clients, so the resolver walks the configured list until one works.
type Strategy string

// Resolution is a resolved locator and the strategy that produced it.
// Locators expire, so a Resolution is only valid for one playback
// attempt and must never be cached across attempts.
type Resolution struct {
	Locator  string
	Strategy Strategy
}

// Extractor performs one resolution attempt with one strategy. An empty
// locator with a nil error means the strategy produced no result.
type Extractor interface {
	Extract(ctx context.Context, ref string, strategy Strategy) (string, error)
}

// ErrResolutionFailed reports that every strategy/retry combination was
// exhausted for a reference. Callers skip the track and carry on.
var ErrResolutionFailed = errors.New("resolver: all strategies exhausted")

var attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "relayd",
	Subsystem: "resolver",
	Name:      "attempts_total",
	Help:      "Resolution attempts by client strategy.",
}, []string{"strategy"})

type Resolver struct {
	cfg       *Config
	extractor Extractor
	logger    *slog.Logger
}

var module = "resolver"

// New creates and returns a new Resolver.
func New(cfg Config, extractor Extractor, logger slog.Logger) *Resolver {
	return &Resolver{
		cfg:       &cfg,
		extractor: extractor,
		logger:    logger.With("module", module),
	}
}

// Resolve tries each configured strategy in order, retrying every
// strategy up to the configured attempt count with increasing delays.
// The first non-empty locator wins. Resolve mutates no shared state and
// is safe to call repeatedly for the same reference.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Resolution, error) {
	var lastErr error

	for _, raw := range r.cfg.Strategies {
		strategy := Strategy(raw)

		boff := backoff.New(ctx, r.cfg.Backoff)
		for boff.Ongoing() {
			attemptsTotal.WithLabelValues(raw).Inc()

			attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
			locator, err := r.extractor.Extract(attemptCtx, ref, strategy)
			cancel()

			if err == nil && locator != "" {
				return Resolution{Locator: locator, Strategy: strategy}, nil
			}
			if err != nil {
				lastErr = err
				r.logger.Warn("resolution attempt failed",
					"ref", ref, "strategy", strategy, "attempt", boff.NumRetries()+1, "err", err)
			}

			boff.Wait()
		}

		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
	}

	if lastErr != nil {
		return Resolution{}, fmt.Errorf("%w: %s: last error: %v", ErrResolutionFailed, ref, lastErr)
	}
	return Resolution{}, fmt.Errorf("%w: %s", ErrResolutionFailed, ref)
}
