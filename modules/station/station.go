// Package station implements the playback sequencer: it owns the track
// queue, drives resolution and playback in an endless loop, and keeps
// the shared transport fed with silence whenever no track is playing.
//
// The sequencer has no terminal state. Per-track failures are logged
// and skipped; only process termination stops the loop.
package station

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/grafana/dskit/services"

	"github.com/radiozero/relayd/pkg/resolver"
	"github.com/radiozero/relayd/pkg/transport"
)

// TrackResolver turns a queue entry into a playable locator.
type TrackResolver interface {
	Resolve(ctx context.Context, ref string) (resolver.Resolution, error)
}

// TrackPlayer streams one resolved locator into w until it ends.
type TrackPlayer interface {
	Play(ctx context.Context, locator string, w io.Writer) error
}

type state int

const (
	stateFillingGap state = iota
	stateResolving
	statePlaying
)

func (s state) String() string {
	switch s {
	case stateFillingGap:
		return "filling_gap"
	case stateResolving:
		return "resolving"
	case statePlaying:
		return "playing"
	}
	return "unknown"
}

const playerWriterName = "player"

type Station struct {
	services.Service
	cfg      *Config
	logger   *slog.Logger
	conduit  transport.Conduit
	resolver TrackResolver
	player   TrackPlayer
	gap      *gapFiller

	mu    sync.Mutex
	state state
}

var module = "station"

// New creates and returns a new Station.
func New(cfg Config, conduit transport.Conduit, res TrackResolver, pl TrackPlayer, logger slog.Logger) (*Station, error) {
	s := &Station{
		cfg:      &cfg,
		logger:   logger.With("module", module),
		conduit:  conduit,
		resolver: res,
		player:   pl,
	}
	s.gap = newGapFiller(conduit, s.logger)

	s.Service = services.NewBasicService(nil, s.running, s.stopping)

	return s, nil
}

func (s *Station) running(ctx context.Context) error {
	for ctx.Err() == nil {
		// Idempotent, and heals a silence writer that died during the
		// previous cycle.
		s.toFillingGap(ctx)

		refs, err := readQueue(s.cfg.QueuePath)
		switch {
		case err != nil:
			// Missing or unreadable queue degrades to silence, never to
			// process death.
			s.logger.Warn("queue source unavailable", "path", s.cfg.QueuePath, "err", err)
			sleepCtx(ctx, s.cfg.QueuePollInterval)
			continue
		case len(refs) == 0:
			s.logger.Info("queue empty, waiting", "path", s.cfg.QueuePath)
			sleepCtx(ctx, s.cfg.QueuePollInterval)
			continue
		}

		for _, ref := range refs {
			if ctx.Err() != nil {
				break
			}
			s.playOne(ctx, ref)
		}

		cyclesCompleted.Inc()
		s.logger.Info("queue cycle complete, looping", "entries", len(refs))
	}

	return nil
}

func (s *Station) stopping(_ error) error {
	s.logger.Info("stopping")
	s.gap.Stop()
	return nil
}

// playOne runs one queue entry through resolve and play. Every failure
// path returns to gap filling and advances the queue.
func (s *Station) playOne(ctx context.Context, ref string) {
	s.toFillingGap(ctx)

	s.setState(stateResolving)
	res, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		resolutionFailures.Inc()
		s.logger.Warn("skipping track, resolution failed", "ref", ref, "err", err)
		s.setState(stateFillingGap)
		return
	}

	// Hand over the conduit: the silence writer must have fully released
	// it before the player attaches, or the two streams would interleave.
	s.gap.Stop()
	w, err := s.conduit.Attach(ctx, playerWriterName)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("could not attach player to transport", "ref", ref, "err", err)
		}
		s.toFillingGap(ctx)
		return
	}

	s.setState(statePlaying)
	s.writeNowPlaying(ref)
	s.logger.Info("playing", "ref", ref, "strategy", res.Strategy)

	start := time.Now()
	err = s.player.Play(ctx, res.Locator, w)
	_ = w.Close()

	switch {
	case err == nil:
		tracksPlayed.Inc()
		s.logger.Info("track finished", "ref", ref, "duration", time.Since(start).Round(time.Second))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		streamInterruptions.Inc()
		s.logger.Warn("track interrupted", "ref", ref, "err", err, "after", time.Since(start).Round(time.Second))
	}

	s.toFillingGap(ctx)
	sleepCtx(ctx, s.cfg.TrackPause)
}

// toFillingGap re-attaches the silence writer. Called on loop start and
// after every track outcome, so the conduit is never left without a
// writer for longer than one transition.
func (s *Station) toFillingGap(ctx context.Context) {
	s.setState(stateFillingGap)
	if ctx.Err() != nil {
		return
	}
	s.gap.Start(ctx)
}

func (s *Station) setState(st state) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.logger.Debug("state", "state", st)
}

// State reports the sequencer's current phase.
func (s *Station) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

// writeNowPlaying records the current reference for external display.
// Best effort only.
func (s *Station) writeNowPlaying(ref string) {
	if s.cfg.NowPlayingPath == "" {
		return
	}
	if err := os.WriteFile(s.cfg.NowPlayingPath, []byte(ref+"\n"), 0o644); err != nil {
		s.logger.Warn("failed to write now-playing file", "path", s.cfg.NowPlayingPath, "err", err)
	}
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
