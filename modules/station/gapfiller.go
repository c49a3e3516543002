package station

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/radiozero/relayd/pkg/transport"
)

// silenceChunksPerSecond sets the pacing granularity of the gap filler:
// 10 chunks of 100ms keep the conduit fed without busy writing.
const silenceChunksPerSecond = 10

const gapWriterName = "gapfiller"

// gapFiller keeps the conduit alive with paced PCM silence whenever no
// track is playing. Start and Stop are idempotent; Stop waits for the
// writer to release the conduit so the caller can attach the next
// writer without violating the single-writer guarantee.
type gapFiller struct {
	conduit transport.Conduit
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	failed bool
}

func newGapFiller(conduit transport.Conduit, logger *slog.Logger) *gapFiller {
	return &gapFiller{
		conduit: conduit,
		logger:  logger.With("writer", gapWriterName),
	}
}

// Start spawns the silence writer if it is not already running.
func (g *gapFiller) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.runningLocked() {
		return
	}
	if g.failed {
		// An earlier writer died on its own; the output had a real gap
		// until now. Degradation, not a crash.
		g.logger.Warn("silence writer died earlier, restarting")
		g.failed = false
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	g.cancel = cancel
	g.done = done
	gapFillerActive.Set(1)

	go func() {
		defer close(done)
		if err := g.run(runCtx); err != nil && runCtx.Err() == nil {
			g.markFailed()
			g.logger.Warn("silence writer exited unexpectedly", "err", err)
		}
	}()
}

// Stop terminates the silence writer and waits for it to release the
// conduit.
func (g *gapFiller) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	gapFillerActive.Set(0)
}

// IsRunning reports whether the silence writer is live.
func (g *gapFiller) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runningLocked()
}

func (g *gapFiller) runningLocked() bool {
	if g.done == nil {
		return false
	}
	select {
	case <-g.done:
		return false
	default:
		return true
	}
}

func (g *gapFiller) markFailed() {
	g.mu.Lock()
	g.failed = true
	g.mu.Unlock()
	gapFillerActive.Set(0)
}

func (g *gapFiller) run(ctx context.Context) error {
	w, err := g.conduit.Attach(ctx, gapWriterName)
	if err != nil {
		return err
	}
	defer w.Close()

	// Zeroed s16le samples are silence; one chunk per tick keeps the
	// write rate equal to the conduit's real-time byte rate.
	chunk := make([]byte, transport.BytesPerSecond/silenceChunksPerSecond)
	ticker := time.NewTicker(time.Second / silenceChunksPerSecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Write(chunk); err != nil {
				return err
			}
		}
	}
}
