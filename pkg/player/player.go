// Package player streams one resolved media locator's audio into the
// shared transport at real-time pace, delegating decode and pacing to
// an external ffmpeg process.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/radiozero/relayd/pkg/transport"
)

// ErrStreamInterrupted reports a network or decode failure mid-track.
// It is recovered by the caller exactly like a clean track end; neither
// outcome is fatal to the station.
var ErrStreamInterrupted = errors.New("player: stream interrupted")

type Player struct {
	cfg    *Config
	logger *slog.Logger
}

var module = "player"

// New creates and returns a new Player.
func New(cfg Config, logger slog.Logger) *Player {
	return &Player{
		cfg:    &cfg,
		logger: logger.With("module", module),
	}
}

// Play streams the locator's audio as fixed-format PCM into w until end
// of stream or a terminal network failure. A clean end returns nil; any
// other exit returns ErrStreamInterrupted. Cancelling ctx kills the
// underlying process.
//
// Malformed or inaccessible locators surface here as a normal failed
// run, not as a caller-visible abort.
func (p *Player) Play(ctx context.Context, locator string, w io.Writer) error {
	cmd := exec.CommandContext(ctx, p.cfg.BinPath, p.args(locator)...)
	cmd.Stdout = w

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s: %v", ErrStreamInterrupted, msg, err)
		}
		return fmt.Errorf("%w: %v", ErrStreamInterrupted, err)
	}
	return nil
}

// args builds the decoder invocation: identify as the configured user
// agent, bound every network read, reconnect on drops, EOF races and
// network errors with a capped delay, read at real-time pace, and emit
// the transport's fixed PCM format on stdout.
func (p *Player) args(locator string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-user_agent", p.cfg.UserAgent,
		"-rw_timeout", strconv.FormatInt(p.cfg.RWTimeout.Microseconds(), 10),
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_at_eof", "1",
		"-reconnect_on_network_error", "1",
		"-reconnect_delay_max", strconv.Itoa(int(p.cfg.ReconnectDelayMax.Seconds())),
		"-re",
		"-i", locator,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(transport.SampleRate),
		"-ac", strconv.Itoa(transport.Channels),
		"pipe:1",
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
