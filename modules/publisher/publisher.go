// Package publisher supervises the external encoder that consumes the
// shared transport and republishes it to the configured sinks.
//
// The encoder is restarted on any exit, clean or not, after a bounded
// delay, forever. It shares nothing with the station but the transport:
// track churn never restarts the encoder, and encoder crashes never
// touch playback.
package publisher

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/radiozero/relayd/pkg/transport"
)

var encoderRestarts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "relayd",
	Subsystem: "publisher",
	Name:      "encoder_restarts_total",
	Help:      "Times the encoder exited and was restarted.",
})

// launchFunc starts one encoder run and blocks until it exits.
type launchFunc func(ctx context.Context) error

type Publisher struct {
	services.Service
	cfg     *Config
	logger  *slog.Logger
	conduit transport.Conduit
	launch  launchFunc
}

var module = "publisher"

// New creates and returns a new Publisher.
func New(cfg Config, conduit transport.Conduit, logger slog.Logger) (*Publisher, error) {
	p := &Publisher{
		cfg:     &cfg,
		logger:  logger.With("module", module),
		conduit: conduit,
	}
	p.launch = p.runEncoder

	p.Service = services.NewBasicService(nil, p.running, p.stopping)

	return p, nil
}

func (p *Publisher) running(ctx context.Context) error {
	if !p.cfg.hasSinks() {
		p.logger.Info("no output sinks configured, publisher idle")
		<-ctx.Done()
		return nil
	}

	boff := backoff.New(ctx, p.cfg.RestartBackoff)
	for ctx.Err() == nil {
		start := time.Now()
		err := p.launch(ctx)
		if ctx.Err() != nil {
			break
		}

		uptime := time.Since(start)
		encoderRestarts.Inc()
		p.logger.Warn("encoder exited, restarting", "err", err, "uptime", uptime.Round(time.Second))

		// A run that survived for a while was healthy; don't punish the
		// next crash with an inflated delay.
		if uptime >= p.cfg.StableUptime {
			boff.Reset()
		}
		boff.Wait()
	}

	return nil
}

func (p *Publisher) stopping(_ error) error {
	p.logger.Info("stopping")
	return nil
}

// runEncoder launches one encoder process reading the conduit and
// blocks until it exits. Cancelling ctx kills the process.
func (p *Publisher) runEncoder(ctx context.Context) error {
	args := p.cfg.encoderArgs(p.conduit.Path())

	cmd := exec.CommandContext(ctx, p.cfg.BinPath, args...)
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr

	p.logger.Info("starting encoder", "bin", p.cfg.BinPath, "sinks", p.cfg.sinkNames())
	return cmd.Run()
}
