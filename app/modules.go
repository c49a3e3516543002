package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/server"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"

	"github.com/radiozero/relayd/modules/publisher"
	"github.com/radiozero/relayd/modules/station"
	"github.com/radiozero/relayd/pkg/player"
	"github.com/radiozero/relayd/pkg/resolver"
	"github.com/radiozero/relayd/pkg/transport"
)

const (
	Server string = "server"

	Transport string = "transport"

	Station string = "station"

	Publisher string = "publisher"

	All string = "all"
)

func (a *App) setupModuleManager() error {
	mm := modules.NewManager(kitlog.NewLogfmtLogger(os.Stderr))
	mm.RegisterModule(Server, a.initServer, modules.UserInvisibleModule)
	mm.RegisterModule(Transport, a.initTransport, modules.UserInvisibleModule)

	mm.RegisterModule(Station, a.initStation)
	mm.RegisterModule(Publisher, a.initPublisher)

	mm.RegisterModule(All, nil)

	deps := map[string][]string{
		Station:   {Server, Transport},
		Publisher: {Server, Transport},

		All: {Station, Publisher},
	}

	for mod, targets := range deps {
		if err := mm.AddDependency(mod, targets...); err != nil {
			return err
		}
	}

	a.ModuleManager = mm

	return nil
}

// initTransport creates the shared conduit. This is the single fatal
// startup path: without the conduit there is nothing to run.
func (a *App) initTransport() (services.Service, error) {
	fifo, err := transport.NewFIFO(a.cfg.Transport.Path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create shared transport")
	}
	a.transport = fifo

	stopping := func(_ error) error {
		return a.transport.Remove()
	}

	return services.NewIdleService(nil, stopping), nil
}

func (a *App) initStation() (services.Service, error) {
	res := resolver.New(a.cfg.Station.Resolver, resolver.NewExecExtractor(a.cfg.Station.Resolver), a.logger)
	pl := player.New(a.cfg.Station.Player, a.logger)

	s, err := station.New(a.cfg.Station, a.transport, res, pl, a.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init station")
	}

	return s, nil
}

func (a *App) initPublisher() (services.Service, error) {
	p, err := publisher.New(a.cfg.Publisher, a.transport, a.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init publisher")
	}

	return p, nil
}

func (a *App) initServer() (services.Service, error) {
	a.cfg.Server.MetricsNamespace = metricsNamespace
	a.cfg.Server.ExcludeRequestInLog = true
	a.cfg.Server.RegisterInstrumentation = true
	a.cfg.Server.Log = kitlog.NewLogfmtLogger(os.Stderr)

	server, err := server.New(a.cfg.Server)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create server")
	}

	servicesToWaitFor := func() []services.Service {
		svs := []services.Service(nil)
		for m, s := range a.serviceMap {
			// Server should not wait for itself.
			if m != Server {
				svs = append(svs, s)
			}
		}

		return svs
	}

	a.Server = server

	serverDone := make(chan error, 1)

	runFn := func(ctx context.Context) error {
		go func() {
			defer close(serverDone)
			serverDone <- server.Run()
		}()

		select {
		case <-ctx.Done():
			return nil
		case err := <-serverDone:
			if err != nil {
				return err
			}

			return fmt.Errorf("server stopped unexpectedly")
		}
	}

	stoppingFn := func(_ error) error {
		// wait until all modules are done, and then shutdown server.
		for _, s := range servicesToWaitFor() {
			_ = s.AwaitTerminated(context.Background())
		}

		// shutdown HTTP and gRPC servers (this also unblocks Run)
		server.Shutdown()

		// if not closed yet, wait until server stops.
		<-serverDone
		slog.Info("server stopped")
		return nil
	}

	return services.NewBasicService(nil, runFn, stoppingFn), nil
}
