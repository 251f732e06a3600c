// Command gateway is the market-access gateway's thin entrypoint: parse
// the bootstrap configuration, fetch the runtime configuration, wire the
// engine's collaborators, run until signalled, and shut down gracefully
// (spec §4.10, §6.4).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/config"
	"github.com/meridianfx/marketgate/engine"
	"github.com/meridianfx/marketgate/event"
	"github.com/meridianfx/marketgate/exchanges"
	golog "github.com/meridianfx/marketgate/log"
)

func main() {
	bootstrapPath := flag.String("bootstrap", "gate.ini", "path to the bootstrap configuration INI file")
	flag.Parse()

	if err := run(*bootstrapPath); err != nil {
		golog.Errorln(golog.Global, "fatal:", err)
		os.Exit(1)
	}
}

func run(bootstrapPath string) error {
	bootstrap, err := config.LoadBootstrap(bootstrapPath)
	if err != nil {
		return fmt.Errorf("load bootstrap: %w", err)
	}

	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelFetch()
	fetcher := config.NewFetcher(bootstrap.BaseURL)
	runtimeCfg, err := fetcher.Fetch(fetchCtx, bootstrap.ExchangeID, bootstrap.Instance, false)
	if err != nil {
		return fmt.Errorf("fetch runtime config: %w", err)
	}

	info := runtimeCfg.Data.Configs.GateConfig.Info
	identity := event.Identity{
		Exchange: info.Exchange,
		Node:     event.NodeGate,
		Instance: info.Instance,
		Algo:     runtimeCfg.Algo,
	}

	// The production messaging-bus primitive (a UDP/IPC log such as
	// Aeron) is an external collaborator the gateway assumes available
	// (spec §1); this thin entrypoint wires the in-memory LoopbackTransport
	// shipped with the bus package until a real transport is plugged in
	// behind bus.Publisher/bus.Subscriber.
	transport := bus.NewLoopbackTransport(256)
	publishers := map[bus.Destination]bus.Publisher{
		bus.OrderBook: transport.Publisher(bus.OrderBook),
		bus.Balance:   transport.Publisher(bus.Balance),
		bus.Core:      transport.Publisher(bus.Core),
		bus.Logs:      transport.Publisher(bus.Logs),
	}
	transmitter := bus.NewTransmitter(transport.Subscriber(), publishers, bus.NewSleepingIdleStrategy(time.Millisecond))

	credentials := runtimeCfg.Data.Configs.GateConfig.Exchange.Credentials
	if len(credentials) == 0 {
		return fmt.Errorf("run: no credentials configured for exchange %q", bootstrap.ExchangeID)
	}

	// The concrete venue adapter is an external collaborator (spec §1):
	// this gateway is shipped against the Driver interface, not any one
	// venue. Each configured credential gets its own driver instance here;
	// swap exchanges.NewFakeDriver for a real adapter's constructor to
	// point this build at a live exchange.
	privateDrivers := make([]exchanges.Driver, len(credentials))
	for i := range credentials {
		privateDrivers[i] = exchanges.NewFakeDriver()
	}
	publicDriver := exchanges.NewFakeDriver()

	correlatorStore := engine.NewMapKVStore()

	gw := engine.New(identity, transmitter, privateDrivers, publicDriver, correlatorStore, runtimeCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	golog.Infoln(golog.Global, "gateway starting for", bootstrap.ExchangeID, bootstrap.Instance)
	gw.Run(ctx)

	golog.Infoln(golog.Global, "gateway shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return gw.Shutdown(shutdownCtx)
}
