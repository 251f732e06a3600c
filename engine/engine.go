package engine

import (
	"context"
	"sync"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/config"
	"github.com/meridianfx/marketgate/event"
	"github.com/meridianfx/marketgate/exchanges"
	golog "github.com/meridianfx/marketgate/log"
)

// Engine owns every cooperating background loop and wires C1-C9 together
// (spec §4.10, C10). It does not itself talk to the network or the bus
// primitive beyond what Transmitter and Driver already abstract; its job
// is construction, lifecycle, and graceful shutdown.
type Engine struct {
	identity    event.Identity
	transmitter *bus.Transmitter
	credentials *CredentialPool
	publicPool  *PublicPool
	correlator  *Correlator
	openSet     *OpenSet
	gate        *PriorityGate
	metrics     *MetricsManager
	dispatcher  *Dispatcher

	orderBook *OrderBookManager
	balance   *BalanceManager
	orders    *OrdersManager

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New builds an Engine from its fully-resolved collaborators: one driver
// per credential for the private pool, a single driver for public
// order-book polling, the KV store backing the correlator, and the
// runtime configuration fetched from the configurator (spec §6.3).
//
// Construction mirrors spec §4.10's "parse config, build C2/C3/C5/C4/C7
// instances, set the configured tickers/assets, depth, delays,
// data-collection-methods."
func New(identity event.Identity, transmitter *bus.Transmitter, privateDrivers []exchanges.Driver, publicDriver exchanges.Driver, correlatorStore KVStore, cfg config.RuntimeConfig) *Engine {
	gateCfg := cfg.Data.Configs.GateConfig

	credentials := NewCredentialPool(privateDrivers)
	publicPool := NewPublicPool(publicDriver)
	correlator := NewCorrelator(correlatorStore)
	openSet := NewOpenSet()
	gate := NewPriorityGate()
	metrics := NewMetricsManager(identity, transmitter)

	assets := cfg.DefaultAssets()
	symbols := cfg.Symbols()
	depth := gateCfg.Gate.OrderBookDepth

	dispatcher := NewDispatcher(identity, transmitter, credentials, correlator, openSet, gate, metrics, assets, symbols)

	orderBook := NewOrderBookManager(identity, transmitter, publicPool, metrics,
		CollectionMethod(gateCfg.DataCollectionMethod.OrderBook), symbols, depth, gateCfg.Gate.OrderBookDelay())
	balance := NewBalanceManager(identity, transmitter, credentials, gate, metrics,
		BalanceMethod(gateCfg.DataCollectionMethod.Balance), assets, gateCfg.Gate.BalanceDelay())
	orders := NewOrdersManager(identity, transmitter, credentials, correlator, openSet, gate, metrics,
		OrdersMethod(gateCfg.DataCollectionMethod.Order), gateCfg.Gate.OrdersDelay())

	return &Engine{
		identity:    identity,
		transmitter: transmitter,
		credentials: credentials,
		publicPool:  publicPool,
		correlator:  correlator,
		openSet:     openSet,
		gate:        gate,
		metrics:     metrics,
		dispatcher:  dispatcher,
		orderBook:   orderBook,
		balance:     balance,
		orders:      orders,
	}
}

// Dispatcher exposes the command dispatcher so a caller driving the
// gateway directly (e.g. a test) can feed it inbound bus bytes without
// reaching into the transmitter's subscriber.
func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// Run launches the bus poll loop, the three subscription loops, and the
// metrics/health loop as concurrent siblings, and blocks until ctx is
// cancelled (spec §4.10: "launches as concurrent siblings ... Joins on
// all").
func (e *Engine) Run(ctx context.Context) {
	loops := []func(context.Context){
		func(ctx context.Context) {
			onMessage := func(raw []byte) { e.dispatcher.Dispatch(ctx, raw) }
			if err := e.transmitter.Run(ctx, onMessage); err != nil {
				golog.Infoln(golog.Bus, "bus poll loop stopped:", err)
			}
		},
		e.orderBook.Run,
		e.balance.Run,
		e.orders.Run,
		e.metrics.Run,
	}

	e.wg.Add(len(loops))
	for _, loop := range loops {
		go func(loop func(context.Context)) {
			defer e.wg.Done()
			loop(ctx)
		}(loop)
	}
	e.wg.Wait()
}

// Shutdown cancels every in-flight dispatcher handler, waits for them to
// finish (in-flight private-API calls are allowed to complete so they
// release their credential permit, per spec §5), then closes the
// exchange drivers and finally the bus transmitter. It is idempotent:
// calling it more than once is safe.
func (e *Engine) Shutdown(_ context.Context) error {
	var err error
	e.shutdownOnce.Do(func() {
		e.dispatcher.CancelAll()
		e.dispatcher.Wait()

		if closeErr := e.credentials.Close(); closeErr != nil {
			golog.Errorln(golog.ExchangeSys, "close credential pool:", closeErr)
			err = closeErr
		}
		if closeErr := e.publicPool.Close(); closeErr != nil {
			golog.Errorln(golog.ExchangeSys, "close public pool:", closeErr)
			if err == nil {
				err = closeErr
			}
		}
		if closeErr := e.transmitter.Close(); closeErr != nil {
			golog.Errorln(golog.Bus, "close transmitter:", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	})
	return err
}
