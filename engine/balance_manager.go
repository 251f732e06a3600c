package engine

import (
	"context"
	"time"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
	"github.com/meridianfx/marketgate/exchanges/account"
	golog "github.com/meridianfx/marketgate/log"
)

// BalanceMethod selects whether the balance loop streams or polls (spec
// §4.7 "balance loop", §6.3 DataCollectionMethod.Balance).
type BalanceMethod string

// The two collection methods the balance loop supports.
const (
	BalanceWatch BalanceMethod = "websocket"
	BalanceFetch BalanceMethod = "http"
)

// BalanceManager runs the balance subscription loop (spec §4.7). It waits
// on the priority gate before every private-API call, unlike the
// order-book loop which is explicitly exempt.
type BalanceManager struct {
	identity    event.Identity
	transmitter *bus.Transmitter
	credentials *CredentialPool
	gate        *PriorityGate
	metrics     Recorder

	method BalanceMethod
	assets []string
	delay  time.Duration
}

// NewBalanceManager builds a BalanceManager. assets is the configured
// default asset universe used for BalanceFetch (spec §6.3
// data.assets_labels); it is ignored in BalanceWatch mode since
// watch_balance takes no asset filter.
func NewBalanceManager(identity event.Identity, transmitter *bus.Transmitter, credentials *CredentialPool, gate *PriorityGate, metrics Recorder, method BalanceMethod, assets []string, delay time.Duration) *BalanceManager {
	return &BalanceManager{
		identity:    identity,
		transmitter: transmitter,
		credentials: credentials,
		gate:        gate,
		metrics:     metrics,
		method:      method,
		assets:      assets,
		delay:       delay,
	}
}

// Run drives the balance loop until ctx is cancelled.
func (m *BalanceManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// "Waits on the priority gate" (spec §4.7): block until no
		// create-orders burst is in flight, but still notice cancellation.
		select {
		case <-ctx.Done():
			return
		case <-m.gate.WaitChan():
		}

		m.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.delay):
		}
	}
}

func (m *BalanceManager) tick(ctx context.Context) {
	driver, release, err := m.credentials.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.emitError(ctx, err)
		}
		return
	}

	if m.method == BalanceWatch {
		b, err := driver.WatchBalance(ctx)
		release()
		m.metrics.IncrementPrivateAPICall()
		if err != nil {
			m.emitError(ctx, err)
			return
		}
		m.emitBalance(ctx, b)
		return
	}

	b, err := driver.FetchPartialBalance(ctx, m.assets)
	release()
	m.metrics.IncrementPrivateAPICall()
	if err != nil {
		m.emitError(ctx, err)
		return
	}
	m.emitBalance(ctx, b)
}

func (m *BalanceManager) emitBalance(ctx context.Context, b account.Balance) {
	env := m.identity.New(event.TypeData, event.ActionBalanceUpdate, "", b)
	emit(ctx, m.transmitter, bus.Balance, env)
}

func (m *BalanceManager) emitError(ctx context.Context, err error) {
	golog.Errorln(golog.BalanceMgr, err)
	env := m.identity.New(event.TypeError, event.ActionBalanceUpdate, err.Error(), nil)
	emit(ctx, m.transmitter, bus.Core, env)
}
