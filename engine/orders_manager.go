package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
	"github.com/meridianfx/marketgate/exchanges/order"
	golog "github.com/meridianfx/marketgate/log"
)

// OrdersMethod selects whether the orders loop streams unsolicited
// updates or polls the open set (spec §4.7 "orders loop", two modes).
type OrdersMethod string

// The two collection methods the orders loop supports.
const (
	OrdersWatch OrdersMethod = "websocket"
	OrdersPoll  OrdersMethod = "http"
)

// OrdersManager runs the orders subscription loop (spec §4.7). In
// streaming mode it annotates unsolicited updates with the client order
// id via the correlator, dropping ones it does not recognize (§9 Open
// Question 1: "drop + log"). In polling mode it walks a snapshot of the
// open set, fetching each order and retiring it from the set once
// terminal.
type OrdersManager struct {
	identity    event.Identity
	transmitter *bus.Transmitter
	credentials *CredentialPool
	correlator  *Correlator
	openSet     *OpenSet
	gate        *PriorityGate
	metrics     Recorder

	method OrdersMethod
	delay  time.Duration
}

// NewOrdersManager builds an OrdersManager.
func NewOrdersManager(identity event.Identity, transmitter *bus.Transmitter, credentials *CredentialPool, correlator *Correlator, openSet *OpenSet, gate *PriorityGate, metrics Recorder, method OrdersMethod, delay time.Duration) *OrdersManager {
	return &OrdersManager{
		identity:    identity,
		transmitter: transmitter,
		credentials: credentials,
		correlator:  correlator,
		openSet:     openSet,
		gate:        gate,
		metrics:     metrics,
		method:      method,
		delay:       delay,
	}
}

// Run drives the configured collection method until ctx is cancelled.
func (m *OrdersManager) Run(ctx context.Context) {
	if m.method == OrdersWatch {
		m.watchLoop(ctx)
		return
	}
	m.pollLoop(ctx)
}

// watchLoop calls watch_orders in a tight loop (spec §4.7 "Streaming").
// Each watch is a private-API call gated by the priority latch and the
// credential pool, same as the balance loop.
func (m *OrdersManager) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.gate.WaitChan():
		}

		driver, release, err := m.credentials.Acquire(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.emitError(ctx, err)
			}
			return
		}
		updates, err := driver.WatchOrders(ctx)
		release()
		m.metrics.IncrementPrivateAPICall()
		if err != nil {
			m.emitError(ctx, err)
			continue
		}

		for _, detail := range updates {
			m.handleStreamedOrder(ctx, detail)
		}
	}
}

// handleStreamedOrder looks up the client order id for an unsolicited
// update by exchange order id. An id the correlator has never recorded is
// not ours (or belongs to a different instance sharing the venue account)
// and is dropped, per the resolved Open Question 1.
func (m *OrdersManager) handleStreamedOrder(ctx context.Context, detail order.Detail) {
	clientOrderID, known, err := m.correlator.ClientOrderIDFor(ctx, detail.ID)
	if err != nil {
		golog.Errorln(golog.OrderMgr, "lookup client_order_id:", err)
		return
	}
	if !known {
		golog.Debugln(golog.OrderMgr, "dropping orders_update for unknown order id", detail.ID)
		return
	}

	detail.ClientOrderID = clientOrderID
	m.openSet.ObserveStatus(order.Key{ClientOrderID: clientOrderID, Symbol: detail.Symbol}, detail.Status)

	eventID, hasEventID, err := m.correlator.EventIDFor(ctx, clientOrderID)
	if err != nil {
		golog.Errorln(golog.OrderMgr, "lookup event_id:", err)
	}

	var env event.Envelope
	if hasEventID {
		env = m.identity.WithEventID(eventID, event.TypeData, event.ActionOrdersUpdate, "", []order.Detail{detail})
	} else {
		env = m.identity.New(event.TypeData, event.ActionOrdersUpdate, "", []order.Detail{detail})
	}
	emit(ctx, m.transmitter, bus.Core, env)
}

// pollLoop iterates a snapshot of the open set every delay, fetching each
// order and retiring it on a terminal status or an unretryable fetch
// error (spec §4.7 "Polling").
func (m *OrdersManager) pollLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.gate.WaitChan():
		}

		for _, key := range m.openSet.Snapshot() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			m.pollOne(ctx, key)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.delay):
		}
	}
}

func (m *OrdersManager) pollOne(ctx context.Context, key order.Key) {
	orderID, known, err := m.correlator.OrderIDFor(ctx, key.ClientOrderID)
	if err != nil {
		m.emitError(ctx, err)
		return
	}
	if !known {
		// The open set is only ever populated alongside a correlator
		// mapping (RecordCreate, spec §4.6), so a miss here means the
		// mapping was lost (e.g. external cache eviction) — treat it the
		// same as an unretryable fetch failure (spec §4.7: "On fetch
		// error, remove from open set and emit ERROR").
		m.openSet.Remove(key)
		err := fmt.Errorf("orders poll: no order id for client_order_id %q", key.ClientOrderID)
		m.emitError(ctx, err)
		return
	}

	driver, release, err := m.credentials.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.emitError(ctx, err)
		}
		return
	}
	detail, err := driver.FetchOrder(ctx, order.FetchParams{ID: orderID, ClientOrderID: key.ClientOrderID, Symbol: key.Symbol})
	release()
	m.metrics.IncrementPrivateAPICall()
	if err != nil {
		// spec §4.7: "On fetch error, remove from open set and emit ERROR."
		m.openSet.Remove(key)
		m.emitError(ctx, err)
		return
	}

	detail.ClientOrderID = key.ClientOrderID
	m.openSet.ObserveStatus(key, detail.Status)

	eventID, hasEventID, err := m.correlator.EventIDFor(ctx, key.ClientOrderID)
	if err != nil {
		golog.Errorln(golog.OrderMgr, "lookup event_id:", err)
	}

	var env event.Envelope
	if hasEventID {
		env = m.identity.WithEventID(eventID, event.TypeData, event.ActionOrdersUpdate, "", []order.Detail{detail})
	} else {
		env = m.identity.New(event.TypeData, event.ActionOrdersUpdate, "", []order.Detail{detail})
	}
	emit(ctx, m.transmitter, bus.Core, env)
}

func (m *OrdersManager) emitError(ctx context.Context, err error) {
	golog.Errorln(golog.OrderMgr, err)
	env := m.identity.New(event.TypeError, event.ActionOrdersUpdate, err.Error(), nil)
	emit(ctx, m.transmitter, bus.Core, env)
}
