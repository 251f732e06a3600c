package engine

import (
	"time"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
)

func newTestTransmitter(lb *bus.LoopbackTransport) *bus.Transmitter {
	publishers := map[bus.Destination]bus.Publisher{
		bus.OrderBook: lb.Publisher(bus.OrderBook),
		bus.Balance:   lb.Publisher(bus.Balance),
		bus.Core:      lb.Publisher(bus.Core),
		bus.Logs:      lb.Publisher(bus.Logs),
	}
	return bus.NewTransmitter(lb.Subscriber(), publishers, bus.NewSleepingIdleStrategy(time.Microsecond))
}

func testIdentity() event.Identity {
	return event.Identity{
		Exchange: "binance",
		Node:     event.NodeGate,
		Instance: "gate-01",
		Algo:     "maker-v1",
	}
}

// noopRecorder discards every metric, for tests that only care about the
// dispatch/loop logic under test.
type noopRecorder struct{}

func (noopRecorder) RecordOrderBookLatency(time.Duration) {}
func (noopRecorder) IncrementOrderBookPublish(int)        {}
func (noopRecorder) IncrementPrivateAPICall()             {}
func (noopRecorder) IncrementOrderBooksReceived(int)      {}
