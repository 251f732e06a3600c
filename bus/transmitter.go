package bus

import (
	"context"
	"errors"

	golog "github.com/meridianfx/marketgate/log"
)

// Transmitter owns one inbound command subscriber and the four outbound
// publishers keyed by Destination (spec §4.4). It is the only thing in
// the gateway that talks to the bus primitive directly.
type Transmitter struct {
	publishers map[Destination]Publisher
	subscriber Subscriber
	idle       IdleStrategy
}

// NewTransmitter wires a subscriber and one publisher per destination. Any
// destination missing from publishers is a programmer error and panics —
// every stream must be configured at construction time, same as the
// teacher's engine managers validate their Setup inputs eagerly.
func NewTransmitter(subscriber Subscriber, publishers map[Destination]Publisher, idle IdleStrategy) *Transmitter {
	for _, d := range []Destination{OrderBook, Balance, Core, Logs} {
		if publishers[d] == nil {
			panic("bus: missing publisher for destination " + string(d))
		}
	}
	if idle == nil {
		idle = NewSleepingIdleStrategy(defaultIdleSleep)
	}
	return &Transmitter{publishers: publishers, subscriber: subscriber, idle: idle}
}

// Offer publishes a single already-serialized message to destination,
// applying the spec's retry policy:
//   - ErrAdminAction: retry indefinitely, idling between attempts, until
//     success or ctx is cancelled (this is the documented form of
//     backpressure from the core to the gateway).
//   - ErrNotConnected: drop and log locally.
//   - any other error: log and drop.
func (t *Transmitter) Offer(ctx context.Context, dest Destination, msg []byte) error {
	pub := t.publishers[dest]
	for {
		err := pub.Offer(msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrAdminAction):
			golog.Warnf(golog.Bus, "publish to %s backpressured, retrying", dest)
			t.idle.Idle(0)
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		case errors.Is(err, ErrNotConnected):
			golog.Warnf(golog.Bus, "publish to %s dropped: no subscriber", dest)
			return nil
		default:
			golog.Errorf(golog.Bus, "publish to %s failed: %s", dest, err)
			return nil
		}
	}
}

// Run polls the inbound subscriber until ctx is cancelled, invoking
// onMessage for every reassembled command message and idling according to
// the configured IdleStrategy when a poll reads nothing (spec §4.4's
// cooperative poll loop).
func (t *Transmitter) Run(ctx context.Context, onMessage func(msg []byte)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n := t.subscriber.Poll(onMessage)
		t.idle.Idle(n)
	}
}

// Close shuts the subscriber and every publisher down, tolerating nil
// already-closed resources by surfacing the first error only.
func (t *Transmitter) Close() error {
	var firstErr error
	if err := t.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, pub := range t.publishers {
		if err := pub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
