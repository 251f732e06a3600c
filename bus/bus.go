// Package bus implements the gateway's side of the messaging-bus transport
// (spec §4.4, §6.2, C4): the publish/subscribe primitive itself is an
// external collaborator (a low-latency UDP/IPC log such as Aeron), assumed
// available; this package defines the Publisher/Subscriber seams that
// primitive must satisfy, the retry/backpressure policy layered on top of
// it, and an in-memory LoopbackTransport standing in for it in tests and
// the default build.
package bus

import (
	"github.com/pkg/errors"
)

// Destination is one of the four outbound logical streams (spec §4.4, §6.2).
type Destination string

// The four outbound streams.
const (
	OrderBook Destination = "ORDER_BOOK"
	Balance   Destination = "BALANCE"
	Core      Destination = "CORE"
	Logs      Destination = "LOGS"
)

// ErrNotConnected is returned by Publisher.Offer when there is no
// subscriber on the other end of the stream (spec: "NOT_CONNECTED (no
// subscriber) -> drop and log locally").
var ErrNotConnected = errors.New("bus: publication not connected")

// ErrAdminAction is returned by Publisher.Offer for transient
// backpressure (spec: "ADMIN_ACTION (transient back-pressure) -> retry
// indefinitely with an idle strategy").
var ErrAdminAction = errors.New("bus: admin action back-pressure")

// Publisher offers a single serialized message onto one stream. Any error
// other than ErrNotConnected/ErrAdminAction is treated as "other" (spec:
// "other errors -> log and drop").
type Publisher interface {
	Offer(msg []byte) error
	Close() error
}

// Subscriber polls for inbound fragments, invoking handler once per
// reassembled message, and reports how many fragments were read this call
// (0 means idle; the caller's idle strategy decides how long to sleep).
type Subscriber interface {
	Poll(handler func(msg []byte)) (fragmentsRead int)
	Close() error
}

// IdleStrategy decides how long to pause between polls based on the last
// poll's fragment count.
type IdleStrategy interface {
	Idle(fragmentsRead int)
}
