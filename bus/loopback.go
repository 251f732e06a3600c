package bus

import "sync"

// LoopbackTransport is an in-memory stand-in for the production UDP/IPC
// log primitive (spec §1's "messaging-bus primitive itself ... assumed
// available"). It gives every Destination its own buffered channel and
// one inbound channel for commands, so the gateway can be driven and
// tested end to end without a real bus.
//
// Publishing to a full channel without a reader surfaces as
// ErrNotConnected once the buffer is exhausted (no backlog is kept, per
// spec §5: "No ring-buffer is maintained in-process").
type LoopbackTransport struct {
	mu       sync.Mutex
	channels map[Destination]chan []byte
	inbound  chan []byte
	closed   bool
}

// NewLoopbackTransport creates a transport with the given per-stream
// buffer capacity.
func NewLoopbackTransport(capacity int) *LoopbackTransport {
	if capacity <= 0 {
		capacity = 64
	}
	return &LoopbackTransport{
		channels: map[Destination]chan []byte{
			OrderBook: make(chan []byte, capacity),
			Balance:   make(chan []byte, capacity),
			Core:      make(chan []byte, capacity),
			Logs:      make(chan []byte, capacity),
		},
		inbound: make(chan []byte, capacity),
	}
}

// Publisher returns a Publisher bound to dest.
func (l *LoopbackTransport) Publisher(dest Destination) Publisher {
	return &loopbackPublisher{transport: l, dest: dest}
}

// Subscriber returns the Subscriber for inbound commands.
func (l *LoopbackTransport) Subscriber() Subscriber {
	return &loopbackSubscriber{transport: l}
}

// SendCommand injects a raw message as if it arrived from the core, for
// use by tests and by a local CLI driving the gateway directly.
func (l *LoopbackTransport) SendCommand(msg []byte) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrNotConnected
	}
	select {
	case l.inbound <- msg:
		return nil
	default:
		return ErrNotConnected
	}
}

// Drain reads every buffered message currently queued for dest, without
// blocking. Intended for assertions in tests.
func (l *LoopbackTransport) Drain(dest Destination) [][]byte {
	ch := l.channels[dest]
	var out [][]byte
	for {
		select {
		case msg := <-ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// Close marks the transport closed; further publishes/sends report
// ErrNotConnected.
func (l *LoopbackTransport) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

type loopbackPublisher struct {
	transport *LoopbackTransport
	dest      Destination
}

func (p *loopbackPublisher) Offer(msg []byte) error {
	p.transport.mu.Lock()
	closed := p.transport.closed
	p.transport.mu.Unlock()
	if closed {
		return ErrNotConnected
	}
	select {
	case p.transport.channels[p.dest] <- msg:
		return nil
	default:
		return ErrNotConnected
	}
}

func (p *loopbackPublisher) Close() error { return nil }

type loopbackSubscriber struct {
	transport *LoopbackTransport
}

func (s *loopbackSubscriber) Poll(handler func(msg []byte)) int {
	select {
	case msg := <-s.transport.inbound:
		handler(msg)
		return 1
	default:
		return 0
	}
}

func (s *loopbackSubscriber) Close() error { return nil }

var _ Publisher = (*loopbackPublisher)(nil)
var _ Subscriber = (*loopbackSubscriber)(nil)
