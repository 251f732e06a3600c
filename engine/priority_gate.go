package engine

import "sync"

// PriorityGate is the binary latch named "no_priority_commands" in the
// source material and the glossary's "Priority gate": closed while a
// create-orders burst is in flight, open otherwise. The balance loop and
// orders polling loop await it before issuing their next private-API
// call; order-book polling never does (spec §4.6 "Priority vs polling").
//
// Go has no asyncio.Event, so this is the standard broadcast idiom: a
// channel that is closed to signal "open" and replaced with a fresh one
// to signal "closed", guarded by a mutex so concurrent Close/Open/Wait
// calls cannot race on the channel swap.
type PriorityGate struct {
	mu   sync.Mutex
	open chan struct{}
}

// NewPriorityGate returns a gate that starts open.
func NewPriorityGate() *PriorityGate {
	ch := make(chan struct{})
	close(ch)
	return &PriorityGate{open: ch}
}

// Close closes the gate for the duration of a command burst.
func (g *PriorityGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
		// already closed
	}
}

// Open reopens the gate once a burst completes or aborts.
func (g *PriorityGate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		// already open
	default:
		close(g.open)
	}
}

// Wait blocks until the gate is open.
func (g *PriorityGate) Wait() {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()
	<-ch
}

// WaitChan returns the current open-signal channel, for callers that need
// to select on it alongside other cases (e.g. ctx.Done()).
func (g *PriorityGate) WaitChan() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}
