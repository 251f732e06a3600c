package engine

import (
	"sync"

	"github.com/meridianfx/marketgate/exchanges/order"
)

// OpenSet tracks the client orders the gateway believes are still live on
// the exchange (spec §4.8, glossary "Open set"). Insertion happens inside
// the create path; removal happens on an observed terminal status or an
// unretryable fetch failure. Go's scheduler is preemptive and multi-core,
// so — unlike the single-threaded original — every access is guarded by a
// mutex (spec §5: "implementations on a threaded runtime MUST serialize
// access").
type OpenSet struct {
	mu      sync.Mutex
	entries map[order.Key]struct{}
}

// NewOpenSet returns an empty OpenSet.
func NewOpenSet() *OpenSet {
	return &OpenSet{entries: make(map[order.Key]struct{})}
}

// Add inserts key, a no-op if already present (set semantics, spec §4.8).
func (s *OpenSet) Add(key order.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = struct{}{}
}

// Remove deletes key if present.
func (s *OpenSet) Remove(key order.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Contains reports whether key is currently tracked as open.
func (s *OpenSet) Contains(key order.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Len returns the number of live client order ids, i.e. the count
// invariant P7 checks against.
func (s *OpenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot returns a copy of every currently tracked key, safe for a
// polling loop to iterate without holding the set's lock (spec §4.7's
// "iterate a copy of the open set").
func (s *OpenSet) Snapshot() []order.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]order.Key, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}

// ObserveStatus removes key from the set once status is terminal
// (order.IsTerminal), per the state machine in spec §4.10: terminal
// states are sticky and never resurrect the open set.
func (s *OpenSet) ObserveStatus(key order.Key, status order.Status) {
	if order.IsTerminal(status) {
		s.Remove(key)
	}
}
