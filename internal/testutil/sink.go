// Package testutil provides deterministic helpers for tests: an in-memory
// event sink for asserting on serial activity without a database.
package testutil

import (
	"sync"

	"github.com/roach88/vellum/internal/serial"
)

// MemorySink records serial events in memory.
//
// Unlike trace.Recorder it needs no database, which keeps unit tests fast
// and lets assertions inspect events as plain slices.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MemorySink struct {
	mu     sync.Mutex
	events []serial.Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements serial.Sink.
func (s *MemorySink) Record(ev serial.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of all recorded events in order.
func (s *MemorySink) Events() []serial.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]serial.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Kinds returns just the event kinds, in order. Convenient for asserting
// on event sequences.
func (s *MemorySink) Kinds() []serial.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]serial.EventKind, len(s.events))
	for i, ev := range s.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// NodeEvents returns the recorded events for one node, in order.
func (s *MemorySink) NodeEvents(node string) []serial.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []serial.Event
	for _, ev := range s.events {
		if ev.Node == node {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards all recorded events. Used for test reuse.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
