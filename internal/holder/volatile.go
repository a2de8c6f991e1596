package holder

import (
	"fmt"
	"sync"

	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Volatile is a writable leaf: the only holder kind (besides Property)
// that external callers mutate. SetValue bumps the serial only when the
// new value differs under the holder's equality function, so rewriting an
// identical value never stales downstream dependents.
//
// Thread-safety: value and serial move together under the mutex.
type Volatile[V any] struct {
	node
	ver *version.Volatile

	mu    sync.Mutex
	value V
	eq    Equal[V]

	// onWrite, when set, observes external writes with the serial they were
	// stamped with. PropertyArray uses it for fan-out/fan-in.
	onWrite func(v V, s serial.Serial)
}

// NewVolatile creates a writable leaf for a comparable value type.
func NewVolatile[V comparable](a *serial.Authority, value V) *Volatile[V] {
	return NewVolatileFunc(a, value, EqualOf[V]())
}

// NewVolatileFunc creates a writable leaf with an explicit equality
// function. A nil eq treats every write as a change.
func NewVolatileFunc[V any](a *serial.Authority, value V, eq Equal[V]) *Volatile[V] {
	return &Volatile[V]{
		node:  newNode(),
		ver:   version.NewVolatile(a),
		value: value,
		eq:    eq,
	}
}

func (h *Volatile[V]) Value() V {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *Volatile[V]) Serial() serial.Serial           { return h.ver.Serial() }
func (h *Volatile[V]) DataSerial() serial.Serial       { return h.ver.Serial() }
func (h *Volatile[V]) IsStale() bool                   { return false }
func (h *Volatile[V]) IsMutable() bool                 { return true }
func (h *Volatile[V]) Dependencies() []version.Version { return nil }
func (h *Volatile[V]) NextVersion()                    {}

// SetValue stores v and bumps the serial if v differs from the current
// value. Inside a grouped update the bump observes the frozen serial.
func (h *Volatile[V]) SetValue(v V) error {
	h.mu.Lock()
	if h.eq != nil && h.eq(h.value, v) {
		h.mu.Unlock()
		return nil
	}
	h.value = v
	s := h.ver.Bump()
	hook := h.onWrite
	h.mu.Unlock()

	h.ver.Authority().Emit(serial.Event{
		Kind:   serial.EventSet,
		Node:   h.Token(),
		Serial: s,
		Detail: fmt.Sprintf("%v", v),
	})
	if hook != nil {
		hook(v, s)
	}
	return nil
}

// setValueAt stores v stamped with an existing serial instead of
// allocating one. Propagated property writes use this so cross-direction
// propagation is not itself seen as a fresh change. Bypasses onWrite.
func (h *Volatile[V]) setValueAt(v V, s serial.Serial) {
	h.mu.Lock()
	h.value = v
	h.ver.Stamp(s)
	h.mu.Unlock()
}

// setOnWrite installs the write observer. Called once during wiring,
// before the holder is shared.
func (h *Volatile[V]) setOnWrite(hook func(v V, s serial.Serial)) {
	h.onWrite = hook
}

// Computed re-invokes a zero-argument producer on every pull. The holder
// itself is a volatile node: it has no declared dependencies to be stale
// against, and its serial advances only when the produced value changes.
type Computed[V any] struct {
	node
	ver *version.Volatile

	mu      sync.Mutex
	value   V
	eq      Equal[V]
	produce func() V
}

// NewComputed creates a computed holder for a comparable value type.
func NewComputed[V comparable](a *serial.Authority, produce func() V) *Computed[V] {
	return NewComputedFunc(a, produce, EqualOf[V]())
}

// NewComputedFunc creates a computed holder with an explicit equality
// function. The producer runs once at construction to establish the
// initial value.
func NewComputedFunc[V any](a *serial.Authority, produce func() V, eq Equal[V]) *Computed[V] {
	h := &Computed[V]{
		node:    newNode(),
		ver:     version.NewVolatile(a),
		eq:      eq,
		produce: produce,
	}
	h.value = produce()
	return h
}

// Value re-invokes the producer, then returns the (possibly refreshed)
// cached value.
func (h *Computed[V]) Value() V {
	h.NextVersion()

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *Computed[V]) Serial() serial.Serial           { return h.ver.Serial() }
func (h *Computed[V]) DataSerial() serial.Serial       { return h.ver.Serial() }
func (h *Computed[V]) IsStale() bool                   { return false }
func (h *Computed[V]) IsMutable() bool                 { return true }
func (h *Computed[V]) Dependencies() []version.Version { return nil }

// NextVersion runs the producer unconditionally and bumps the serial if
// the produced value differs from the cached one.
func (h *Computed[V]) NextVersion() {
	v := h.produce()

	h.mu.Lock()
	if h.eq != nil && h.eq(h.value, v) {
		h.mu.Unlock()
		return
	}
	h.value = v
	s := h.ver.Bump()
	h.mu.Unlock()

	h.ver.Authority().Emit(serial.Event{
		Kind:   serial.EventRecompute,
		Node:   h.Token(),
		Serial: s,
		Detail: fmt.Sprintf("%v", v),
	})
}

// SetValue always fails: a computed holder's value comes from its producer.
func (h *Computed[V]) SetValue(V) error {
	return NewReadOnlyError(h.Token())
}
