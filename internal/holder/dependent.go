package holder

import (
	"fmt"
	"sync"

	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Dependent derives its value from upstream nodes. Reads are pull-based:
// Value checks the staleness protocol and recomputes first if anything
// upstream has advanced. Recomputation runs inside a grouped update so a
// cascade of dependent refreshes triggered by one change is stamped with
// one serial.
type Dependent[V any] struct {
	node
	dep *version.Dependent

	mu         sync.Mutex
	value      V
	dataSerial serial.Serial

	compute func() V
}

// NewDependent creates a derived holder over deps. The compute closure
// reads whatever sources it needs; deps declares the upstream nodes the
// staleness protocol watches.
func NewDependent[V any](a *serial.Authority, deps []version.Version, compute func() V) *Dependent[V] {
	h := &Dependent[V]{
		node:       newNode(),
		dep:        version.NewDependent(a, deps),
		dataSerial: serial.Null,
		compute:    compute,
	}
	h.dep.SetUpdate(h.recompute)
	return h
}

// Value returns the derived value, recomputing first if stale.
func (h *Dependent[V]) Value() V {
	if h.dep.IsStale() {
		h.dep.NextVersion()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *Dependent[V]) Serial() serial.Serial           { return h.dep.Serial() }
func (h *Dependent[V]) IsStale() bool                   { return h.dep.IsStale() }
func (h *Dependent[V]) IsMutable() bool                 { return h.dep.IsMutable() }
func (h *Dependent[V]) Dependencies() []version.Version { return h.dep.Dependencies() }
func (h *Dependent[V]) NextVersion()                    { h.dep.NextVersion() }

// DataSerial reports the serial at which the cached value was produced,
// without recomputing.
func (h *Dependent[V]) DataSerial() serial.Serial {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dataSerial
}

// SetValue always fails: derived holders are read-only to external callers.
func (h *Dependent[V]) SetValue(V) error {
	return NewReadOnlyError(h.Token())
}

// ForceStale marks the holder stale; the next read recomputes.
func (h *Dependent[V]) ForceStale() {
	h.dep.ForceStale()
}

// recompute is the update hook: refresh dependencies, recompute the value,
// and freshen the snapshot, all inside one grouped update.
func (h *Dependent[V]) recompute() {
	auth := h.dep.Authority()
	auth.Grouped(func() {
		snap := version.ComputeSnapshot(auth, h.dep.Dependencies())
		v := h.compute()
		if !h.dep.Freshen(snap) {
			return
		}

		h.mu.Lock()
		h.value = v
		h.dataSerial = snap.DepsSerial
		h.mu.Unlock()

		auth.Emit(serial.Event{
			Kind:   serial.EventRecompute,
			Node:   h.Token(),
			Serial: snap.DepsSerial,
			Detail: fmt.Sprintf("%v", v),
		})
	})
}

// Cache freezes a source's value at construction but keeps watching it:
// once the source moves, the cache reports stale and stays stale. It never
// recomputes — the drift itself is the information.
type Cache[V any] struct {
	node
	dep   *version.Dependent
	value V
}

// NewCache snapshots source. The source is refreshed first so the cached
// value reflects its current dependencies.
func NewCache[V any](a *serial.Authority, source Holder[V]) *Cache[V] {
	value := source.Value()
	h := &Cache[V]{
		node:  newNode(),
		dep:   version.NewDependent(a, []version.Version{source}),
		value: value,
	}
	// No update hook: the initial snapshot is the only one this holder
	// will ever carry.
	h.dep.Freshen(version.ComputeSnapshot(a, h.dep.Dependencies()))
	return h
}

func (h *Cache[V]) Value() V                        { return h.value }
func (h *Cache[V]) Serial() serial.Serial           { return h.dep.Serial() }
func (h *Cache[V]) DataSerial() serial.Serial       { return h.dep.Serial() }
func (h *Cache[V]) IsStale() bool                   { return h.dep.IsStale() }
func (h *Cache[V]) IsMutable() bool                 { return false }
func (h *Cache[V]) Dependencies() []version.Version { return h.dep.Dependencies() }

// NextVersion is a no-op: a cache never recomputes, so staleness, once
// reported, is permanent.
func (h *Cache[V]) NextVersion() {}

// SetValue always fails: caches do not accept writes.
func (h *Cache[V]) SetValue(V) error {
	return NewReadOnlyError(h.Token())
}
