package holder

import (
	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Immutable pairs a fixed value with a fixed serial. Never stale, never
// writable.
type Immutable[V any] struct {
	node
	ver   *version.Immutable
	value V
}

// NewImmutable creates an immutable holder stamped with a fresh serial.
func NewImmutable[V any](a *serial.Authority, value V) *Immutable[V] {
	return &Immutable[V]{
		node:  newNode(),
		ver:   version.NewImmutable(a),
		value: value,
	}
}

func (h *Immutable[V]) Value() V                          { return h.value }
func (h *Immutable[V]) Serial() serial.Serial             { return h.ver.Serial() }
func (h *Immutable[V]) DataSerial() serial.Serial         { return h.ver.Serial() }
func (h *Immutable[V]) IsStale() bool                     { return false }
func (h *Immutable[V]) IsMutable() bool                   { return false }
func (h *Immutable[V]) Dependencies() []version.Version   { return nil }
func (h *Immutable[V]) NextVersion()                      {}

// SetValue always fails: immutable holders do not accept writes.
func (h *Immutable[V]) SetValue(V) error {
	return NewReadOnlyError(h.Token())
}

// Frozen copies a source's value and serial at construction and fully
// decouples from it: unlike Cache, it does not even report drift.
type Frozen[V any] struct {
	node
	ver   *version.Immutable
	value V
}

// NewFrozen snapshots source. The source is refreshed first so the frozen
// value reflects its current dependencies, and the frozen holder inherits
// the serial of that state rather than allocating its own.
func NewFrozen[V any](source Holder[V]) *Frozen[V] {
	value := source.Value()
	return &Frozen[V]{
		node:  newNode(),
		ver:   version.NewImmutableAt(source.Serial()),
		value: value,
	}
}

func (h *Frozen[V]) Value() V                        { return h.value }
func (h *Frozen[V]) Serial() serial.Serial           { return h.ver.Serial() }
func (h *Frozen[V]) DataSerial() serial.Serial       { return h.ver.Serial() }
func (h *Frozen[V]) IsStale() bool                   { return false }
func (h *Frozen[V]) IsMutable() bool                 { return false }
func (h *Frozen[V]) Dependencies() []version.Version { return nil }
func (h *Frozen[V]) NextVersion()                    {}

// SetValue always fails: frozen holders do not accept writes.
func (h *Frozen[V]) SetValue(V) error {
	return NewReadOnlyError(h.Token())
}
