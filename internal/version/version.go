package version

import (
	"sync/atomic"

	"github.com/roach88/vellum/internal/serial"
)

// Version is a node in the dependency graph.
//
// Serial and IsStale never trigger recomputation; NextVersion refreshes the
// node if (and only if) it is actually stale. Dependencies enumerates the
// upstream nodes in declaration order.
type Version interface {
	// Serial reports the node's current version serial without refreshing.
	Serial() serial.Serial

	// IsStale reports whether the node's cached state no longer reflects
	// its dependencies. Sticky: stays true until NextVersion recomputes.
	IsStale() bool

	// IsMutable reports whether the node, or anything upstream of it, can
	// still change.
	IsMutable() bool

	// Dependencies returns the upstream nodes, in order. Leaves return nil.
	Dependencies() []Version

	// NextVersion refreshes the node if it is stale, recursing into stale
	// dependencies first. No-op on fresh nodes.
	NextVersion()
}

// Immutable is a node fixed at construction: one serial, forever fresh.
type Immutable struct {
	s serial.Serial
}

// NewImmutable allocates a serial from a and freezes it.
func NewImmutable(a *serial.Authority) *Immutable {
	return &Immutable{s: a.Next()}
}

// NewImmutableAt freezes an existing serial. Used when a node inherits the
// serial of the state it was frozen from rather than allocating its own.
func NewImmutableAt(s serial.Serial) *Immutable {
	return &Immutable{s: s}
}

func (v *Immutable) Serial() serial.Serial   { return v.s }
func (v *Immutable) IsStale() bool           { return false }
func (v *Immutable) IsMutable() bool         { return false }
func (v *Immutable) Dependencies() []Version { return nil }
func (v *Immutable) NextVersion()            {}

// Volatile is a mutable leaf. The owner bumps the serial on every semantic
// change; with no dependencies it is never stale.
//
// Thread-safety: the serial is atomic; Bump and Stamp may race with readers
// without readers ever observing a torn value.
type Volatile struct {
	auth *serial.Authority
	s    atomic.Int32
}

// NewVolatile creates a leaf stamped with a freshly allocated serial.
func NewVolatile(a *serial.Authority) *Volatile {
	v := &Volatile{auth: a}
	v.s.Store(int32(a.Next()))
	return v
}

func (v *Volatile) Serial() serial.Serial   { return serial.Serial(v.s.Load()) }
func (v *Volatile) IsStale() bool           { return false }
func (v *Volatile) IsMutable() bool         { return true }
func (v *Volatile) Dependencies() []Version { return nil }
func (v *Volatile) NextVersion()            {}

// Bump allocates a fresh serial (the frozen one inside a grouped update)
// and returns it. Called by the owner after a semantic change.
func (v *Volatile) Bump() serial.Serial {
	s := v.auth.Next()
	v.s.Store(int32(s))
	return s
}

// Stamp forces the serial to s without allocating. Used for propagated
// writes that must carry the serial of the change that caused them, so
// cross-direction propagation is not itself seen as a fresh change.
func (v *Volatile) Stamp(s serial.Serial) {
	v.s.Store(int32(s))
}

// Authority returns the authority this leaf allocates from.
func (v *Volatile) Authority() *serial.Authority { return v.auth }
