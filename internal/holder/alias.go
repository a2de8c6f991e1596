package holder

import (
	"sync"

	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Alias forwards to a target holder chosen at runtime. Retargeting always
// counts as a change — the alias carries its own touch serial — even when
// the new target holds an identical value, so downstream dependents
// re-read through the new indirection.
//
// Nested aliases are unwrapped at assignment time: pointing an alias at
// another alias binds it to that alias's concrete target, so indirection
// never chains.
//
// RECURSION GUARD:
//
// Holders can, through misuse, form reference cycles (an alias reachable
// from its own target). Each guarded operation (Value, Serial, IsStale,
// NextVersion) carries a per-alias reentrancy flag: re-entering the same
// operation on the same alias short-circuits to the last cached value,
// the last cached serial, or false, instead of recursing. This trades
// perfect freshness for guaranteed termination on degenerate graphs; the
// flags are single-goroutine reentrancy markers, not locks.
type Alias[V any] struct {
	node
	auth  *serial.Authority
	touch *version.Volatile

	mu     sync.Mutex
	target Holder[V]

	guard aliasGuard

	lastValue  V
	lastSerial serial.Serial
}

// aliasGuard holds the per-operation reentrancy flags.
type aliasGuard struct {
	value bool
	stale bool
	srl   bool
	next  bool
}

// NewAlias creates an alias bound to target (unwrapped if target is itself
// an alias).
func NewAlias[V any](a *serial.Authority, target Holder[V]) *Alias[V] {
	h := &Alias[V]{
		node:       newNode(),
		auth:       a,
		touch:      version.NewVolatile(a),
		lastSerial: serial.Null,
	}
	h.target = unwrapAlias(target)
	return h
}

// unwrapAlias resolves nested aliases to their concrete target.
func unwrapAlias[V any](h Holder[V]) Holder[V] {
	for {
		al, ok := h.(*Alias[V])
		if !ok {
			return h
		}
		h = al.Target()
	}
}

// Target returns the holder the alias currently forwards to.
func (h *Alias[V]) Target() Holder[V] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

// Retarget points the alias at next, unwrapping nested aliases, and bumps
// the touch serial so the reassignment registers as a change.
func (h *Alias[V]) Retarget(next Holder[V]) {
	resolved := unwrapAlias(next)

	h.mu.Lock()
	h.target = resolved
	h.mu.Unlock()
	s := h.touch.Bump()

	h.auth.Emit(serial.Event{
		Kind:   serial.EventRetarget,
		Node:   h.Token(),
		Serial: s,
		Detail: resolved.Token(),
	})
}

// Value reads through the target, caching the result as the guard's
// fallback. Re-entry returns the cached value.
func (h *Alias[V]) Value() V {
	if h.guard.value {
		return h.lastValue
	}
	h.guard.value = true
	defer func() { h.guard.value = false }()

	v := h.Target().Value()
	h.lastValue = v
	h.lastSerial = h.serialOf(h.Target())
	return v
}

// Serial reports the greater of the touch serial and the target's serial,
// so both retargeting and target changes advance the alias. Re-entry
// returns the last cached serial.
func (h *Alias[V]) Serial() serial.Serial {
	if h.guard.srl {
		return h.lastSerial
	}
	h.guard.srl = true
	defer func() { h.guard.srl = false }()

	s := h.serialOf(h.Target())
	h.lastSerial = s
	return s
}

func (h *Alias[V]) serialOf(target Holder[V]) serial.Serial {
	s := target.Serial()
	if t := h.touch.Serial(); t > s {
		return t
	}
	return s
}

// DataSerial reports the serial of the last value read through the alias.
func (h *Alias[V]) DataSerial() serial.Serial {
	return h.lastSerial
}

// IsStale delegates to the target. Re-entry reports false: a cycle is
// resolved as "no fresher state reachable".
func (h *Alias[V]) IsStale() bool {
	if h.guard.stale {
		return false
	}
	h.guard.stale = true
	defer func() { h.guard.stale = false }()

	return h.Target().IsStale()
}

// IsMutable is always true: the alias can be retargeted at any time.
func (h *Alias[V]) IsMutable() bool { return true }

// Dependencies returns the current target as the single upstream node.
func (h *Alias[V]) Dependencies() []version.Version {
	return []version.Version{h.Target()}
}

// NextVersion refreshes the target. Re-entry is a no-op.
func (h *Alias[V]) NextVersion() {
	if h.guard.next {
		return
	}
	h.guard.next = true
	defer func() { h.guard.next = false }()

	h.Target().NextVersion()
}

// SetValue forwards the write to the target. Writes through an alias whose
// target is read-only fail with the target's READ_ONLY error.
func (h *Alias[V]) SetValue(v V) error {
	return h.Target().SetValue(v)
}
