package version

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/vellum/internal/serial"
)

// Dependent is a derived node: its serial comes from a cached Snapshot of
// its dependencies, and it recomputes lazily when the snapshot no longer
// reflects the current maximum upstream serial.
//
// The owner supplies an update hook, invoked by NextVersion when the raw
// staleness predicate holds. The hook must recompute the owner's value and
// call Freshen with the new snapshot; Freshen clears the sticky flag.
//
// Thread-safety: the snapshot is guarded by a mutex and only ever replaced
// by a strictly fresher one, so concurrent readers and refreshers never
// observe a serial regression.
type Dependent struct {
	auth *serial.Authority
	deps []Version

	mu   sync.Mutex
	snap Snapshot

	stale atomic.Bool // sticky staleness flag

	mutableOnce sync.Once
	mutable     bool

	update func()
}

// NewDependent creates a derived node over deps. Install the recompute
// hook with SetUpdate before first use.
func NewDependent(a *serial.Authority, deps []Version) *Dependent {
	return &Dependent{
		auth: a,
		deps: deps,
		snap: EmptySnapshot,
	}
}

// SetUpdate installs the recompute hook. Owners embed or wrap Dependent and
// need to close over their own state, which does not exist yet inside
// NewDependent; they install the hook immediately after construction.
func (d *Dependent) SetUpdate(update func()) {
	d.update = update
}

// Snapshot returns a copy of the cached snapshot.
func (d *Dependent) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// Serial reports the maximum dependency serial this node has incorporated:
// the serial of the change its cached state reflects.
func (d *Dependent) Serial() serial.Serial {
	return d.Snapshot().DepsSerial
}

// IsStale evaluates the staleness protocol. Sticky: the first true answer
// is cached and returned until Freshen succeeds, so repeated checks do not
// rescan the dependency set.
func (d *Dependent) IsStale() bool {
	if d.stale.Load() {
		return true
	}
	if Stale(d.auth.Current(), d.Snapshot(), d.deps) {
		d.stale.Store(true)
		return true
	}
	return false
}

// IsMutable reports whether anything upstream can still change. The answer
// is computed once: dependencies are fixed at construction and immutability
// is permanent.
func (d *Dependent) IsMutable() bool {
	d.mutableOnce.Do(func() {
		d.mutable = AnyMutable(d.deps)
	})
	return d.mutable
}

// Dependencies returns the upstream nodes in declaration order.
func (d *Dependent) Dependencies() []Version {
	return d.deps
}

// NextVersion re-evaluates the raw predicate and, if the node really is
// stale, invokes the update hook. The re-check defends against racing
// callers that already resolved the staleness.
func (d *Dependent) NextVersion() {
	if !Stale(d.auth.Current(), d.Snapshot(), d.deps) {
		d.stale.Store(false)
		return
	}
	if d.update != nil {
		d.update()
	}
}

// Freshen replaces the cached snapshot with next if next is strictly
// fresher, clearing the sticky flag on success. Returns whether the
// replacement occurred; callers use the answer to decide whether a change
// actually happened.
func (d *Dependent) Freshen(next Snapshot) bool {
	d.mu.Lock()
	replaced := next.Serial > d.snap.Serial || d.snap.Serial == serial.Null ||
		d.snap.Serial == serial.ForcedStale
	if replaced {
		d.snap = next
	}
	d.mu.Unlock()

	if replaced {
		d.stale.Store(false)
	}
	return replaced
}

// ForceStale marks the node stale regardless of the protocol. The next
// NextVersion recomputes unconditionally.
func (d *Dependent) ForceStale() {
	d.mu.Lock()
	d.snap.Serial = serial.ForcedStale
	d.mu.Unlock()
	d.stale.Store(true)
}

// Authority returns the authority this node checks freshness against.
func (d *Dependent) Authority() *serial.Authority { return d.auth }
