package version

import "github.com/roach88/vellum/internal/serial"

// Snapshot records the result of one freshness check on a dependent node.
//
// Serial is the authority serial at the time of computation, DepsSerial the
// maximum serial observed across the dependencies, Latest the dependency
// that carried it. Once recorded, a snapshot is replaced only by one with a
// strictly greater Serial (monotonic freshening).
type Snapshot struct {
	Serial     serial.Serial
	DepsSerial serial.Serial
	Latest     Version
}

// EmptySnapshot is the state of a node that has never computed. It is never
// fresh.
var EmptySnapshot = Snapshot{Serial: serial.Null, DepsSerial: serial.Null}

// Stale evaluates the raw (non-sticky) staleness predicate for a node whose
// last check produced snap, against the authority serial current.
//
// A Null snapshot (never computed) and a ForcedStale snapshot are always
// stale. Otherwise the four-step protocol from the package doc applies.
func Stale(current serial.Serial, snap Snapshot, deps []Version) bool {
	if snap.Serial == serial.Null || snap.Serial == serial.ForcedStale {
		return true
	}
	if snap.Serial >= current {
		return false
	}
	if snap.Serial < snap.DepsSerial {
		return true
	}
	for _, d := range deps {
		if d.IsStale() || d.Serial() > snap.Serial {
			return true
		}
	}
	return false
}

// ComputeSnapshot scans deps, refreshing any that are stale, and returns a
// snapshot recording the maximum dependency serial and which dependency
// produced it. The snapshot's own serial is the authority's current serial
// (the frozen serial inside a grouped update).
func ComputeSnapshot(a *serial.Authority, deps []Version) Snapshot {
	depsSerial := serial.Null
	var latest Version
	for _, d := range deps {
		if d.IsStale() {
			d.NextVersion()
		}
		if s := d.Serial(); latest == nil || s > depsSerial {
			depsSerial = s
			latest = d
		}
	}
	return Snapshot{
		Serial:     a.Current(),
		DepsSerial: depsSerial,
		Latest:     latest,
	}
}

// AnyMutable reports whether any dependency can still change. A dependent
// node whose inputs are all immutable is itself effectively immutable.
func AnyMutable(deps []Version) bool {
	for _, d := range deps {
		if d.IsMutable() {
			return true
		}
	}
	return false
}
