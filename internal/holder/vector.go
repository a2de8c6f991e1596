package holder

import (
	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Vector is a Dependent whose computation receives the values of all its
// sources, in declaration order, instead of just a staleness notification.
type Vector[S, V any] struct {
	*Dependent[V]
}

// NewVector creates an aggregate over sources. compute receives one value
// per source, in order, with stale sources refreshed first.
func NewVector[S, V any](a *serial.Authority, sources []Holder[S], compute func(values []S) V) *Vector[S, V] {
	deps := make([]version.Version, len(sources))
	for i, src := range sources {
		deps[i] = src
	}
	h := &Vector[S, V]{}
	h.Dependent = NewDependent(a, deps, func() V {
		values := make([]S, len(sources))
		for i, src := range sources {
			values[i] = src.Value()
		}
		return compute(values)
	})
	return h
}

// Latest tracks many sources of one value type; its effective value is the
// value of whichever source carried the maximum serial at the last
// freshness check (the snapshot's latest dependency).
type Latest[V any] struct {
	*Dependent[V]
	sources []Holder[V]
}

// NewLatest creates a latest-of-many holder. Construction fails with a
// NO_DEPENDENCIES MutationError when sources is empty: with nothing to
// track there is no meaningful value.
func NewLatest[V any](a *serial.Authority, sources ...Holder[V]) (*Latest[V], error) {
	if len(sources) == 0 {
		return nil, NewNoDependenciesError()
	}

	deps := make([]version.Version, len(sources))
	for i, src := range sources {
		deps[i] = src
	}

	h := &Latest[V]{sources: sources}
	h.Dependent = NewDependent(a, deps, h.latestValue)
	return h, nil
}

// latestValue reads the source identified by the snapshot's latest
// dependency. The snapshot is computed by the recompute hook immediately
// before this runs, so Latest points at a live source.
func (h *Latest[V]) latestValue() V {
	snap := version.ComputeSnapshot(h.Dependent.dep.Authority(), h.Dependent.dep.Dependencies())
	for _, src := range h.sources {
		if version.Version(src) == snap.Latest {
			return src.Value()
		}
	}
	// Unreachable with a non-empty source list; fall back to the first.
	return h.sources[0].Value()
}
