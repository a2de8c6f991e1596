package holder

import (
	"fmt"
	"sync"

	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Property holds a local writable value and an optional external
// connection. The effective value is whichever of the two carries the
// greater serial: a local write after the external feed last changed wins,
// and vice versa. Ties go to the local value.
type Property[V any] struct {
	node
	auth  *serial.Authority
	local *Volatile[V]

	// touch advances on connect/disconnect so changing the wiring
	// registers as a change even before either side is written.
	touch *version.Volatile

	mu       sync.Mutex
	external Holder[V]
}

// NewProperty creates a connectible property for a comparable value type.
func NewProperty[V comparable](a *serial.Authority, value V) *Property[V] {
	return NewPropertyFunc(a, value, EqualOf[V]())
}

// NewPropertyFunc creates a connectible property with an explicit equality
// function.
func NewPropertyFunc[V any](a *serial.Authority, value V, eq Equal[V]) *Property[V] {
	h := &Property[V]{
		node:  newNode(),
		auth:  a,
		local: NewVolatileFunc(a, value, eq),
		touch: version.NewVolatile(a),
	}
	h.local.SetToken(h.token)
	return h
}

// Value returns the effective value: the external holder's if it carries a
// serial above the local write, the local value otherwise.
func (h *Property[V]) Value() V {
	if ext := h.External(); ext != nil {
		if ext.IsStale() {
			ext.NextVersion()
		}
		if ext.Serial() > h.local.Serial() {
			return ext.Value()
		}
	}
	return h.local.Value()
}

// Serial reports the maximum of the local, connection and external serials.
func (h *Property[V]) Serial() serial.Serial {
	s := h.local.Serial()
	if t := h.touch.Serial(); t > s {
		s = t
	}
	if ext := h.External(); ext != nil {
		if e := ext.Serial(); e > s {
			s = e
		}
	}
	return s
}

// DataSerial reports the serial of the side currently winning.
func (h *Property[V]) DataSerial() serial.Serial {
	if ext := h.External(); ext != nil {
		if e := ext.Serial(); e > h.local.Serial() {
			return e
		}
	}
	return h.local.Serial()
}

// IsStale reports drift in the external feed; the local side is a leaf and
// has nothing to be stale against.
func (h *Property[V]) IsStale() bool {
	if ext := h.External(); ext != nil {
		return ext.IsStale()
	}
	return false
}

// IsMutable is always true: a property accepts local writes.
func (h *Property[V]) IsMutable() bool { return true }

// Dependencies returns the external holder, when connected.
func (h *Property[V]) Dependencies() []version.Version {
	if ext := h.External(); ext != nil {
		return []version.Version{ext}
	}
	return nil
}

// NextVersion refreshes the external feed, if connected and stale.
func (h *Property[V]) NextVersion() {
	if ext := h.External(); ext != nil && ext.IsStale() {
		ext.NextVersion()
	}
}

// SetValue writes the local side, bumping its serial if the value changed.
func (h *Property[V]) SetValue(v V) error {
	return h.local.SetValue(v)
}

// SetToken names the property and its local side together, so write events
// from the local side carry the property's name.
func (h *Property[V]) SetToken(token string) {
	h.node.SetToken(token)
	h.local.SetToken(token)
}

// External returns the connected holder, nil when disconnected.
func (h *Property[V]) External() Holder[V] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.external
}

// Connect attaches an external feed. The feed is stored as given; call
// ConnectionFinalized afterwards to collapse a just-connected alias chain
// to its concrete target.
func (h *Property[V]) Connect(other Holder[V]) {
	h.mu.Lock()
	h.external = other
	h.mu.Unlock()
	s := h.touch.Bump()

	h.auth.Emit(serial.Event{
		Kind:   serial.EventConnect,
		Node:   h.Token(),
		Serial: s,
		Detail: other.Token(),
	})
}

// Disconnect detaches the external feed. The local value becomes effective
// again.
func (h *Property[V]) Disconnect() {
	h.mu.Lock()
	h.external = nil
	h.mu.Unlock()
	s := h.touch.Bump()

	h.auth.Emit(serial.Event{
		Kind:   serial.EventConnect,
		Node:   h.Token(),
		Serial: s,
	})
}

// ConnectionFinalized resolves an alias-of-alias connection to its concrete
// target, so reads through the property never chain indirections.
func (h *Property[V]) ConnectionFinalized() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if al, ok := h.external.(*Alias[V]); ok {
		h.external = unwrapAlias[V](al)
	}
}

// stampLocal writes the local side with an existing serial instead of
// allocating one, bypassing the write observer. Fan-out/fan-in uses this.
func (h *Property[V]) stampLocal(v V, s serial.Serial) {
	h.local.setValueAt(v, s)
}

// setOnWrite observes external writes to the local side.
func (h *Property[V]) setOnWrite(hook func(v V, s serial.Serial)) {
	h.local.setOnWrite(hook)
}

// PropertyArray keeps one scalar property and N element properties
// mutually consistent. Writing the scalar distributes values to the
// elements; writing any element re-aggregates the scalar. Propagated
// writes are stamped with the serial of the write that caused them — never
// a fresh serial — so cross-direction propagation is not itself seen as a
// new external change.
type PropertyArray[V any] struct {
	node
	auth     *serial.Authority
	scalar   *Property[V]
	elements []*Property[V]

	distribute func(V) []V
	aggregate  func([]V) V

	mu          sync.Mutex
	propagating bool
}

// NewPropertyArray creates an array of n element properties around one
// scalar, for comparable value types. The initial scalar value is
// distributed to the elements at construction.
func NewPropertyArray[V comparable](a *serial.Authority, n int, value V, distribute func(V) []V, aggregate func([]V) V) *PropertyArray[V] {
	return NewPropertyArrayFunc(a, n, value, distribute, aggregate, EqualOf[V]())
}

// NewPropertyArrayFunc is NewPropertyArray with an explicit equality
// function.
func NewPropertyArrayFunc[V any](a *serial.Authority, n int, value V, distribute func(V) []V, aggregate func([]V) V, eq Equal[V]) *PropertyArray[V] {
	h := &PropertyArray[V]{
		node:       newNode(),
		auth:       a,
		scalar:     NewPropertyFunc(a, value, eq),
		elements:   make([]*Property[V], n),
		distribute: distribute,
		aggregate:  aggregate,
	}
	h.scalar.SetToken(h.token)
	for i := range h.elements {
		h.elements[i] = NewPropertyFunc(a, value, eq)
	}

	// Seed the elements from the initial scalar value, stamped with the
	// scalar's construction serial.
	h.fanOut(value, h.scalar.local.Serial())

	h.scalar.setOnWrite(h.fanOut)
	for i := range h.elements {
		h.elements[i].setOnWrite(func(_ V, s serial.Serial) { h.fanIn(s) })
	}
	return h
}

// Scalar returns the aggregate property ("the" value).
func (h *PropertyArray[V]) Scalar() *Property[V] { return h.scalar }

// Element returns the i-th element property.
func (h *PropertyArray[V]) Element(i int) *Property[V] { return h.elements[i] }

// Len returns the number of element properties.
func (h *PropertyArray[V]) Len() int { return len(h.elements) }

// Values returns the effective values of all elements, in order.
func (h *PropertyArray[V]) Values() []V {
	values := make([]V, len(h.elements))
	for i, el := range h.elements {
		values[i] = el.Value()
	}
	return values
}

// The array itself reads and writes as its scalar.

func (h *PropertyArray[V]) Value() V                         { return h.scalar.Value() }
func (h *PropertyArray[V]) Serial() serial.Serial            { return h.scalar.Serial() }
func (h *PropertyArray[V]) DataSerial() serial.Serial        { return h.scalar.DataSerial() }
func (h *PropertyArray[V]) IsStale() bool                    { return h.scalar.IsStale() }
func (h *PropertyArray[V]) IsMutable() bool                  { return true }
func (h *PropertyArray[V]) Dependencies() []version.Version  { return h.scalar.Dependencies() }
func (h *PropertyArray[V]) NextVersion()                     { h.scalar.NextVersion() }
func (h *PropertyArray[V]) SetValue(v V) error               { return h.scalar.SetValue(v) }

// SetToken names the array, its scalar, and its elements (indexed).
func (h *PropertyArray[V]) SetToken(token string) {
	h.node.SetToken(token)
	h.scalar.SetToken(token)
	for i, el := range h.elements {
		el.SetToken(fmt.Sprintf("%s[%d]", token, i))
	}
}

// fanOut distributes a scalar write across the elements, stamped with the
// scalar write's serial.
func (h *PropertyArray[V]) fanOut(v V, s serial.Serial) {
	if !h.enterPropagation() {
		return
	}
	defer h.leavePropagation()

	values := h.distribute(v)
	for i := 0; i < len(h.elements) && i < len(values); i++ {
		h.elements[i].stampLocal(values[i], s)
	}
}

// fanIn re-aggregates the scalar from the element values, stamped with the
// element write's serial.
func (h *PropertyArray[V]) fanIn(s serial.Serial) {
	if !h.enterPropagation() {
		return
	}
	defer h.leavePropagation()

	h.scalar.stampLocal(h.aggregate(h.Values()), s)
}

// enterPropagation claims the propagation flag; a false return means a
// propagation is already running and this one must not re-trigger.
func (h *PropertyArray[V]) enterPropagation() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.propagating {
		return false
	}
	h.propagating = true
	return true
}

func (h *PropertyArray[V]) leavePropagation() {
	h.mu.Lock()
	h.propagating = false
	h.mu.Unlock()
}
