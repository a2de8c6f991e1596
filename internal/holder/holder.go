package holder

import (
	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

// Holder is the contract every versioned data holder satisfies: a version
// node plus value access.
//
// Value triggers lazy recomputation on derived holders; Serial, IsStale and
// DataSerial never do. SetValue succeeds only on writable holders and
// returns a MutationError with code READ_ONLY everywhere else.
type Holder[V any] interface {
	version.Version

	// Value returns the holder's current value, recomputing first if the
	// holder is derived and stale.
	Value() V

	// DataSerial reports the serial at which the cached value was produced.
	DataSerial() serial.Serial

	// SetValue updates the value on writable holders. The serial bumps only
	// if the new value differs under the holder's equality function.
	SetValue(v V) error

	// Token identifies the holder in traces. A UUIDv7 by default; graph
	// builders replace it with the node's declared name.
	Token() string
}

// Equal is a value equality function. Holders use it to decide whether a
// write or a recomputation is a semantic change worth a new serial.
type Equal[V any] func(a, b V) bool

// EqualOf returns the natural equality for comparable value types.
func EqualOf[V comparable]() Equal[V] {
	return func(a, b V) bool { return a == b }
}

// node carries the trace identity shared by all holder kinds.
type node struct {
	token string
}

func newNode() node {
	return node{token: tokens.Generate()}
}

// Token returns the holder's trace identity.
func (n *node) Token() string { return n.token }

// SetToken replaces the generated token, typically with a graph node name.
func (n *node) SetToken(token string) { n.token = token }
