// Package holder implements vellum's versioned data holders: the pairing
// of a version node with a value.
//
// A holder is what consumers actually read. Leaves (Volatile, Property)
// are written by external callers; every derived holder recomputes lazily
// on read, asking the staleness protocol whether anything upstream has
// advanced and caching a (serial, value) data snapshot when it refreshes.
//
// HOLDER FAMILY:
//
//   - Immutable: fixed value and serial forever.
//   - Frozen: copies a source's value and serial at construction and fully
//     decouples from it — never stale again.
//   - Volatile: a writable leaf; the serial bumps only when SetValue sees
//     a value that differs under the holder's equality function.
//   - Cache: freezes the source's value at construction but still reports
//     drift: it goes stale when the source moves and stays that way.
//   - Computed: re-invokes a producer function on every pull; the serial
//     bumps only when the produced value changes.
//   - Dependent: recomputes from its dependencies when stale, inside a
//     grouped update so cascades share one serial.
//   - Vector: a Dependent whose computation receives the values of all its
//     sources.
//   - Latest: effective value is the value of whichever source carried the
//     maximum serial at the last freshness check.
//   - Alias: forwards to a runtime-selected target, with a reentrancy
//     guard for degenerate (cyclic) graphs.
//   - Property, PropertyArray: bidirectional external connection and
//     fan-out/fan-in (see property.go).
//
// All recomputation is synchronous, on the calling goroutine. There is no
// scheduler and nothing here blocks on I/O.
package holder
