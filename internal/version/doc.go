// Package version implements the version-node layer of vellum.
//
// A Version is a node in the dependency graph: it reports a serial, whether
// it is stale relative to its dependencies, whether anything upstream can
// still change, and can refresh itself on demand. Three node kinds exist:
//
//   - Immutable: fixed serial at construction, never stale.
//   - Volatile: a leaf whose serial is bumped by its owner on every
//     semantic change; never stale (nothing upstream to drift from).
//   - Dependent: derives its serial from a cached Snapshot of its
//     dependencies and recomputes lazily when the snapshot no longer
//     reflects the current maximum upstream serial.
//
// STALENESS PROTOCOL:
//
// Freshness is evaluated lazily, on demand, in four steps:
//
//  1. Snapshot serial >= authority current serial: fresh. Nothing anywhere
//     in the graph has advanced since this node last checked.
//  2. Snapshot serial < recorded max dependency serial: stale. The cached
//     value predates dependency state that was already observed.
//  3. Any dependency stale, or carrying a serial above the snapshot
//     serial: stale.
//  4. Otherwise fresh.
//
// Staleness is sticky: once detected it is cached and reported until an
// actual recompute freshens the snapshot, so a large dependency set is not
// rescanned between detection and the caller's eventual refresh.
package version
