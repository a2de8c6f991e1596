// Package graphdef loads holder-graph definitions from YAML.
//
// A definition declares named nodes (writable leaves, derived aggregates,
// latest-of-many trackers, aliases, caches, properties) and which of them
// are outputs. Documents are validated twice: structurally against an
// embedded CUE schema, then semantically in Go (references resolve, kinds
// carry the fields they need). Node names are NFC-normalized at the parse
// boundary so lookups behave identically regardless of how a name was
// typed.
//
// Definitions exist for the CLI and the scenario harness; library
// consumers construct holders directly.
//
// Values are int64 only. Floats are rejected: graph evaluation must be
// deterministic, and float aggregation is not.
package graphdef
