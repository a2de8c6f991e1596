// Package harness runs declarative conformance scenarios against holder
// graphs.
//
// A scenario names a graph definition, a sequence of steps (writes,
// grouped writes, reads, refreshes, alias retargets), and expectations on
// the final state: node values, serial equalities, staleness. Every run
// uses a fresh authority and records the full event trace through an
// in-memory sink, so the same scenario always produces the same trace.
//
// Golden files capture the trace byte-for-byte; regenerate them with
//
//	go test ./internal/harness -update
//
// Beyond the per-scenario expectations, every run is checked against the
// protocol itself (see VerifyTrace): writes inside a grouped update must
// carry the group's frozen serial, and serial allocation must be strictly
// increasing.
package harness
