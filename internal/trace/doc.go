// Package trace records serial activity into SQLite for inspection.
//
// A Recorder implements serial.Sink: plugged into an authority, it logs
// every serial allocation, grouped-update boundary, leaf write, dependent
// recomputation, alias retarget and property connect as one row. The CLI
// uses a file-backed recorder so a run's change history can be inspected
// afterwards; the harness uses an in-memory one for golden comparison.
//
// The recorder is diagnostics only. Vellum's core is not a persistence
// layer and never stores graph state; dropping the trace database loses
// nothing but history.
package trace
