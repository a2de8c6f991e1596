package harness

import "github.com/roach88/vellum/internal/serial"

// TraceEvent is one recorded event, flattened for JSON golden comparison.
type TraceEvent struct {
	Kind   string `json:"kind"`
	Node   string `json:"node,omitempty"`
	Serial int32  `json:"serial"`
	Detail string `json:"detail,omitempty"`
}

// Output is one evaluated graph output in the final state.
type Output struct {
	Name   string `json:"name"`
	Value  int64  `json:"value"`
	Serial int32  `json:"serial"`
}

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every expectation and protocol check held.
	Pass bool `json:"pass"`

	// Outputs are the graph's declared outputs after all steps.
	Outputs []Output `json:"outputs"`

	// Trace is the full event sequence the run produced.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation and protocol violations. Empty when Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a violation and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// convertEvents flattens sink events for the result.
func convertEvents(events []serial.Event) []TraceEvent {
	out := make([]TraceEvent, len(events))
	for i, ev := range events {
		out[i] = TraceEvent{
			Kind:   string(ev.Kind),
			Node:   ev.Node,
			Serial: int32(ev.Serial),
			Detail: ev.Detail,
		}
	}
	return out
}
