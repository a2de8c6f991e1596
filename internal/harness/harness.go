package harness

import (
	"fmt"
	"os"

	"github.com/roach88/vellum/internal/graphdef"
	"github.com/roach88/vellum/internal/holder"
	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/testutil"
)

// Run executes a scenario against a fresh graph and returns the result.
//
// Each run builds the graph from scratch on a new authority with an
// in-memory event sink, so runs are isolated and reproducible. Step
// errors (unknown nodes, writes to read-only holders) abort the run;
// expectation violations accumulate into the result instead.
func Run(s *Scenario) (*Result, error) {
	data, err := os.ReadFile(s.Graph)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	def, err := graphdef.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}

	a := serial.NewAuthority()
	sink := testutil.NewMemorySink()
	a.SetSink(sink)

	g, err := graphdef.Build(a, def)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	if err := executeSteps(g, "steps", s.Steps); err != nil {
		return nil, err
	}

	result := NewResult()
	for _, r := range g.Eval() {
		result.Outputs = append(result.Outputs, Output{
			Name:   r.Name,
			Value:  r.Value,
			Serial: int32(r.Serial),
		})
	}

	// The trace is captured before expectations run, so expectation reads
	// never show up in golden files.
	events := sink.Events()
	result.Trace = convertEvents(events)

	for _, msg := range VerifyTrace(events) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateExpectations(g, &s.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps runs steps in order. Group steps wrap their nested steps in
// one grouped update on the graph's authority.
func executeSteps(g *graphdef.Graph, path string, steps []Step) error {
	for i, st := range steps {
		switch {
		case st.Set != nil:
			if err := g.Set(st.Set.Node, st.Set.Value); err != nil {
				return fmt.Errorf("%s[%d]: set %s: %w", path, i, st.Set.Node, err)
			}

		case len(st.Group) > 0:
			var gerr error
			nested := fmt.Sprintf("%s[%d].group", path, i)
			g.Authority().Grouped(func() {
				gerr = executeSteps(g, nested, st.Group)
			})
			if gerr != nil {
				return gerr
			}

		case st.Read != "":
			h, ok := g.Node(st.Read)
			if !ok {
				return fmt.Errorf("%s[%d]: read %s: no such node", path, i, st.Read)
			}
			h.Value()

		case st.Refresh != "":
			h, ok := g.Node(st.Refresh)
			if !ok {
				return fmt.Errorf("%s[%d]: refresh %s: no such node", path, i, st.Refresh)
			}
			h.NextVersion()

		case st.Retarget != nil:
			h, ok := g.Node(st.Retarget.Node)
			if !ok {
				return fmt.Errorf("%s[%d]: retarget %s: no such node", path, i, st.Retarget.Node)
			}
			al, ok := h.(*holder.Alias[int64])
			if !ok {
				return fmt.Errorf("%s[%d]: retarget %s: node is not an alias", path, i, st.Retarget.Node)
			}
			target, ok := g.Node(st.Retarget.Target)
			if !ok {
				return fmt.Errorf("%s[%d]: retarget %s: no such target %s", path, i, st.Retarget.Node, st.Retarget.Target)
			}
			al.Retarget(target)
		}
	}
	return nil
}
