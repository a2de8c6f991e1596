package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/vellum/internal/graphdef"
)

// EvaluateExpectations checks a scenario's expectations against the final
// graph state and returns one message per violation. Node names are
// checked in sorted order so violation lists are deterministic.
func EvaluateExpectations(g *graphdef.Graph, e *Expectations) []string {
	var violations []string

	names := make([]string, 0, len(e.Values))
	for name := range e.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want := e.Values[name]
		h, ok := g.Node(name)
		if !ok {
			violations = append(violations, fmt.Sprintf("values: no such node %q", name))
			continue
		}
		if got := h.Value(); got != want {
			violations = append(violations, fmt.Sprintf("values: %s = %d, want %d", name, got, want))
		}
	}

	for _, group := range e.SameSerial {
		violations = append(violations, checkSameSerial(g, group)...)
	}

	for _, name := range e.Stale {
		h, ok := g.Node(name)
		if !ok {
			violations = append(violations, fmt.Sprintf("stale: no such node %q", name))
			continue
		}
		if !h.IsStale() {
			violations = append(violations, fmt.Sprintf("stale: %s is fresh, want stale", name))
		}
	}

	for _, name := range e.Fresh {
		h, ok := g.Node(name)
		if !ok {
			violations = append(violations, fmt.Sprintf("fresh: no such node %q", name))
			continue
		}
		if h.IsStale() {
			violations = append(violations, fmt.Sprintf("fresh: %s is stale, want fresh", name))
		}
	}

	return violations
}

// checkSameSerial verifies every node in group reports the serial of the
// first one.
func checkSameSerial(g *graphdef.Graph, group []string) []string {
	if len(group) < 2 {
		return []string{fmt.Sprintf("same_serial: group %v needs at least two nodes", group)}
	}

	var violations []string
	first, ok := g.Node(group[0])
	if !ok {
		return []string{fmt.Sprintf("same_serial: no such node %q", group[0])}
	}
	want := first.Serial()

	for _, name := range group[1:] {
		h, ok := g.Node(name)
		if !ok {
			violations = append(violations, fmt.Sprintf("same_serial: no such node %q", name))
			continue
		}
		if got := h.Serial(); got != want {
			violations = append(violations, fmt.Sprintf(
				"same_serial: [%s] %s has serial %s, want %s (from %s)",
				strings.Join(group, " "), name, got, want, group[0]))
		}
	}
	return violations
}
