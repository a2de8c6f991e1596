package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one declarative conformance test: a graph definition, a
// sequence of steps against it, and expectations on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named
	// after it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Graph is the path to the graph definition YAML, relative to the
	// scenario file unless absolute.
	Graph string `yaml:"graph"`

	// Steps run in order against the built graph.
	Steps []Step `yaml:"steps"`

	// Expect is evaluated after all steps have run.
	Expect Expectations `yaml:"expect"`
}

// Step is one scenario action. Exactly one field must be set.
type Step struct {
	// Set writes a value to a named node.
	Set *SetStep `yaml:"set,omitempty"`

	// Group runs nested steps inside one grouped update: every write in
	// the group observes the same serial.
	Group []Step `yaml:"group,omitempty"`

	// Read pulls a named node's value (recomputing if stale).
	Read string `yaml:"read,omitempty"`

	// Refresh advances a named node to its next version without reading
	// the value.
	Refresh string `yaml:"refresh,omitempty"`

	// Retarget points a named alias node at another node.
	Retarget *RetargetStep `yaml:"retarget,omitempty"`
}

// SetStep writes value to node.
type SetStep struct {
	Node  string `yaml:"node"`
	Value int64  `yaml:"value"`
}

// RetargetStep points alias node Node at node Target.
type RetargetStep struct {
	Node   string `yaml:"node"`
	Target string `yaml:"target"`
}

// Expectations validate the graph after the steps.
type Expectations struct {
	// Values maps node names to their expected effective values.
	Values map[string]int64 `yaml:"values,omitempty"`

	// SameSerial lists groups of node names whose version serials must
	// be equal, the observable footprint of a grouped update.
	SameSerial [][]string `yaml:"same_serial,omitempty"`

	// Stale lists nodes that must report stale without being read.
	Stale []string `yaml:"stale,omitempty"`

	// Fresh lists nodes that must not report stale.
	Fresh []string `yaml:"fresh,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. The graph path is
// resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	// Strict decoding catches typos like "step:" vs "steps:".
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if s.Graph != "" && !filepath.IsAbs(s.Graph) {
		s.Graph = filepath.Join(filepath.Dir(path), s.Graph)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validate checks required fields before execution.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if _, err := os.Stat(s.Graph); os.IsNotExist(err) {
		return fmt.Errorf("graph file not found: %s", s.Graph)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if err := validateSteps("steps", s.Steps, true); err != nil {
		return err
	}
	if s.Expect.Values == nil && len(s.Expect.SameSerial) == 0 &&
		len(s.Expect.Stale) == 0 && len(s.Expect.Fresh) == 0 {
		return fmt.Errorf("expect must declare at least one expectation")
	}
	return nil
}

// validateSteps checks each step declares exactly one action. Groups may
// not nest groups: one grouped update has one frozen serial, so nesting
// adds nothing a flat group does not already express.
func validateSteps(path string, steps []Step, allowGroup bool) error {
	for i, st := range steps {
		n := 0
		if st.Set != nil {
			n++
			if st.Set.Node == "" {
				return fmt.Errorf("%s[%d].set: node is required", path, i)
			}
		}
		if len(st.Group) > 0 {
			n++
			if !allowGroup {
				return fmt.Errorf("%s[%d]: groups may not nest", path, i)
			}
			nested := fmt.Sprintf("%s[%d].group", path, i)
			if err := validateSteps(nested, st.Group, false); err != nil {
				return err
			}
		}
		if st.Read != "" {
			n++
		}
		if st.Refresh != "" {
			n++
		}
		if st.Retarget != nil {
			n++
			if st.Retarget.Node == "" || st.Retarget.Target == "" {
				return fmt.Errorf("%s[%d].retarget: node and target are required", path, i)
			}
		}

		if n == 0 {
			return fmt.Errorf("%s[%d]: step declares no action", path, i)
		}
		if n > 1 {
			return fmt.Errorf("%s[%d]: step declares %d actions, want exactly one", path, i, n)
		}
	}
	return nil
}
