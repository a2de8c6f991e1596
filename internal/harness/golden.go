package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file representation of one scenario run.
// Field order is fixed by the struct, so serialization is deterministic.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Description  string       `json:"description,omitempty"`
	Pass         bool         `json:"pass"`
	Outputs      []Output     `json:"outputs"`
	Trace        []TraceEvent `json:"trace"`
	Errors       []string     `json:"errors,omitempty"`
}

// RunWithGolden executes a scenario and compares the run snapshot against
// testdata/golden/{scenario.Name}.golden.
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, s, result)
}

// AssertGolden compares an already-obtained result against the scenario's
// golden file.
func AssertGolden(t *testing.T, s *Scenario, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: s.Name,
		Description:  s.Description,
		Pass:         result.Pass,
		Outputs:      result.Outputs,
		Trace:        result.Trace,
		Errors:       result.Errors,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return nil
}
