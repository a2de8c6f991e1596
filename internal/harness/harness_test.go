package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_GroupedTotal(t *testing.T) {
	s := &Scenario{
		Name:  "grouped-total-inline",
		Graph: "testdata/graphs/basic.yaml",
		Steps: []Step{
			{Group: []Step{
				{Set: &SetStep{Node: "a", Value: 10}},
				{Set: &SetStep{Node: "b", Value: 20}},
			}},
			{Read: "total"},
		},
		Expect: Expectations{
			Values:     map[string]int64{"total": 30},
			SameSerial: [][]string{{"a", "b", "total"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "violations: %v", result.Errors)

	require.Len(t, result.Outputs, 1)
	assert.Equal(t, int64(30), result.Outputs[0].Value)
	assert.NotEmpty(t, result.Trace)
}

func TestRun_ReportsValueViolation(t *testing.T) {
	s := &Scenario{
		Name:  "wrong-value",
		Graph: "testdata/graphs/basic.yaml",
		Steps: []Step{
			{Set: &SetStep{Node: "a", Value: 10}},
		},
		Expect: Expectations{
			Values: map[string]int64{"total": 999},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "want 999")
}

func TestRun_ReportsSerialViolation(t *testing.T) {
	// Separate writes allocate separate serials, so the same-serial
	// expectation must fail.
	s := &Scenario{
		Name:  "split-writes",
		Graph: "testdata/graphs/basic.yaml",
		Steps: []Step{
			{Set: &SetStep{Node: "a", Value: 10}},
			{Set: &SetStep{Node: "b", Value: 20}},
		},
		Expect: Expectations{
			SameSerial: [][]string{{"a", "b"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "same_serial")
}

func TestRun_StaleAndFresh(t *testing.T) {
	s := &Scenario{
		Name:  "cache-goes-stale",
		Graph: "testdata/graphs/cached.yaml",
		Steps: []Step{
			{Set: &SetStep{Node: "src", Value: 6}},
		},
		Expect: Expectations{
			Values: map[string]int64{"src": 6, "snap": 5},
			Stale:  []string{"snap"},
			Fresh:  []string{"src"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "violations: %v", result.Errors)
}

func TestRun_SetReadOnlyNodeFails(t *testing.T) {
	s := &Scenario{
		Name:  "write-derived",
		Graph: "testdata/graphs/basic.yaml",
		Steps: []Step{
			{Set: &SetStep{Node: "total", Value: 1}},
		},
		Expect: Expectations{
			Values: map[string]int64{"total": 1},
		},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READ_ONLY")
}

func TestRun_UnknownNodeFails(t *testing.T) {
	s := &Scenario{
		Name:  "unknown-node",
		Graph: "testdata/graphs/basic.yaml",
		Steps: []Step{
			{Read: "missing"},
		},
		Expect: Expectations{
			Values: map[string]int64{"total": 3},
		},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such node")
}
