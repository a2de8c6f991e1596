package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/vellum/internal/serial"
)

func TestVerifyTrace_CleanTrace(t *testing.T) {
	violations := VerifyTrace([]serial.Event{
		{Kind: serial.EventSerial, Serial: 1},
		{Kind: serial.EventGroupEnter, Serial: 2},
		{Kind: serial.EventSet, Node: "a", Serial: 2},
		{Kind: serial.EventSet, Node: "b", Serial: 2},
		{Kind: serial.EventGroupLeave, Serial: 2},
		{Kind: serial.EventSerial, Serial: 3},
	})
	assert.Empty(t, violations)
}

func TestVerifyTrace_WriteOutsideFrozenSerial(t *testing.T) {
	violations := VerifyTrace([]serial.Event{
		{Kind: serial.EventGroupEnter, Serial: 5},
		{Kind: serial.EventSet, Node: "a", Serial: 6},
		{Kind: serial.EventGroupLeave, Serial: 5},
	})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "frozen")
}

func TestVerifyTrace_RecomputeExemptInsideGroup(t *testing.T) {
	// A recompute's serial is the upstream serial it incorporated, which
	// can predate the group that triggered it.
	violations := VerifyTrace([]serial.Event{
		{Kind: serial.EventSerial, Serial: 3},
		{Kind: serial.EventGroupEnter, Serial: 4},
		{Kind: serial.EventRecompute, Node: "d", Serial: 3},
		{Kind: serial.EventGroupLeave, Serial: 4},
	})
	assert.Empty(t, violations)
}

func TestVerifyTrace_NonMonotonicAllocation(t *testing.T) {
	violations := VerifyTrace([]serial.Event{
		{Kind: serial.EventSerial, Serial: 5},
		{Kind: serial.EventSerial, Serial: 5},
	})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "not above previous")
}

func TestVerifyTrace_UnbalancedGroup(t *testing.T) {
	violations := VerifyTrace([]serial.Event{
		{Kind: serial.EventGroupEnter, Serial: 1},
	})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "never left")

	violations = VerifyTrace([]serial.Event{
		{Kind: serial.EventGroupLeave, Serial: 1},
	})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "leave without enter")
}
