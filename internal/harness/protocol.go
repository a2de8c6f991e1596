package harness

import (
	"fmt"

	"github.com/roach88/vellum/internal/serial"
)

// VerifyTrace checks an event trace against the serial protocol and
// returns one message per violation:
//
//   - Every value write inside a grouped update must carry the group's
//     frozen serial. (Recompute events are exempt: their serial is the
//     maximum upstream serial they incorporated, which can predate the
//     group that triggered them.)
//   - Serial allocation (standalone and group-frozen) must be strictly
//     increasing.
//
// These hold for every scenario regardless of its expectations, so every
// harness run checks them.
func VerifyTrace(events []serial.Event) []string {
	var violations []string

	inGroup := false
	var frozen serial.Serial
	lastAlloc := serial.Null

	for i, ev := range events {
		switch ev.Kind {
		case serial.EventSerial, serial.EventGroupEnter:
			if lastAlloc != serial.Null && ev.Serial <= lastAlloc {
				violations = append(violations, fmt.Sprintf(
					"trace[%d]: allocated serial %s not above previous %s", i, ev.Serial, lastAlloc))
			}
			lastAlloc = ev.Serial
			if ev.Kind == serial.EventGroupEnter {
				inGroup = true
				frozen = ev.Serial
			}

		case serial.EventGroupLeave:
			if !inGroup {
				violations = append(violations, fmt.Sprintf("trace[%d]: group leave without enter", i))
			}
			inGroup = false

		case serial.EventSet:
			if inGroup && ev.Serial != frozen {
				violations = append(violations, fmt.Sprintf(
					"trace[%d]: write to %s inside group carries serial %s, want frozen %s",
					i, ev.Node, ev.Serial, frozen))
			}
		}
	}

	if inGroup {
		violations = append(violations, "trace: group never left")
	}
	return violations
}
