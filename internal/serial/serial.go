package serial

import (
	"fmt"
	"math"
)

// Serial is a version stamp drawn from an Authority.
//
// Serials form a signed 32-bit total order with four reserved values:
//
//   - Null: no version yet; a holder that has never computed carries Null
//     and is never considered fresh.
//   - ForcedStale: marker for "treat as stale regardless of comparison".
//   - Min, Max: the ends of the usable range. Allocation past Max wraps
//     to Min.
//
// Ordinary comparison (<, >=) is meaningful only between usable serials;
// Null compares below everything usable, which is exactly what the
// staleness protocol relies on.
type Serial int32

const (
	// Null marks a holder that has no version yet. Null is never fresh.
	Null Serial = math.MinInt32

	// ForcedStale marks a snapshot that must be treated as stale.
	ForcedStale Serial = math.MinInt32 + 1

	// Min is the smallest usable serial. Wraparound restarts here.
	Min Serial = math.MinInt32 + 2

	// Max is the largest usable serial.
	Max Serial = math.MaxInt32
)

// Usable reports whether s is an allocatable serial (not a sentinel).
func (s Serial) Usable() bool {
	return s >= Min
}

// String renders sentinels by name for traces and error messages.
func (s Serial) String() string {
	switch s {
	case Null:
		return "NULL"
	case ForcedStale:
		return "STALE"
	default:
		return fmt.Sprintf("%d", int32(s))
	}
}
