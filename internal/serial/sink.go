package serial

// EventKind identifies what a recorded event describes.
type EventKind string

const (
	// EventSerial records a serial allocation outside any grouped update.
	EventSerial EventKind = "serial"

	// EventGroupEnter records the outermost entry into a grouped update.
	EventGroupEnter EventKind = "group_enter"

	// EventGroupLeave records the outermost exit from a grouped update.
	EventGroupLeave EventKind = "group_leave"

	// EventSet records a leaf value write.
	EventSet EventKind = "set"

	// EventRecompute records a dependent holder recomputation.
	EventRecompute EventKind = "recompute"

	// EventRetarget records an alias being pointed at a new holder.
	EventRetarget EventKind = "retarget"

	// EventConnect records a property gaining or losing its external feed.
	EventConnect EventKind = "connect"
)

// Event is one diagnostic record of serial activity.
//
// Node identifies the holder involved, empty for authority-level events.
// Detail carries event-specific context (a rendered value, a target token).
type Event struct {
	Kind   EventKind
	Node   string
	Serial Serial
	Detail string
}

// Sink receives diagnostic events from an Authority and its holders.
//
// Implementations must be safe for concurrent use and must not call back
// into the authority. Recording is best-effort: the core never blocks on
// or fails because of a sink.
type Sink interface {
	Record(ev Event)
}
