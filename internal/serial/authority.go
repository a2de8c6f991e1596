package serial

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Authority allocates version serials and hosts grouped updates.
//
// All serials in one graph come from one Authority. The counter is
// monotonic: each Next() returns a value strictly greater than the last,
// except at wraparound where allocation restarts at Min. Wraparound is
// carried over from the original design as-is: no collision avoidance is
// attempted. This is only safe because a process lifetime cannot
// realistically allocate 2^31 serials; it is a known limitation, not a
// defended invariant.
//
// Thread-safety: all methods are safe for concurrent use. The counter is
// guarded by a mutex; grouped-update state is confined to the entering
// goroutine.
type Authority struct {
	mu   sync.Mutex
	last Serial

	// groups holds grouped-update state keyed by goroutine ID. Go has no
	// thread-locals; keying by goroutine ID preserves the rule that
	// grouped updates on different goroutines never share a frozen serial.
	groups map[uint64]*groupFrame

	sink Sink
}

// groupFrame tracks one goroutine's grouped-update nesting.
type groupFrame struct {
	depth  int
	frozen Serial
}

// NewAuthority creates an authority whose first allocated serial is Min.
func NewAuthority() *Authority {
	return &Authority{
		last:   Null,
		groups: make(map[uint64]*groupFrame),
	}
}

// SetSink installs an event sink for diagnostics. A nil sink disables
// recording. Not safe to call concurrently with allocations; install the
// sink before the graph starts working.
func (a *Authority) SetSink(s Sink) {
	a.sink = s
}

// Current returns the latest committed serial, or the frozen serial if the
// calling goroutine is inside a grouped update. Returns Null before the
// first allocation.
func (a *Authority) Current() Serial {
	gid := goroutineID()

	a.mu.Lock()
	defer a.mu.Unlock()

	if g := a.groups[gid]; g != nil {
		return g.frozen
	}
	return a.last
}

// Next allocates a serial.
//
// Outside a grouped update each call returns a fresh serial, strictly
// greater than the previous one (wrapping from Max to Min). Inside a
// grouped update every call on the entering goroutine returns the frozen
// serial allocated by the outermost Enter.
func (a *Authority) Next() Serial {
	gid := goroutineID()

	a.mu.Lock()
	if g := a.groups[gid]; g != nil {
		s := g.frozen
		a.mu.Unlock()
		return s
	}
	s := a.advance()
	a.mu.Unlock()

	a.Emit(Event{Kind: EventSerial, Serial: s})
	return s
}

// advance bumps the counter. Caller holds a.mu.
func (a *Authority) advance() Serial {
	if a.last == Max || !a.last.Usable() {
		a.last = Min
	} else {
		a.last++
	}
	return a.last
}

// Enter begins (or nests into) a grouped update on the calling goroutine.
//
// The first entry allocates one frozen serial; nested entries reuse it.
// Every Enter must be paired with a Leave on the same goroutine. Prefer
// Grouped, which pairs them for you.
func (a *Authority) Enter() {
	gid := goroutineID()

	a.mu.Lock()
	g := a.groups[gid]
	if g == nil {
		g = &groupFrame{frozen: a.advance()}
		a.groups[gid] = g
	}
	g.depth++
	frozen := g.frozen
	depth := g.depth
	a.mu.Unlock()

	if depth == 1 {
		a.Emit(Event{Kind: EventGroupEnter, Serial: frozen})
	}
}

// Leave exits one level of grouped update on the calling goroutine.
// Leaving the outermost level releases the frozen serial.
func (a *Authority) Leave() {
	gid := goroutineID()

	a.mu.Lock()
	g := a.groups[gid]
	if g == nil {
		a.mu.Unlock()
		return
	}
	g.depth--
	done := g.depth <= 0
	frozen := g.frozen
	if done {
		delete(a.groups, gid)
	}
	a.mu.Unlock()

	if done {
		a.Emit(Event{Kind: EventGroupLeave, Serial: frozen})
	}
}

// Grouped runs fn inside a grouped update. All serial allocations performed
// by fn on this goroutine observe one frozen serial. Reentrant: nesting
// Grouped calls extends the same frozen serial.
func (a *Authority) Grouped(fn func()) {
	a.Enter()
	defer a.Leave()
	fn()
}

// InGroup reports whether the calling goroutine is inside a grouped update.
func (a *Authority) InGroup() bool {
	gid := goroutineID()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.groups[gid] != nil
}

// Emit forwards an event to the sink, if any. Holders use this to record
// value writes and recomputations alongside the authority's own events.
func (a *Authority) Emit(ev Event) {
	if a.sink != nil {
		a.sink.Record(ev)
	}
}

// goroutineID parses the current goroutine's ID from its stack header.
// This is the standard substitute for thread-local storage; the parse is
// one small allocation per call and only runs on authority entry points.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header is "goroutine <id> [".
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
