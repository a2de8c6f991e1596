package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/serial"
)

// newCountingDependent wires a Dependent whose update hook counts its
// invocations and freshens from the current dependency state.
func newCountingDependent(a *serial.Authority, deps []Version) (*Dependent, *int) {
	d := NewDependent(a, deps)
	count := new(int)
	d.SetUpdate(func() {
		*count++
		d.Freshen(ComputeSnapshot(a, deps))
	})
	return d, count
}

func TestDependent_InitiallyStale(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, _ := newCountingDependent(a, []Version{leaf})
	assert.True(t, d.IsStale(), "never computed: stale")
	assert.Equal(t, serial.Null, d.Serial())
}

func TestDependent_NextVersion_Freshens(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, count := newCountingDependent(a, []Version{leaf})
	d.NextVersion()

	assert.Equal(t, 1, *count)
	assert.False(t, d.IsStale(), "fresh immediately after NextVersion")
	assert.Equal(t, leaf.Serial(), d.Serial(), "dependent carries the serial of the change it reflects")
}

func TestDependent_NextVersion_NoOpWhenFresh(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, count := newCountingDependent(a, []Version{leaf})
	d.NextVersion()
	d.NextVersion()
	d.NextVersion()

	assert.Equal(t, 1, *count, "fresh node must not recompute")
}

func TestDependent_StaleAfterDependencyBump(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, count := newCountingDependent(a, []Version{leaf})
	d.NextVersion()
	leaf.Bump()

	assert.True(t, d.IsStale())
	d.NextVersion()
	assert.Equal(t, 2, *count)
	assert.Equal(t, leaf.Serial(), d.Serial())
}

func TestDependent_StickyStaleness(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, _ := newCountingDependent(a, []Version{leaf})
	d.NextVersion()
	leaf.Bump()

	require.True(t, d.IsStale())
	// The sticky flag answers without rescanning; repeated checks agree.
	assert.True(t, d.IsStale())
	assert.True(t, d.stale.Load(), "staleness is cached after first detection")

	d.NextVersion()
	assert.False(t, d.IsStale(), "recompute clears the sticky flag")
}

func TestDependent_SerialMonotonic(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, _ := newCountingDependent(a, []Version{leaf})
	prev := d.Serial()
	for i := 0; i < 50; i++ {
		leaf.Bump()
		d.NextVersion()
		s := d.Serial()
		assert.GreaterOrEqual(t, s, prev, "observed serial never decreases")
		prev = s
	}
}

func TestDependent_Freshen_RejectsOlderSnapshot(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, _ := newCountingDependent(a, []Version{leaf})
	d.NextVersion()
	current := d.Snapshot()

	stale := Snapshot{Serial: current.Serial - 1, DepsSerial: current.DepsSerial}
	assert.False(t, d.Freshen(stale), "freshen must not regress the snapshot")
	assert.Equal(t, current, d.Snapshot())
}

func TestDependent_ForceStale_RecomputesUnconditionally(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	d, count := newCountingDependent(a, []Version{leaf})
	d.NextVersion()
	require.Equal(t, 1, *count)

	d.ForceStale()
	assert.True(t, d.IsStale())
	d.NextVersion()
	assert.Equal(t, 2, *count)
	assert.False(t, d.IsStale())
}

func TestDependent_IsMutable_CachedFromDependencies(t *testing.T) {
	a := serial.NewAuthority()
	imm := NewImmutable(a)
	vol := NewVolatile(a)

	overImmutable := NewDependent(a, []Version{imm})
	overMixed := NewDependent(a, []Version{imm, vol})

	assert.False(t, overImmutable.IsMutable())
	assert.True(t, overMixed.IsMutable())
}

func TestDependent_ChainedRefresh(t *testing.T) {
	// leaf <- mid <- top: refreshing top refreshes mid first.
	a := serial.NewAuthority()
	leaf := NewVolatile(a)

	mid, midCount := newCountingDependent(a, []Version{leaf})
	top, topCount := newCountingDependent(a, []Version{mid})

	top.NextVersion()
	assert.Equal(t, 1, *midCount, "stale dependency refreshed during snapshot scan")
	assert.Equal(t, 1, *topCount)
	assert.Equal(t, leaf.Serial(), top.Serial())

	leaf.Bump()
	top.NextVersion()
	assert.Equal(t, 2, *midCount)
	assert.Equal(t, 2, *topCount)
	assert.Equal(t, leaf.Serial(), top.Serial())
}
