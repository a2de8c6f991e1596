package holder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/version"
)

func TestDependentHolder_LazyRecompute(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)

	computes := 0
	d := NewDependent(a, []version.Version{leaf}, func() int {
		computes++
		return leaf.Value() * 10
	})

	assert.Equal(t, 0, computes, "nothing computes before the first read")
	assert.Equal(t, 10, d.Value())
	assert.Equal(t, 1, computes)
	assert.Equal(t, leaf.Serial(), d.Serial(),
		"dependent carries the serial of the change it reflects")
}

func TestDependentHolder_RepeatedReadsDoNotRecompute(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)

	computes := 0
	d := NewDependent(a, []version.Version{leaf}, func() int {
		computes++
		return leaf.Value() * 10
	})

	d.Value()
	d.Value()
	d.Value()
	assert.Equal(t, 1, computes)
}

func TestDependentHolder_RecomputesAfterLeafWrite(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)

	d := NewDependent(a, []version.Version{leaf}, func() int {
		return leaf.Value() * 10
	})

	require.Equal(t, 10, d.Value())
	require.NoError(t, leaf.SetValue(2))

	assert.True(t, d.IsStale())
	assert.Equal(t, 20, d.Value())
	assert.False(t, d.IsStale(), "freshness convergence after recompute")
	assert.Equal(t, leaf.Serial(), d.Serial())
}

func TestDependentHolder_FreshnessConvergence(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)
	d := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() })

	for i := 2; i < 10; i++ {
		require.NoError(t, leaf.SetValue(i))
		d.NextVersion()
		assert.False(t, d.IsStale(), "isStale false immediately after NextVersion")
	}
}

func TestDependentHolder_Monotonicity(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 0)
	d := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() })

	prev := d.Serial()
	for i := 1; i <= 30; i++ {
		require.NoError(t, leaf.SetValue(i))
		_ = d.Value()
		s := d.Serial()
		assert.GreaterOrEqual(t, s, prev, "versionSerial never decreases across reads")
		prev = s
	}
}

func TestDependentHolder_ReadOnly(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)
	d := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() })

	err := d.SetValue(5)
	assert.True(t, IsReadOnly(err))
}

func TestDependentHolder_DataSerialTracksRecompute(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)
	d := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() })

	assert.Equal(t, serial.Null, d.DataSerial(), "no data before the first read")
	d.Value()
	assert.Equal(t, leaf.Serial(), d.DataSerial())
}

func TestDependentHolder_DiamondSharesOneRecomputeCascade(t *testing.T) {
	// leaf feeds both mid1 and mid2; top reads both. One leaf write, one
	// read of top: every node ends up stamped with the leaf's serial.
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)

	mid1 := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() + 1 })
	mid2 := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() * 2 })
	top := NewDependent(a, []version.Version{mid1, mid2}, func() int {
		return mid1.Value() + mid2.Value()
	})

	assert.Equal(t, 4, top.Value())

	require.NoError(t, leaf.SetValue(10))
	assert.Equal(t, 31, top.Value())
	assert.Equal(t, leaf.Serial(), mid1.Serial())
	assert.Equal(t, leaf.Serial(), mid2.Serial())
	assert.Equal(t, leaf.Serial(), top.Serial())
}

func TestDependentHolder_EffectivelyImmutableOverImmutableInputs(t *testing.T) {
	a := serial.NewAuthority()
	imm := NewImmutable(a, 3)

	d := NewDependent(a, []version.Version{imm}, func() int { return imm.Value() * 2 })
	assert.Equal(t, 6, d.Value())
	assert.False(t, d.IsMutable(), "all inputs immutable: dependent is effectively immutable")
}

func TestGroupedUpdate_Atomicity(t *testing.T) {
	// All dependents recomputed inside one grouped update triggered by a
	// single leaf write end up with the identical version serial.
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 1)

	d1 := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() + 1 })
	d2 := NewDependent(a, []version.Version{leaf}, func() int { return leaf.Value() + 2 })
	d3 := NewDependent(a, []version.Version{d1, d2}, func() int { return d1.Value() + d2.Value() })

	a.Grouped(func() {
		require.NoError(t, leaf.SetValue(5))
		_ = d3.Value()
	})

	assert.Equal(t, 13, d3.Value())
	assert.Equal(t, leaf.Serial(), d1.Serial())
	assert.Equal(t, d1.Serial(), d2.Serial())
	assert.Equal(t, d2.Serial(), d3.Serial())
}

func TestGroupedUpdate_ConcreteScenario(t *testing.T) {
	// Leaf L = volatile(1). D = L*10. Read D: 10, D.serial == L.serial.
	// Set L = 2 inside a grouped update that also creates E = D+1; after
	// the update E == 21 and D.serial == E.serial.
	a := serial.NewAuthority()
	l := NewVolatile(a, 1)

	d := NewDependent(a, []version.Version{l}, func() int { return l.Value() * 10 })
	require.Equal(t, 10, d.Value())
	require.Equal(t, l.Serial(), d.Serial())

	var e *Dependent[int]
	a.Grouped(func() {
		require.NoError(t, l.SetValue(2))
		e = NewDependent(a, []version.Version{d}, func() int { return d.Value() + 1 })
		_ = e.Value()
	})

	assert.Equal(t, 21, e.Value())
	assert.Equal(t, d.Serial(), e.Serial(), "one grouped update: one shared serial")
}
