package holder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vellum/internal/serial"
)

func TestProperty_LocalValueWithoutConnection(t *testing.T) {
	a := serial.NewAuthority()
	p := NewProperty(a, 1)

	assert.Equal(t, 1, p.Value())
	require.NoError(t, p.SetValue(2))
	assert.Equal(t, 2, p.Value())
	assert.True(t, p.IsMutable())
	assert.False(t, p.IsStale())
}

func TestProperty_ExternalWinsWhenNewer(t *testing.T) {
	a := serial.NewAuthority()
	p := NewProperty(a, 1)
	feed := NewVolatile(a, 100)

	p.Connect(Holder[int](feed))
	require.NoError(t, feed.SetValue(200))

	assert.Equal(t, 200, p.Value(), "external write after local write wins")
}

func TestProperty_LocalWinsWhenNewer(t *testing.T) {
	a := serial.NewAuthority()
	feed := NewVolatile(a, 100)
	p := NewProperty(a, 1)

	p.Connect(Holder[int](feed))
	require.NoError(t, p.SetValue(2))

	assert.Equal(t, 2, p.Value(), "local write after external change wins")
}

func TestProperty_LastWriterWinsBySerial(t *testing.T) {
	// Interleave local and external writes; the greater serial always wins.
	a := serial.NewAuthority()
	feed := NewVolatile(a, 0)
	p := NewProperty(a, 0)
	p.Connect(Holder[int](feed))

	require.NoError(t, p.SetValue(1))
	assert.Equal(t, 1, p.Value())

	require.NoError(t, feed.SetValue(2))
	assert.Equal(t, 2, p.Value())

	require.NoError(t, p.SetValue(3))
	assert.Equal(t, 3, p.Value())

	require.NoError(t, feed.SetValue(4))
	assert.Equal(t, 4, p.Value())
}

func TestProperty_DisconnectRestoresLocal(t *testing.T) {
	a := serial.NewAuthority()
	p := NewProperty(a, 1)
	feed := NewVolatile(a, 100)

	p.Connect(Holder[int](feed))
	require.NoError(t, feed.SetValue(200))
	require.Equal(t, 200, p.Value())

	before := p.Serial()
	p.Disconnect()

	assert.Equal(t, 1, p.Value())
	assert.GreaterOrEqual(t, p.Serial(), before, "disconnect never regresses the serial")
	assert.Nil(t, p.External())
}

func TestProperty_SerialMonotonicAcrossReconnects(t *testing.T) {
	a := serial.NewAuthority()
	p := NewProperty(a, 0)
	feedA := NewVolatile(a, 1)
	feedB := NewVolatile(a, 2)

	prev := p.Serial()
	for _, feed := range []*Volatile[int]{feedA, feedB, feedA} {
		p.Connect(Holder[int](feed))
		s := p.Serial()
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
}

func TestProperty_ConnectionFinalized_ResolvesAliasChain(t *testing.T) {
	a := serial.NewAuthority()
	leaf := NewVolatile(a, 42)
	inner := NewAlias[int](a, leaf)
	outer := NewAlias[int](a, inner)

	p := NewProperty(a, 0)
	p.Connect(Holder[int](outer))
	p.ConnectionFinalized()

	// After finalization the property is bound to the alias's concrete
	// target; the alias itself can be retargeted without affecting p.
	assert.Same(t, any(leaf), any(p.External()))
}

func TestProperty_DataSerialTracksWinningSide(t *testing.T) {
	a := serial.NewAuthority()
	feed := NewVolatile(a, 1)
	p := NewProperty(a, 0)
	p.Connect(Holder[int](feed))

	assert.Equal(t, 1, p.Value())
	require.NoError(t, feed.SetValue(5))
	assert.Equal(t, 5, p.Value())
	assert.Equal(t, feed.Serial(), p.DataSerial())
}

func identityDistribute(n int) func(int) []int {
	return func(v int) []int {
		values := make([]int, n)
		for i := range values {
			values[i] = v
		}
		return values
	}
}

func maxAggregate(values []int) int {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func TestPropertyArray_ScalarFansOutToElements(t *testing.T) {
	a := serial.NewAuthority()
	arr := NewPropertyArray(a, 3, 0, identityDistribute(3), maxAggregate)

	require.NoError(t, arr.SetValue(7))

	assert.Equal(t, []int{7, 7, 7}, arr.Values())
	assert.Equal(t, 7, arr.Value())
}

func TestPropertyArray_ElementFansInToScalar(t *testing.T) {
	a := serial.NewAuthority()
	arr := NewPropertyArray(a, 3, 0, identityDistribute(3), maxAggregate)

	require.NoError(t, arr.Element(1).SetValue(9))

	assert.Equal(t, 9, arr.Value(), "element write re-aggregates the scalar")
	assert.Equal(t, []int{0, 9, 0}, arr.Values())
}

func TestPropertyArray_PropagatedWritesShareTriggeringSerial(t *testing.T) {
	a := serial.NewAuthority()
	arr := NewPropertyArray(a, 2, 0, identityDistribute(2), maxAggregate)

	require.NoError(t, arr.SetValue(5))
	s := arr.Scalar().DataSerial()

	assert.Equal(t, s, arr.Element(0).DataSerial(),
		"fan-out stamps elements with the scalar write's serial")
	assert.Equal(t, s, arr.Element(1).DataSerial())

	require.NoError(t, arr.Element(0).SetValue(8))
	es := arr.Element(0).DataSerial()
	assert.Equal(t, es, arr.Scalar().DataSerial(),
		"fan-in stamps the scalar with the element write's serial")
}

func TestPropertyArray_RoundTripIdentity(t *testing.T) {
	// With identity distribute and max aggregate over identical values,
	// aggregate(distribute(x)) == x.
	a := serial.NewAuthority()
	arr := NewPropertyArray(a, 4, 0, identityDistribute(4), maxAggregate)

	for _, v := range []int{3, 11, 2} {
		require.NoError(t, arr.SetValue(v))
		assert.Equal(t, v, maxAggregate(arr.Values()))
		assert.Equal(t, v, arr.Value())
	}
}

func TestPropertyArray_PropagationDoesNotAllocateSerials(t *testing.T) {
	a := serial.NewAuthority()
	arr := NewPropertyArray(a, 3, 0, identityDistribute(3), maxAggregate)

	require.NoError(t, arr.SetValue(5))
	after := a.Current()

	// The fan-out wrote three elements, but only the scalar write itself
	// allocated a serial.
	require.NoError(t, arr.Element(2).SetValue(6))
	assert.Equal(t, after+1, a.Current(),
		"an element write allocates exactly one serial; fan-in is stamped")
}
