package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerial_Sentinels_Ordering(t *testing.T) {
	assert.Less(t, Null, ForcedStale)
	assert.Less(t, ForcedStale, Min)
	assert.Less(t, Min, Max)
}

func TestSerial_Usable(t *testing.T) {
	assert.False(t, Null.Usable())
	assert.False(t, ForcedStale.Usable())
	assert.True(t, Min.Usable())
	assert.True(t, Max.Usable())
	assert.True(t, (Min + 1).Usable())
}

func TestSerial_String(t *testing.T) {
	assert.Equal(t, "NULL", Null.String())
	assert.Equal(t, "STALE", ForcedStale.String())
	assert.Equal(t, "7", Serial(7).String())
}
