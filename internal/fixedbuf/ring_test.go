package fixedbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingRoundsUpToPowerOfTwo(t *testing.T) {
	cases := []struct {
		capacity int
		wantLen  int
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{10, 16},
		{16, 16},
		{17, 32},
	}
	for _, c := range cases {
		r := NewRing[int](c.capacity)
		assert.Equal(t, c.wantLen, r.Len(), "capacity=%d", c.capacity)
		assert.Equal(t, c.wantLen-1, r.Mask())
	}
}

func TestSetGetAt(t *testing.T) {
	r := NewRing[float64](10) // rounds up to 16
	for i := 0; i < 16; i++ {
		r.Set(i, float64(i))
	}
	require.Equal(t, float64(15), r.Get(15))
	// At(head, offset) reads offset steps behind head
	assert.Equal(t, float64(15), r.At(15, 0))
	assert.Equal(t, float64(14), r.At(15, 1))
	assert.Equal(t, float64(0), r.At(15, 15))
}

func TestAtWrapsAroundMask(t *testing.T) {
	r := NewRing[int](4)
	for i := 0; i < 4; i++ {
		r.Set(i, i+1)
	}
	// head=1, offset=2 -> index -1 & 3 == 3
	assert.Equal(t, 4, r.At(1, 2))
}

func TestFill(t *testing.T) {
	r := NewRing[float64](4)
	r.Fill(7)
	for i := 0; i < r.Len(); i++ {
		assert.Equal(t, float64(7), r.Get(i))
	}
}
