package brindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsFor(t *testing.T) {
	assert.Equal(t, uint(1), bitsFor(0))
	assert.Equal(t, uint(1), bitsFor(1))
	assert.Equal(t, uint(2), bitsFor(2))
	assert.Equal(t, uint(2), bitsFor(3))
	assert.Equal(t, uint(3), bitsFor(4))
	assert.Equal(t, uint(64), bitsFor(^uint64(0)))
}

func TestIntVectorSetGet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, width := range []uint{1, 3, 7, 13, 33, 63, 64} {
		const n = 300
		v := newIntVector(n, width)
		ref := make([]uint64, n)
		mask := v.mask()

		for i := uint64(0); i < n; i++ {
			ref[i] = rng.Uint64() & mask
			v.Set(i, ref[i])
		}
		// overwrite a few to exercise the clearing path
		for k := 0; k < 100; k++ {
			i := uint64(rng.Intn(n))
			ref[i] = rng.Uint64() & mask
			v.Set(i, ref[i])
		}

		require.Equal(t, uint64(n), v.Len())
		for i := uint64(0); i < n; i++ {
			require.Equal(t, ref[i], v.Get(i), "width %d index %d", width, i)
		}
	}
}
