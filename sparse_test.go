package brindex

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomOnes(rng *rand.Rand, n uint64, m int) []uint64 {
	set := make(map[uint64]bool)
	for len(set) < m {
		set[uint64(rng.Int63n(int64(n)))] = true
	}
	ones := make([]uint64, 0, m)
	for p := range set {
		ones = append(ones, p)
	}
	sort.Slice(ones, func(a, b int) bool { return ones[a] < ones[b] })
	return ones
}

func checkAgainstOnes(t *testing.T, v *sparseBitVector, n uint64, ones []uint64) {
	t.Helper()
	require.Equal(t, uint64(len(ones)), v.NumOnes())
	require.Equal(t, n, v.Size())

	for k, p := range ones {
		require.Equal(t, p, v.Select(uint64(k)), "select %d", k)
	}

	isSet := make(map[uint64]bool, len(ones))
	for _, p := range ones {
		isSet[p] = true
	}
	rank := uint64(0)
	for i := uint64(0); i <= n; i++ {
		require.Equal(t, rank, v.Rank(i), "rank %d", i)
		if i < n {
			assert.Equal(t, isSet[i], v.Get(i), "get %d", i)
		}
		if isSet[i] {
			rank++
		}
	}
}

func TestSparseBitVectorBasic(t *testing.T) {
	ones := []uint64{0, 3, 4, 5, 6}
	v := newSparseBitVector(7, ones)
	checkAgainstOnes(t, v, 7, ones)
}

func TestSparseBitVectorRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, tc := range []struct {
		n uint64
		m int
	}{
		{10, 1}, {64, 5}, {100, 100}, {1000, 7}, {1 << 14, 200}, {129, 64},
	} {
		ones := randomOnes(rng, tc.n, tc.m)
		v := newSparseBitVector(tc.n, ones)
		checkAgainstOnes(t, v, tc.n, ones)
	}
}

func TestSparseBitVectorPredecessor(t *testing.T) {
	ones := []uint64{2, 5, 9}
	v := newSparseBitVector(12, ones)

	// strict predecessor by rank; queries at or below the smallest set
	// position wrap to the last one
	assert.Equal(t, uint64(2), v.PredecessorRankCircular(0))
	assert.Equal(t, uint64(2), v.PredecessorRankCircular(2))
	assert.Equal(t, uint64(0), v.PredecessorRankCircular(3))
	assert.Equal(t, uint64(0), v.PredecessorRankCircular(5))
	assert.Equal(t, uint64(1), v.PredecessorRankCircular(6))
	assert.Equal(t, uint64(1), v.PredecessorRankCircular(9))
	assert.Equal(t, uint64(2), v.PredecessorRankCircular(10))
	assert.Equal(t, uint64(2), v.PredecessorRankCircular(11))
}

func TestSparseBitVectorSingleBit(t *testing.T) {
	v := newSparseBitVector(100, []uint64{42})
	assert.Equal(t, uint64(42), v.Select(0))
	assert.Equal(t, uint64(0), v.Rank(42))
	assert.Equal(t, uint64(1), v.Rank(43))
	assert.Equal(t, uint64(0), v.PredecessorRankCircular(10))
	assert.Equal(t, uint64(0), v.PredecessorRankCircular(90))
}
