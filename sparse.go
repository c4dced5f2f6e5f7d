package brindex

import (
	"math/bits"
	"sort"
)

// sparseBitVector stores m set bits over a universe of size n in Elias-Fano
// form: the low bits of each position go into a packed vector, the high parts
// are unary-coded into an upper bitvector of m + (n>>lowBits) + 1 bits.
type sparseBitVector struct {
	n       uint64
	m       uint64
	lowBits uint
	lower   *intVector // nil when lowBits == 0
	upper   []uint64
	rankW   []uint64 // set bits in upper words before word i
}

// newSparseBitVector builds the vector from the sorted, strictly increasing
// positions of its set bits. Positions must be < n.
func newSparseBitVector(n uint64, ones []uint64) *sparseBitVector {
	v := &sparseBitVector{n: n, m: uint64(len(ones))}
	if v.m > 0 && n/v.m >= 2 {
		v.lowBits = uint(bits.Len64(n/v.m)) - 1
	}
	if v.lowBits > 0 {
		v.lower = newIntVector(v.m, v.lowBits)
	}
	upperBits := v.m + (n >> v.lowBits) + 1
	v.upper = make([]uint64, (upperBits+63)/64)
	for i, p := range ones {
		if v.lower != nil {
			v.lower.Set(uint64(i), p&v.lowMask())
		}
		h := (p >> v.lowBits) + uint64(i)
		v.upper[h>>6] |= 1 << (h & 63)
	}
	v.indexUpper()
	return v
}

func (v *sparseBitVector) indexUpper() {
	v.rankW = make([]uint64, len(v.upper)+1)
	for i, w := range v.upper {
		v.rankW[i+1] = v.rankW[i] + uint64(bits.OnesCount64(w))
	}
}

func (v *sparseBitVector) lowMask() uint64 {
	return (uint64(1) << v.lowBits) - 1
}

func (v *sparseBitVector) Size() uint64    { return v.n }
func (v *sparseBitVector) NumOnes() uint64 { return v.m }

// selectInWord returns the offset of the (k+1)-th set bit of x.
func selectInWord(x uint64, k uint64) uint64 {
	for ; k > 0; k-- {
		x &= x - 1
	}
	return uint64(bits.TrailingZeros64(x))
}

func (v *sparseBitVector) upperSelect1(k uint64) uint64 {
	w := sort.Search(len(v.upper), func(i int) bool { return v.rankW[i+1] > k })
	return uint64(w)*64 + selectInWord(v.upper[w], k-v.rankW[w])
}

func (v *sparseBitVector) upperSelect0(k uint64) uint64 {
	w := sort.Search(len(v.upper), func(i int) bool { return uint64(i+1)*64-v.rankW[i+1] > k })
	return uint64(w)*64 + selectInWord(^v.upper[w], k-(uint64(w)*64-v.rankW[w]))
}

// Select returns the position of the (k+1)-th set bit.
func (v *sparseBitVector) Select(k uint64) uint64 {
	if k >= v.m {
		panic("brindex: select out of range")
	}
	high := v.upperSelect1(k) - k
	if v.lower == nil {
		return high
	}
	return high<<v.lowBits | v.lower.Get(k)
}

// Rank returns the number of set bits in [0, i). Domain 0 <= i <= n.
func (v *sparseBitVector) Rank(i uint64) uint64 {
	if v.m == 0 {
		return 0
	}
	if i > v.n {
		i = v.n
	}
	h := i >> v.lowBits
	var lo uint64
	if h > 0 {
		lo = v.upperSelect0(h-1) - (h - 1)
	}
	hi := v.upperSelect0(h) - h
	low := i & v.lowMask()
	for lo < hi {
		mid := (lo + hi) / 2
		if v.lowerVal(mid) >= low {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func (v *sparseBitVector) lowerVal(k uint64) uint64 {
	if v.lower == nil {
		return 0
	}
	return v.lower.Get(k)
}

// Get reports whether position i is set.
func (v *sparseBitVector) Get(i uint64) bool {
	return v.Rank(i+1) > v.Rank(i)
}

// PredecessorRankCircular returns the rank of the largest set position
// strictly below i, wrapping to the last set bit when no such position
// exists. Requires m >= 1.
func (v *sparseBitVector) PredecessorRankCircular(i uint64) uint64 {
	c := v.Rank(i)
	if c == 0 {
		return v.m - 1
	}
	return c - 1
}

func (v *sparseBitVector) sizeBytes() uint64 {
	sz := 8*uint64(len(v.upper)) + 8*uint64(len(v.rankW)) + 25
	if v.lower != nil {
		sz += v.lower.sizeBytes()
	}
	return sz
}
