package brindex

// permutedLCP gives random access to PLCP values by text position. Since
// plcp[p+1] >= plcp[p] - 1, the sequence {plcp[p] + 2p} is strictly
// increasing and below 2n, so it fits a single Elias-Fano vector (Sadakane's
// encoding).
type permutedLCP struct {
	n  uint64
	bv *sparseBitVector
}

func newPermutedLCP(plcp []uint64) *permutedLCP {
	n := uint64(len(plcp))
	ones := make([]uint64, n)
	for p, v := range plcp {
		ones[p] = v + 2*uint64(p)
	}
	return &permutedLCP{n: n, bv: newSparseBitVector(2*n, ones)}
}

func (p *permutedLCP) At(i uint64) uint64 {
	return p.bv.Select(i) - 2*i
}

func (p *permutedLCP) sizeBytes() uint64 {
	return p.bv.sizeBytes() + 8
}
