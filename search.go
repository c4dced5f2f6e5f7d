package brindex

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Sample freezes the query state of one matched alignment. The mismatch
// driver collects Samples and hands them back for counting or locating.
type Sample struct {
	rng  Range
	rngR Range

	p, j, d    uint64
	pR, jR, dR uint64

	length uint64
}

// Occurrences returns the number of text positions this sample stands for.
func (s Sample) Occurrences() uint64 { return s.rng.Size() }

func (s *Pattern) snapshot() Sample {
	return Sample{
		rng: s.rng, rngR: s.rngR,
		p: s.p, j: s.j, d: s.d,
		pR: s.pR, jR: s.jR, dR: s.dR,
		length: s.length,
	}
}

func (s *Pattern) restore(smp Sample) {
	s.rng, s.rngR = smp.rng, smp.rngR
	s.p, s.j, s.d = smp.p, smp.j, smp.d
	s.pR, s.jR, s.dR = smp.pR, smp.jR, smp.dR
	s.length = smp.length
}

// SearchWithMismatch finds every alignment of pattern with at most allowed
// mismatched characters. The pattern is split into allowed+1 pieces; by
// pigeonhole, a matching alignment contains at least one exact piece. For
// each choice of exact piece the driver matches it with right extensions,
// then branches over the alphabet rightward and leftward, charging one unit
// of budget per mismatch. Pieces left of the exact one must each contain a
// mismatch, so every alignment is reported exactly once (for its leftmost
// exact piece). At least one character has to match: allowed is capped at
// len(pattern)-1.
func (x *Index) SearchWithMismatch(pattern []byte, allowed int) []Sample {
	m := len(pattern)
	if m == 0 {
		return nil
	}
	if allowed < 0 {
		allowed = 0
	}
	k := allowed
	if k > m-1 {
		k = m - 1
	}

	bounds := make([]int, k+2)
	for i := range bounds {
		bounds[i] = i * m / (k + 1)
	}

	d := &mismatchSearch{
		st:      x.NewPattern(),
		pattern: pattern,
		bounds:  bounds,
		alpha:   x.Alphabet(),
	}
	for i := 0; i <= k; i++ {
		d.st.Reset()
		ok := true
		for ptr := bounds[i]; ptr < bounds[i+1]; ptr++ {
			if d.st.RightExtension(pattern[ptr]).Empty() {
				ok = false
				break
			}
		}
		if ok {
			d.exact = i
			d.right(bounds[i+1], allowed)
		}
	}
	return d.out
}

type mismatchSearch struct {
	st      *Pattern
	pattern []byte
	bounds  []int
	alpha   []byte
	exact   int
	out     []Sample
}

// right extends through positions bounds[exact+1]..len(pattern)-1, then
// hands over to the left phase.
func (d *mismatchSearch) right(ptr, budget int) {
	if ptr == len(d.pattern) {
		if d.exact == 0 {
			d.out = append(d.out, d.st.snapshot())
			return
		}
		d.left(d.exact-1, d.bounds[d.exact]-1, budget, 0)
		return
	}
	for _, a := range d.alpha {
		cost := 0
		if a != d.pattern[ptr] {
			cost = 1
		}
		if cost > budget {
			continue
		}
		save := d.st.snapshot()
		if d.st.RightExtension(a).Empty() {
			continue
		}
		d.right(ptr+1, budget-cost)
		d.st.restore(save)
	}
}

// left walks piece pc from its last position down to its first, counting the
// mismatches inside the piece; a piece completed without one is pruned.
func (d *mismatchSearch) left(pc, ptr, budget, mism int) {
	for _, a := range d.alpha {
		cost := 0
		if a != d.pattern[ptr] {
			cost = 1
		}
		if cost > budget {
			continue
		}
		save := d.st.snapshot()
		if d.st.LeftExtension(a).Empty() {
			continue
		}
		switch {
		case ptr > d.bounds[pc]:
			d.left(pc, ptr-1, budget-cost, mism+cost)
		case mism+cost == 0:
			// exact piece left of the chosen one: this alignment is
			// already reported with a smaller exact index
		case pc == 0:
			d.out = append(d.out, d.st.snapshot())
		default:
			d.left(pc-1, d.bounds[pc]-1, budget-cost, 0)
		}
		d.st.restore(save)
	}
}

// CountSamples sums the occurrence counts of the collected samples.
func (x *Index) CountSamples(samples []Sample) uint64 {
	var tot uint64
	for _, s := range samples {
		tot += s.rng.Size()
	}
	return tot
}

// LocateSamples resolves every sample to text positions, deduplicated and
// sorted ascending.
func (x *Index) LocateSamples(samples []Sample) []uint64 {
	bm := roaring64.New()
	st := x.NewPattern()
	for _, smp := range samples {
		st.restore(smp)
		for _, o := range st.Locate() {
			bm.Add(o)
		}
	}
	return bm.ToArray()
}
