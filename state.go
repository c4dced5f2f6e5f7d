package brindex

// Pattern is the mutable query state for one in-progress search: the BWT
// ranges of the current pattern P over the text and its reverse, an anchor
// (p, j, d) with SA[p] = j - d the text start of one occurrence of P,
// the mirrored anchor (pR, jR, dR), and the pattern length. A Pattern must
// not be shared between goroutines; the underlying Index may.
type Pattern struct {
	idx *Index

	rng  Range
	rngR Range

	p, j, d    uint64
	pR, jR, dR uint64

	length uint64
}

func (x *Index) NewPattern() *Pattern {
	s := &Pattern{idx: x}
	s.Reset()
	return s
}

// Reset empties the current pattern. The anchor starts at SA rank 0, whose
// value is n-1 (the terminator's suffix).
func (s *Pattern) Reset() {
	s.rng = s.idx.FullRange()
	s.p = 0
	s.j = s.idx.BwtSize() - 1
	s.d = 0

	s.rngR = s.idx.FullRange()
	s.pR, s.jR, s.dR = 0, 0, 0

	s.length = 0
}

func (s *Pattern) PatternLength() uint64 { return s.length }

// Count returns the number of occurrences of the current pattern.
func (s *Pattern) Count() uint64 { return s.rng.Size() }

// CurrentRange returns the BWT or reverse-BWT range of the current pattern.
func (s *Pattern) CurrentRange(reversed bool) Range {
	if reversed {
		return s.rngR
	}
	return s.rng
}

// LeftExtension narrows the state from P to cP, for external character c.
// Returns the new forward range; on an empty result the state is left
// untouched.
func (s *Pattern) LeftExtension(c byte) Range {
	x := s.idx
	cc := x.remap[c]

	prev := s.rng
	next := x.lf(prev, cc)
	if next.Empty() {
		return emptyRange
	}
	s.rng = next

	// occurrences of aP for every a smaller than c, terminator included
	var acc uint64
	for a := byte(1); a < cc; a++ {
		acc += x.lf(prev, a).Size()
	}
	s.rngR = Range{s.rngR.First + acc, s.rngR.First + acc + next.Second - next.First}

	if prev.Size() != next.Size() {
		// some other character also precedes P: the old anchor may have
		// left the range, re-anchor on the last c of the previous range
		rnk := x.bwt.Rank(prev.Second+1, cc)
		pos := x.bwt.Select(rnk-1, cc)
		k := x.bwt.RunOf(pos)
		if x.bwt.At(prev.Second) == cc {
			// the run of the last c may continue past the range, its
			// closing sample is not usable; its opening row cannot
			// precede the range (the whole range would be c)
			s.j = x.samplesFirst.Get(k)
			s.p = x.f[cc] + x.bwt.Rank(x.bwt.runStart(k), cc)
		} else {
			s.j = x.samplesLast.Get(k)
			s.p = x.f[cc] + rnk - 1
		}
		s.d = 0
		s.pR = x.invOrder.Get(k)
		s.jR = x.BwtSize() - 2 - s.j
		s.dR = s.length
	} else {
		// only c precedes P, the anchor survives shifted by one
		s.p = x.f[cc] + x.bwt.Rank(s.p, cc)
		s.d++
	}
	s.length++
	return s.rng
}

// RightExtension narrows the state from P to Pc. Returns the new forward
// range; on an empty result the state is left untouched.
func (s *Pattern) RightExtension(c byte) Range {
	x := s.idx
	cc := x.remap[c]

	prevR := s.rngR
	nextR := x.lfR(prevR, cc)
	if nextR.Empty() {
		return emptyRange
	}
	s.rngR = nextR

	var acc uint64
	for a := byte(1); a < cc; a++ {
		acc += x.lfR(prevR, a).Size()
	}
	s.rng = Range{s.rng.First + acc, s.rng.First + acc + nextR.Second - nextR.First}

	if prevR.Size() != nextR.Size() {
		rnk := x.bwtR.Rank(prevR.Second+1, cc)
		posR := x.bwtR.Select(rnk-1, cc)
		k := x.bwtR.RunOf(posR)
		if x.bwtR.At(prevR.Second) == cc {
			s.jR = x.samplesFirstR.Get(k)
			s.pR = x.f[cc] + x.bwtR.Rank(x.bwtR.runStart(k), cc)
		} else {
			s.jR = x.samplesLastR.Get(k)
			s.pR = x.f[cc] + rnk - 1
		}
		s.dR = 0
		s.j = x.BwtSize() - 2 - s.jR
		s.d = s.length
		if x.invOrderFirstR != nil {
			// PLCP-less variant: recover the anchor's SA rank. The inverse
			// tables hold the rank of the suffix at j; LF steps it back to
			// the suffix at j - d, the occurrence locate starts from.
			row := x.invOrderR.Get(k)
			if x.bwtR.At(prevR.Second) == cc {
				row = x.invOrderFirstR.Get(k)
			}
			for t := uint64(0); t < s.length; t++ {
				row = x.lfRow(row)
			}
			s.p = row
		} else {
			s.p = x.invOrderR.Get(k)
		}
	} else {
		s.pR = x.f[cc] + x.bwtR.Rank(s.pR, cc)
		s.dR++
	}
	s.length++
	return s.rng
}

// Locate returns the text positions of all occurrences of the current
// pattern, in SA order. Requires at least one extension since Reset.
func (s *Pattern) Locate() []uint64 {
	x := s.idx
	if s.rng.Empty() {
		return nil
	}
	if s.j < s.d {
		panic("brindex: locate without an anchored occurrence")
	}
	sa := s.j - s.d
	if x.plcp == nil {
		return s.locateByRank(sa)
	}

	var front []uint64
	pos := sa
	for x.plcp.At(pos) >= s.length {
		pos = x.phi(pos)
		front = append(front, pos)
	}
	occ := make([]uint64, 0, len(front)+1)
	for i := len(front) - 1; i >= 0; i-- {
		occ = append(occ, front[i])
	}
	occ = append(occ, sa)
	pos = sa
	for pos != x.lastSAVal {
		pos = x.phiInv(pos)
		if x.plcp.At(pos) < s.length {
			break
		}
		occ = append(occ, pos)
	}
	return occ
}

// locateByRank is the PLCP-less walk: the anchor's exact SA rank p bounds
// the number of Phi and Phi^-1 steps on each side of the range.
func (s *Pattern) locateByRank(sa uint64) []uint64 {
	x := s.idx
	l := s.rng.First
	occ := make([]uint64, s.rng.Size())
	occ[s.p-l] = sa
	pos := sa
	for t := s.p; t > l; t-- {
		pos = x.phi(pos)
		occ[t-1-l] = pos
	}
	pos = sa
	for t := s.p; t < s.rng.Second; t++ {
		pos = x.phiInv(pos)
		occ[t+1-l] = pos
	}
	return occ
}
