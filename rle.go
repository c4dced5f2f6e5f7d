package brindex

import "sort"

// rleString is a run-length encoded byte string. Besides the run heads it
// keeps a sparse bitvector over run-end positions (for access and
// run_of_position) and, per character, the indices and cumulative lengths of
// that character's runs (for rank and select restricted to one character).
type rleString struct {
	n        uint64
	heads    []byte
	runEnds  *sparseBitVector
	charRuns [256]*intVector
	charLens [256]*sparseBitVector
}

func newRLEString(s []byte) *rleString {
	var heads []byte
	var lens []uint64
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && s[j] == s[i] {
			j++
		}
		heads = append(heads, s[i])
		lens = append(lens, uint64(j-i))
		i = j
	}
	return buildRLEString(uint64(len(s)), heads, lens)
}

func buildRLEString(n uint64, heads []byte, lens []uint64) *rleString {
	s := &rleString{n: n, heads: heads}

	ends := make([]uint64, len(heads))
	var acc uint64
	for k, l := range lens {
		acc += l
		ends[k] = acc - 1
	}
	s.runEnds = newSparseBitVector(n, ends)

	var runsOf [256]uint64
	for _, c := range heads {
		runsOf[c]++
	}
	runWidth := bitsFor(uint64(len(heads)))
	var idx, cum [256]uint64
	ones := make(map[byte][]uint64)
	for k, c := range heads {
		if s.charRuns[c] == nil {
			s.charRuns[c] = newIntVector(runsOf[c], runWidth)
		}
		s.charRuns[c].Set(idx[c], uint64(k))
		idx[c]++
		cum[c] += lens[k]
		ones[c] = append(ones[c], cum[c]-1)
	}
	for c, o := range ones {
		s.charLens[c] = newSparseBitVector(cum[c], o)
	}
	return s
}

func (s *rleString) Len() uint64     { return s.n }
func (s *rleString) NumRuns() uint64 { return uint64(len(s.heads)) }

// RunOf returns the index of the run containing position i.
func (s *rleString) RunOf(i uint64) uint64 {
	return s.runEnds.Rank(i)
}

func (s *rleString) runStart(k uint64) uint64 {
	if k == 0 {
		return 0
	}
	return s.runEnds.Select(k-1) + 1
}

func (s *rleString) At(i uint64) byte {
	return s.heads[s.RunOf(i)]
}

// Count returns the number of occurrences of c in the whole string.
func (s *rleString) Count(c byte) uint64 {
	if s.charLens[c] == nil {
		return 0
	}
	return s.charLens[c].Size()
}

// Rank returns the number of occurrences of c in [0, i). Domain 0 <= i <= n.
func (s *rleString) Rank(i uint64, c byte) uint64 {
	lens := s.charLens[c]
	if lens == nil {
		return 0
	}
	if i >= s.n {
		return lens.Size()
	}
	k := s.runEnds.Rank(i) // run containing i
	runs := s.charRuns[c]
	q := uint64(sort.Search(int(runs.Len()), func(x int) bool {
		return runs.Get(uint64(x)) >= k
	}))
	var before uint64
	if q > 0 {
		before = lens.Select(q-1) + 1
	}
	if s.heads[k] == c {
		before += i - s.runStart(k)
	}
	return before
}

// Select returns the position of the (k+1)-th occurrence of c.
func (s *rleString) Select(k uint64, c byte) uint64 {
	lens := s.charLens[c]
	if lens == nil || k >= lens.Size() {
		panic("brindex: select out of range")
	}
	t := lens.Rank(k) // index among c's runs
	off := k
	if t > 0 {
		off = k - (lens.Select(t-1) + 1)
	}
	return s.runStart(s.charRuns[c].Get(t)) + off
}

// Bytes materializes the decoded string.
func (s *rleString) Bytes() []byte {
	out := make([]byte, 0, s.n)
	for k, c := range s.heads {
		end := s.runEnds.Select(uint64(k))
		for len(out) <= int(end) {
			out = append(out, c)
		}
	}
	return out
}

func (s *rleString) runLengths() []uint64 {
	lens := make([]uint64, len(s.heads))
	for k := range s.heads {
		lens[k] = s.runEnds.Select(uint64(k)) + 1 - s.runStart(uint64(k))
	}
	return lens
}

func (s *rleString) sizeBytes() uint64 {
	sz := uint64(len(s.heads)) + s.runEnds.sizeBytes() + 16
	for c := 0; c < 256; c++ {
		if s.charRuns[c] != nil {
			sz += s.charRuns[c].sizeBytes()
		}
		if s.charLens[c] != nil {
			sz += s.charLens[c].sizeBytes()
		}
	}
	return sz
}
