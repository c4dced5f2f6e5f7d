// Package brindex implements a bidirectional run-length compressed full-text
// index (br-index) over a single static byte text. After construction the
// index answers count and locate queries, grows the current pattern by
// prepending or appending characters while tracking the match ranges over
// both the text and its reverse, and drives approximate search with a
// bounded number of mismatches.
package brindex

import "sort"

// terminator is the sentinel appended to the remapped text. Byte values 0
// and 1 are reserved and must not appear in the input.
const terminator byte = 1

// Range is a closed interval of BWT rows. The empty result is represented
// in-band as an inverted pair.
type Range struct {
	First  uint64
	Second uint64
}

var emptyRange = Range{1, 0}

func (r Range) Empty() bool {
	return r.First > r.Second
}

func (r Range) Size() uint64 {
	if r.Empty() {
		return 0
	}
	return r.Second - r.First + 1
}

// Index is the immutable br-index. All query state lives in Pattern; one
// Index may be shared by any number of Patterns, each owned by one
// goroutine.
type Index struct {
	sigma    uint64
	remap    [256]byte
	remapInv [256]byte

	// f[c] counts BWT symbols strictly below c; f[256] = n.
	f [257]uint64

	bwt       *rleString
	bwtR      *rleString
	termPos   uint64
	termPosR  uint64
	lastSAVal uint64

	samplesFirst *intVector
	samplesLast  *intVector
	invOrder     *intVector

	first      *sparseBitVector
	firstToRun *intVector

	last      *sparseBitVector
	lastToRun *intVector

	samplesFirstR *intVector
	samplesLastR  *intVector
	invOrderR     *intVector

	// Exactly one of the two is present: plcp in the default variant,
	// invOrderFirstR in the PLCP-less variant (it re-anchors the forward
	// lexicographic rank after a branching right extension, which locate
	// then walks instead of consulting PLCP).
	plcp           *permutedLCP
	invOrderFirstR *intVector
}

// BwtSize returns n, the text length including the terminator.
func (x *Index) BwtSize() uint64 { return x.bwt.Len() }

// TextSize returns the length of the original text.
func (x *Index) TextSize() uint64 { return x.bwt.Len() - 1 }

// Sigma returns the effective alphabet size, terminator included.
func (x *Index) Sigma() uint64 { return x.sigma }

// HasPLCP reports whether this is the default variant with the stored PLCP.
func (x *Index) HasPLCP() bool { return x.plcp != nil }

// NumberOfRuns returns r, the number of equal-letter runs of the BWT.
func (x *Index) NumberOfRuns(reversed bool) uint64 {
	if reversed {
		return x.bwtR.NumRuns()
	}
	return x.bwt.NumRuns()
}

// TerminatorPosition returns the BWT row holding the sentinel.
func (x *Index) TerminatorPosition(reversed bool) uint64 {
	if reversed {
		return x.termPosR
	}
	return x.termPos
}

// BwtAt returns the BWT symbol of row i in the external alphabet. The
// terminator row keeps the internal sentinel value 1, matching GetBwt.
func (x *Index) BwtAt(i uint64, reversed bool) byte {
	s := x.bwt
	if reversed {
		s = x.bwtR
	}
	c := s.At(i)
	if c == terminator {
		return c
	}
	return x.remapInv[c]
}

// GetBwt materializes the BWT in the external alphabet. The terminator row
// keeps the internal sentinel value 1.
func (x *Index) GetBwt(reversed bool) []byte {
	s := x.bwt
	if reversed {
		s = x.bwtR
	}
	out := s.Bytes()
	for i, c := range out {
		if c != terminator {
			out[i] = x.remapInv[c]
		}
	}
	return out
}

// Alphabet returns the distinct external characters of the indexed text in
// ascending order.
func (x *Index) Alphabet() []byte {
	out := make([]byte, 0, x.sigma-1)
	for c := uint64(2); c <= x.sigma; c++ {
		out = append(out, x.remapInv[c])
	}
	return out
}

// FullRange returns the whole BWT row interval.
func (x *Index) FullRange() Range {
	return Range{0, x.BwtSize() - 1}
}

// GetCharRange returns the BWT range of the single-character pattern c
// (external alphabet).
func (x *Index) GetCharRange(c byte) Range {
	cc := x.remap[c]
	if x.f[cc] >= x.f[uint64(cc)+1] {
		return emptyRange
	}
	return Range{x.f[cc], x.f[uint64(cc)+1] - 1}
}

// lf maps the BWT range of P to the range of cP, for remapped c.
func (x *Index) lf(rn Range, c byte) Range {
	if x.f[c] >= x.f[uint64(c)+1] {
		return emptyRange
	}
	before := x.bwt.Rank(rn.First, c)
	inside := x.bwt.Rank(rn.Second+1, c) - before
	if inside == 0 {
		return emptyRange
	}
	lb := x.f[c] + before
	return Range{lb, lb + inside - 1}
}

// lfR is lf over the reverse BWT: range of P^R to range of (Pc)^R.
func (x *Index) lfR(rn Range, c byte) Range {
	if x.f[c] >= x.f[uint64(c)+1] {
		return emptyRange
	}
	before := x.bwtR.Rank(rn.First, c)
	inside := x.bwtR.Rank(rn.Second+1, c) - before
	if inside == 0 {
		return emptyRange
	}
	lb := x.f[c] + before
	return Range{lb, lb + inside - 1}
}

// lfRow is the single-row LF mapping: one step leftward in the text.
func (x *Index) lfRow(i uint64) uint64 {
	c := x.bwt.At(i)
	return x.f[c] + x.bwt.Rank(i, c)
}

func (x *Index) lfRowR(i uint64) uint64 {
	c := x.bwtR.At(i)
	return x.f[c] + x.bwtR.Rank(i, c)
}

// fAt returns the symbol of row i in the F column.
func (x *Index) fAt(i uint64) byte {
	c := sort.Search(257, func(k int) bool { return x.f[k] > i }) - 1
	return byte(c)
}

// flRow inverts lfRow (the Psi function).
func (x *Index) flRow(i uint64) uint64 {
	c := x.fAt(i)
	return x.bwt.Select(i-x.f[c], c)
}

func (x *Index) flRowR(i uint64) uint64 {
	c := x.fAt(i)
	return x.bwtR.Select(i-x.f[c], c)
}

// phi maps SA[i+1] to SA[i] on text positions. Must not be called on the
// position with SA rank 0 (which is n-1, the terminator's suffix).
func (x *Index) phi(i uint64) uint64 {
	n := x.BwtSize()
	if i == n-1 {
		panic("brindex: phi at SA rank 0")
	}
	jr := x.first.PredecessorRankCircular(i)
	q := x.first.Select(jr)
	// circular distance from the predecessor sample
	delta := i + 1
	if q < i {
		delta = i - q
	}
	k := x.firstToRun.Get(jr)
	if k == 0 {
		panic("brindex: phi at SA rank 0")
	}
	return (x.samplesLast.Get(k-1) + delta) % n
}

// phiInv maps SA[i] to SA[i+1]. Must not be called on lastSAVal.
func (x *Index) phiInv(i uint64) uint64 {
	n := x.BwtSize()
	if i == x.lastSAVal {
		panic("brindex: phiInv at SA rank n-1")
	}
	jr := x.last.PredecessorRankCircular(i)
	q := x.last.Select(jr)
	delta := i + 1
	if q < i {
		delta = i - q
	}
	k := x.lastToRun.Get(jr)
	if k+1 >= x.bwt.NumRuns() {
		panic("brindex: phiInv at SA rank n-1")
	}
	return (x.samplesFirst.Get(k+1) + delta) % n
}
