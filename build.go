package brindex

import (
	"errors"
	"sort"

	"go.uber.org/zap"
)

var (
	ErrEmptyText        = errors.New("brindex: input text is empty")
	ErrReservedByte     = errors.New("brindex: input text contains reserved byte 0 or 1")
	ErrAlphabetOverflow = errors.New("brindex: alphabet cannot be remapped (overflow)")
)

type Builder struct {
	text     []byte
	sais     bool
	skipPLCP bool
	log      *zap.Logger
}

func NewBuilder(text []byte) *Builder {
	return &Builder{
		text: text,
		sais: true,
		log:  zap.NewNop(),
	}
}

// SAIS selects the suffix array backend: induced sorting when true (the
// default), plain comparison sort otherwise.
func (b *Builder) SAIS(use bool) *Builder {
	b.sais = use
	return b
}

// SkipPLCP builds the PLCP-less variant. Saves the ~2n-bit PLCP encoding;
// locate instead walks Phi/Phi^-1 a number of steps derived from the
// anchor's exact SA rank, which costs one extra packed table of one entry
// per reverse BWT run.
// Trade-off: locate is slower on large ranges, the index is smaller.
func (b *Builder) SkipPLCP() *Builder {
	b.skipPLCP = true
	return b
}

// Logger sets the build progress logger. Defaults to a nop logger.
func (b *Builder) Logger(l *zap.Logger) *Builder {
	b.log = l
	return b
}

// bwtScan is the outcome of one pass over a suffix array: the BWT string,
// the SA samples at every run opening and closing (in run order, already
// shifted to the text position of the BWT symbol), and the terminator row.
type bwtScan struct {
	bwt       []byte
	firstVals []uint64
	lastVals  []uint64
	termPos   uint64
}

func scanBWT(t []byte, sa []int64) bwtScan {
	n := uint64(len(t))
	val := func(i uint64) uint64 {
		if sa[i] > 0 {
			return uint64(sa[i]) - 1
		}
		return n - 1
	}

	sc := bwtScan{bwt: make([]byte, n)}
	for i := uint64(0); i < n; i++ {
		if sa[i] > 0 {
			sc.bwt[i] = t[sa[i]-1]
		} else {
			sc.bwt[i] = terminator
			sc.termPos = i
		}
		if i == 0 {
			// run 0 always opens at the first row
			sc.firstVals = append(sc.firstVals, val(0))
			continue
		}
		if sc.bwt[i] != sc.bwt[i-1] {
			sc.lastVals = append(sc.lastVals, val(i-1))
			sc.firstVals = append(sc.firstVals, val(i))
		}
	}
	// the final row always closes the last run
	sc.lastVals = append(sc.lastVals, val(n-1))
	return sc
}

func (b *Builder) suffixArray(t []byte) []int64 {
	if b.sais {
		return buildSuffixArray(t)
	}
	return buildSuffixArraySorted(t)
}

func (b *Builder) Build() (*Index, error) {
	if len(b.text) == 0 {
		return nil, ErrEmptyText
	}

	x := &Index{}

	b.log.Info("remapping alphabet", zap.Int("text_length", len(b.text)))

	var freq [256]uint64
	x.sigma = 1
	for _, c := range b.text {
		if c <= 1 {
			return nil, ErrReservedByte
		}
		if freq[c] == 0 {
			x.sigma++
			if x.sigma >= 255 {
				return nil, ErrAlphabetOverflow
			}
		}
		freq[c]++
	}
	next := terminator + 1
	for c := 2; c < 256; c++ {
		if freq[c] != 0 {
			x.remap[c] = next
			x.remapInv[next] = byte(c)
			next++
		}
	}

	n := uint64(len(b.text) + 1)

	b.log.Info("building suffix arrays and run samples",
		zap.Bool("sais", b.sais), zap.Bool("plcp", !b.skipPLCP))

	t := make([]byte, n)
	for i, c := range b.text {
		t[i] = x.remap[c]
	}
	t[n-1] = terminator
	sa := b.suffixArray(t)
	isa := buildInverseSA(sa)
	x.lastSAVal = uint64(sa[n-1])
	fw := scanBWT(t, sa)

	tR := make([]byte, n)
	for i := range b.text {
		tR[i] = x.remap[b.text[len(b.text)-1-i]]
	}
	tR[n-1] = terminator
	saR := b.suffixArray(tR)
	isaR := buildInverseSA(saR)
	rv := scanBWT(tR, saR)

	if !b.skipPLCP {
		x.plcp = newPermutedLCP(buildPLCP(t, sa, isa))
	}

	b.log.Info("run-length encoding")

	x.bwt = newRLEString(fw.bwt)
	x.bwtR = newRLEString(rv.bwt)
	x.termPos = fw.termPos
	x.termPosR = rv.termPos

	var cnt [256]uint64
	for _, c := range fw.bwt {
		cnt[c]++
	}
	for c := 1; c <= 256; c++ {
		x.f[c] = x.f[c-1] + cnt[c-1]
	}

	r := x.bwt.NumRuns()
	rR := x.bwtR.NumRuns()

	b.log.Info("building predecessor structures",
		zap.Uint64("n", n), zap.Uint64("runs", r), zap.Uint64("runs_reversed", rR))

	logN := bitsFor(n)
	x.samplesFirst = packValues(fw.firstVals, logN)
	x.samplesLast = packValues(fw.lastVals, logN)
	x.samplesFirstR = packValues(rv.firstVals, logN)
	x.samplesLastR = packValues(rv.lastVals, logN)

	x.first, x.firstToRun = buildPredecessor(n, r, fw.firstVals)
	x.last, x.lastToRun = buildPredecessor(n, r, fw.lastVals)

	x.invOrder = invertSamples(n, fw.lastVals, isaR)
	x.invOrderR = invertSamples(n, rv.lastVals, isa)
	if b.skipPLCP {
		x.invOrderFirstR = invertSamples(n, rv.firstVals, isa)
	}

	return x, nil
}

func packValues(vals []uint64, width uint) *intVector {
	v := newIntVector(uint64(len(vals)), width)
	for i, val := range vals {
		v.Set(uint64(i), val)
	}
	return v
}

// buildPredecessor sorts the per-run samples by text position into a sparse
// bitvector, with a packed permutation mapping each set bit back to its run.
func buildPredecessor(n, r uint64, vals []uint64) (*sparseBitVector, *intVector) {
	type posRun struct{ pos, run uint64 }
	sorted := make([]posRun, len(vals))
	for k, v := range vals {
		sorted[k] = posRun{v, uint64(k)}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].pos < sorted[b].pos })

	ones := make([]uint64, len(sorted))
	toRun := newIntVector(r, bitsFor(r))
	for i, pr := range sorted {
		ones[i] = pr.pos
		toRun.Set(uint64(i), pr.run)
	}
	return newSparseBitVector(n, ones), toRun
}

// invertSamples maps each run's sample j to the opposite index's
// lexicographic rank of the mirrored position n-2-j. The run whose sample is
// n-1 (the terminator's row) has no mirror and stores 0; extensions never
// read it.
func invertSamples(n uint64, vals []uint64, isaOpp []int64) *intVector {
	v := newIntVector(uint64(len(vals)), bitsFor(n))
	for k, j := range vals {
		if j <= n-2 {
			v.Set(uint64(k), uint64(isaOpp[n-2-j]))
		}
	}
	return v
}
