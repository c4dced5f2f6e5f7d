package brindex

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// The index persists as a single little-endian stream: header scalars, the
// two run-length BWTs, the sample and permutation tables, and finally either
// the PLCP encoding or, in the PLCP-less variant, the extra inverse table.
// Every compact structure prefixes the metadata needed to round-trip itself.
// The file carries no magic bytes; the variant is chosen by the caller at
// load time, like the CLI's --nplcp flag.

type binWriter struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func (b *binWriter) raw(p []byte) {
	if b.err != nil {
		return
	}
	k, err := b.w.Write(p)
	b.n += int64(k)
	b.err = err
}

func (b *binWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(b.buf[:], v)
	b.raw(b.buf[:])
}

func (b *binWriter) u64s(vs []uint64) {
	for _, v := range vs {
		b.u64(v)
	}
}

type binReader struct {
	r   io.Reader
	err error
	buf [8]byte
}

func (b *binReader) raw(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = io.ReadFull(b.r, p)
}

func (b *binReader) u64() uint64 {
	b.raw(b.buf[:])
	if b.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b.buf[:])
}

// readChunk bounds single allocations in the length-prefixed readers: a
// corrupt length field hits an io error as soon as the stream runs dry
// instead of sizing a buffer to the bogus count up front.
const readChunk = 1 << 16

func (b *binReader) bytesN(n uint64) []byte {
	var out []byte
	for n > 0 {
		k := n
		if k > readChunk {
			k = readChunk
		}
		chunk := make([]byte, k)
		b.raw(chunk)
		if b.err != nil {
			return nil
		}
		out = append(out, chunk...)
		n -= k
	}
	return out
}

func (b *binReader) u64sN(n uint64) []uint64 {
	var out []uint64
	for i := uint64(0); i < n; i++ {
		v := b.u64()
		if b.err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (v *intVector) writeTo(b *binWriter) {
	b.u64(v.n)
	b.u64(uint64(v.width))
	b.u64s(v.words)
}

func readIntVector(b *binReader) *intVector {
	n := b.u64()
	width := b.u64()
	if b.err == nil && (width == 0 || width > 64) {
		b.err = errors.Errorf("corrupt packed vector width %d", width)
	}
	if b.err != nil {
		return nil
	}
	words := b.u64sN((n*width + 63) / 64)
	if b.err != nil {
		return nil
	}
	return &intVector{n: n, width: uint(width), words: words}
}

func (v *sparseBitVector) writeTo(b *binWriter) {
	b.u64(v.n)
	b.u64(v.m)
	b.u64(uint64(v.lowBits))
	if v.lower != nil {
		b.u64s(v.lower.words)
	}
	b.u64s(v.upper)
}

func readSparseBitVector(b *binReader) *sparseBitVector {
	n := b.u64()
	m := b.u64()
	lowBits := b.u64()
	if b.err == nil && (lowBits > 63 || m > n) {
		b.err = errors.Errorf("corrupt sparse bitvector header (n=%d m=%d low width %d)", n, m, lowBits)
	}
	if b.err != nil {
		return nil
	}
	v := &sparseBitVector{n: n, m: m, lowBits: uint(lowBits)}
	if v.lowBits > 0 {
		words := b.u64sN((m*lowBits + 63) / 64)
		if b.err != nil {
			return nil
		}
		v.lower = &intVector{n: m, width: v.lowBits, words: words}
	}
	upperBits := m + (n >> v.lowBits) + 1
	v.upper = b.u64sN((upperBits + 63) / 64)
	if b.err != nil {
		return nil
	}
	v.indexUpper()
	return v
}

func (s *rleString) writeTo(b *binWriter) {
	b.u64(s.n)
	b.u64(uint64(len(s.heads)))
	b.raw(s.heads)
	s.runEnds.writeTo(b)
}

func readRLEString(b *binReader) *rleString {
	n := b.u64()
	r := b.u64()
	if b.err == nil && r > n {
		b.err = errors.Errorf("corrupt run-length string header (n=%d runs=%d)", n, r)
	}
	if b.err != nil {
		return nil
	}
	heads := b.bytesN(r)
	runEnds := readSparseBitVector(b)
	if b.err == nil && runEnds.NumOnes() != r {
		b.err = errors.New("corrupt run-length string: run count mismatch")
	}
	if b.err != nil {
		return nil
	}
	lens := make([]uint64, r)
	var prev uint64
	for k := uint64(0); k < r; k++ {
		end := runEnds.Select(k)
		lens[k] = end + 1 - prev
		prev = end + 1
	}
	return buildRLEString(n, heads, lens)
}

func (p *permutedLCP) writeTo(b *binWriter) {
	b.u64(p.n)
	p.bv.writeTo(b)
}

func readPermutedLCP(b *binReader) *permutedLCP {
	n := b.u64()
	bv := readSparseBitVector(b)
	if b.err != nil {
		return nil
	}
	return &permutedLCP{n: n, bv: bv}
}

// WriteTo serializes the index. Implements io.WriterTo.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	b := &binWriter{w: w}

	b.u64(x.sigma)
	b.raw(x.remap[:])
	b.raw(x.remapInv[:])
	b.u64(x.termPos)
	b.u64(x.termPosR)
	b.u64(x.lastSAVal)
	b.u64s(x.f[:256])

	x.bwt.writeTo(b)
	x.bwtR.writeTo(b)

	x.samplesFirst.writeTo(b)
	x.samplesLast.writeTo(b)
	x.invOrder.writeTo(b)

	x.first.writeTo(b)
	x.firstToRun.writeTo(b)

	x.last.writeTo(b)
	x.lastToRun.writeTo(b)

	x.samplesFirstR.writeTo(b)
	x.samplesLastR.writeTo(b)
	x.invOrderR.writeTo(b)

	if x.plcp != nil {
		x.plcp.writeTo(b)
	} else {
		x.invOrderFirstR.writeTo(b)
	}

	return b.n, errors.Wrap(b.err, "brindex: serializing index")
}

// ReadIndex deserializes an index written by WriteTo. The caller states
// which variant the stream holds: noPLCP must match the SkipPLCP choice the
// index was built with.
func ReadIndex(r io.Reader, noPLCP bool) (*Index, error) {
	b := &binReader{r: r}
	x := &Index{}

	x.sigma = b.u64()
	b.raw(x.remap[:])
	b.raw(x.remapInv[:])
	x.termPos = b.u64()
	x.termPosR = b.u64()
	x.lastSAVal = b.u64()
	for i := 0; i < 256; i++ {
		x.f[i] = b.u64()
	}

	x.bwt = readRLEString(b)
	x.bwtR = readRLEString(b)
	if b.err == nil {
		x.f[256] = x.bwt.Len()
	}

	x.samplesFirst = readIntVector(b)
	x.samplesLast = readIntVector(b)
	x.invOrder = readIntVector(b)

	x.first = readSparseBitVector(b)
	x.firstToRun = readIntVector(b)

	x.last = readSparseBitVector(b)
	x.lastToRun = readIntVector(b)

	x.samplesFirstR = readIntVector(b)
	x.samplesLastR = readIntVector(b)
	x.invOrderR = readIntVector(b)

	if noPLCP {
		x.invOrderFirstR = readIntVector(b)
	} else {
		x.plcp = readPermutedLCP(b)
	}

	if b.err != nil {
		return nil, errors.Wrap(b.err, "brindex: loading index")
	}
	return x, nil
}

// Save writes the index to pathPrefix + ".brin".
func (x *Index) Save(pathPrefix string) error {
	f, err := os.Create(pathPrefix + ".brin")
	if err != nil {
		return errors.Wrap(err, "brindex: creating index file")
	}
	w := bufio.NewWriter(f)
	if _, err := x.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "brindex: writing index file")
	}
	return errors.Wrap(f.Close(), "brindex: closing index file")
}

// Load reads an index file. noPLCP selects the PLCP-less layout.
func Load(path string, noPLCP bool) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "brindex: opening index file")
	}
	defer f.Close()
	return ReadIndex(bufio.NewReader(f), noPLCP)
}
