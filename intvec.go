package brindex

import "math/bits"

// bitsFor returns the number of bits needed to represent max, at least 1.
func bitsFor(max uint64) uint {
	w := uint(bits.Len64(max))
	if w == 0 {
		w = 1
	}
	return w
}

// intVector is a packed array of fixed-width integers. The width is chosen
// once at construction and every entry occupies exactly width bits.
type intVector struct {
	n     uint64
	width uint
	words []uint64
}

func newIntVector(n uint64, width uint) *intVector {
	if width == 0 || width > 64 {
		panic("brindex: intVector width out of range")
	}
	return &intVector{
		n:     n,
		width: width,
		words: make([]uint64, (n*uint64(width)+63)/64),
	}
}

func (v *intVector) mask() uint64 {
	if v.width == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << v.width) - 1
}

func (v *intVector) Len() uint64 { return v.n }

func (v *intVector) Get(i uint64) uint64 {
	off := i * uint64(v.width)
	w, sh := off>>6, uint(off&63)
	x := v.words[w] >> sh
	if sh+v.width > 64 {
		x |= v.words[w+1] << (64 - sh)
	}
	return x & v.mask()
}

func (v *intVector) Set(i, x uint64) {
	off := i * uint64(v.width)
	w, sh := off>>6, uint(off&63)
	m := v.mask()
	v.words[w] = v.words[w]&^(m<<sh) | (x&m)<<sh
	if sh+v.width > 64 {
		rem := sh + v.width - 64
		v.words[w+1] = v.words[w+1]&^(m>>(v.width-rem)) | (x&m)>>(v.width-rem)
	}
}

func (v *intVector) sizeBytes() uint64 {
	return 8*uint64(len(v.words)) + 17 // payload + length/width header
}
