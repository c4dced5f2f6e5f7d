package brindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// naivePLCP compares suffixes character by character.
func naivePLCP(text []byte, sa []int64) []uint64 {
	isa := buildInverseSA(sa)
	out := make([]uint64, len(text))
	for p := range text {
		r := isa[p]
		if r == 0 {
			continue
		}
		q := int(sa[r-1])
		l := 0
		for p+l < len(text) && q+l < len(text) && text[p+l] == text[q+l] {
			l++
		}
		out[p] = uint64(l)
	}
	return out
}

func terminated(s string) []byte {
	return append([]byte(s), terminator)
}

func TestBuildInverseSA(t *testing.T) {
	text := terminated("mississippi")
	sa := buildSuffixArraySorted(text)
	isa := buildInverseSA(sa)
	require.Len(t, isa, len(sa))
	for i, v := range sa {
		require.Equal(t, int64(i), isa[v], "rank of suffix %d", v)
	}
}

func TestBuildPLCP(t *testing.T) {
	for _, s := range []string{"banana", "mississippi", "aaaaaa", "abracadabra", "x"} {
		text := terminated(s)
		sa := buildSuffixArraySorted(text)
		got := buildPLCP(text, sa, buildInverseSA(sa))
		require.Equal(t, naivePLCP(text, sa), got, "text %q", s)
	}
}

func TestPermutedLCPAccess(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	alpha := []byte("ab")
	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(300)
		s := make([]byte, n)
		for i := range s {
			s[i] = alpha[rng.Intn(len(alpha))]
		}
		text := append(s, terminator)
		sa := buildSuffixArraySorted(text)
		plcp := buildPLCP(text, sa, buildInverseSA(sa))

		enc := newPermutedLCP(plcp)
		for p, want := range plcp {
			require.Equal(t, want, enc.At(uint64(p)))
		}
	}
}
