package brindex

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, text string) *Index {
	t.Helper()
	idx, err := NewBuilder([]byte(text)).Build()
	require.NoError(t, err)
	return idx
}

// leftExtend grows the pattern right to left, the plain backward search.
func leftExtend(st *Pattern, pattern string) Range {
	rng := st.CurrentRange(false)
	for i := len(pattern) - 1; i >= 0; i-- {
		rng = st.LeftExtension(pattern[i])
		if rng.Empty() {
			break
		}
	}
	return rng
}

func naiveOccurrences(text, pattern string) []uint64 {
	occ := []uint64{}
	for i := 0; i+len(pattern) <= len(text); i++ {
		if text[i:i+len(pattern)] == pattern {
			occ = append(occ, uint64(i))
		}
	}
	return occ
}

func sortedCopy(xs []uint64) []uint64 {
	out := append([]uint64{}, xs...)
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

func TestBuildErrors(t *testing.T) {
	_, err := NewBuilder(nil).Build()
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = NewBuilder([]byte("ab\x00cd")).Build()
	assert.ErrorIs(t, err, ErrReservedByte)

	_, err = NewBuilder([]byte("ab\x01cd")).Build()
	assert.ErrorIs(t, err, ErrReservedByte)

	// 254 distinct byte values exceed the remappable alphabet
	wide := make([]byte, 254)
	for i := range wide {
		wide[i] = byte(i + 2)
	}
	_, err = NewBuilder(wide).Build()
	assert.ErrorIs(t, err, ErrAlphabetOverflow)
}

func TestMississippiStepwise(t *testing.T) {
	idx := mustBuild(t, "mississippi")

	cr := idx.GetCharRange('i')
	assert.Equal(t, uint64(4), cr.Size())
	assert.True(t, idx.GetCharRange('z').Empty())

	st := idx.NewPattern()
	require.False(t, st.LeftExtension('i').Empty())
	assert.Equal(t, cr, st.CurrentRange(false))

	require.False(t, st.LeftExtension('s').Empty()) // "si"
	assert.Equal(t, uint64(2), st.Count())
	require.False(t, st.LeftExtension('s').Empty()) // "ssi"
	assert.Equal(t, uint64(2), st.Count())
	require.False(t, st.LeftExtension('i').Empty()) // "issi"
	assert.Equal(t, uint64(2), st.Count())
	assert.Equal(t, []uint64{1, 4}, sortedCopy(st.Locate()))
}

func TestMississippiIssi(t *testing.T) {
	idx := mustBuild(t, "mississippi")
	st := idx.NewPattern()
	require.False(t, leftExtend(st, "issi").Empty())
	assert.Equal(t, uint64(4), st.PatternLength())
	assert.Equal(t, uint64(2), st.Count())
	assert.Equal(t, []uint64{1, 4}, sortedCopy(st.Locate()))
}

func TestMixedExtensionsCommute(t *testing.T) {
	idx := mustBuild(t, "mississippi")
	pattern := "issi"

	ref := idx.NewPattern()
	require.False(t, leftExtend(ref, pattern).Empty())

	// all interleavings of left and right extensions spelling the pattern
	for mask := 0; mask < 1<<len(pattern); mask++ {
		lefts := 0
		for b := 0; b < len(pattern); b++ {
			if mask&(1<<b) != 0 {
				lefts++
			}
		}
		st := idx.NewPattern()
		a, z := lefts, lefts
		ok := true
		for b := 0; b < len(pattern) && ok; b++ {
			if mask&(1<<b) != 0 {
				a--
				ok = !st.LeftExtension(pattern[a]).Empty()
			} else {
				ok = !st.RightExtension(pattern[z]).Empty()
				z++
			}
		}
		require.True(t, ok, "mask %b", mask)
		assert.Equal(t, ref.CurrentRange(false), st.CurrentRange(false), "mask %b", mask)
		assert.Equal(t, uint64(2), st.Count(), "mask %b", mask)
		assert.Equal(t, []uint64{1, 4}, sortedCopy(st.Locate()), "mask %b", mask)
	}
}

func TestAbracadabra(t *testing.T) {
	idx := mustBuild(t, "abracadabra")
	st := idx.NewPattern()
	require.False(t, leftExtend(st, "abra").Empty())
	assert.Equal(t, uint64(2), st.Count())
	assert.Equal(t, []uint64{0, 7}, sortedCopy(st.Locate()))
}

func TestBananaLocateAndPhiCycle(t *testing.T) {
	text := "banana"
	idx := mustBuild(t, text)

	st := idx.NewPattern()
	require.False(t, leftExtend(st, "ana").Empty())
	assert.Equal(t, uint64(2), st.Count())
	assert.Equal(t, []uint64{1, 3}, sortedCopy(st.Locate()))

	// Phi steps back through the reference SA, Phi^-1 forward
	sa := buildSuffixArraySorted(terminated(text))
	n := len(sa)
	for i := 1; i < n; i++ {
		assert.Equal(t, uint64(sa[i-1]), idx.phi(uint64(sa[i])), "phi at SA[%d]", i)
	}
	for i := 0; i+1 < n; i++ {
		assert.Equal(t, uint64(sa[i+1]), idx.phiInv(uint64(sa[i])), "phiInv at SA[%d]", i)
	}
	assert.Equal(t, uint64(sa[n-1]), idx.lastSAVal)
}

func TestSingleRunText(t *testing.T) {
	idx := mustBuild(t, "aaaaaa")
	st := idx.NewPattern()
	require.False(t, leftExtend(st, "aa").Empty())
	assert.Equal(t, uint64(5), st.Count())
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, sortedCopy(st.Locate()))
}

func TestPatternEqualsText(t *testing.T) {
	for _, text := range []string{"mississippi", "banana", "ab"} {
		idx := mustBuild(t, text)
		st := idx.NewPattern()
		require.False(t, leftExtend(st, text).Empty())
		assert.Equal(t, uint64(1), st.Count())
		assert.Equal(t, []uint64{0}, st.Locate())
	}
}

func TestAbsentAndReservedPatternChars(t *testing.T) {
	idx := mustBuild(t, "mississippi")
	st := idx.NewPattern()

	// absent characters leave the state untouched
	before := *st
	assert.True(t, st.LeftExtension('z').Empty())
	assert.True(t, st.RightExtension('z').Empty())
	assert.Equal(t, before, *st)

	// reserved bytes remap to 0 and come back empty as well
	assert.True(t, st.LeftExtension(0).Empty())
	assert.True(t, st.LeftExtension(1).Empty())

	// the state is still usable afterwards
	require.False(t, leftExtend(st, "ssi").Empty())
	assert.Equal(t, uint64(2), st.Count())
}

func TestLFFLInverse(t *testing.T) {
	idx := mustBuild(t, "mississippi")
	n := idx.BwtSize()
	for i := uint64(0); i < n; i++ {
		assert.Equal(t, i, idx.flRow(idx.lfRow(i)), "forward row %d", i)
		assert.Equal(t, i, idx.lfRow(idx.flRow(i)), "forward row %d", i)
		assert.Equal(t, i, idx.flRowR(idx.lfRowR(i)), "reverse row %d", i)
		assert.Equal(t, i, idx.lfRowR(idx.flRowR(i)), "reverse row %d", i)
	}
}

func TestSamplesMatchReferenceSA(t *testing.T) {
	for _, text := range []string{"mississippi", "banana", "aaaaaa", "abracadabra"} {
		tt := terminated(text)
		sa := buildSuffixArraySorted(tt)
		n := uint64(len(tt))
		bwtRef := make([]byte, n)
		for i, v := range sa {
			if v > 0 {
				bwtRef[i] = tt[v-1]
			} else {
				bwtRef[i] = terminator
			}
		}
		val := func(i uint64) uint64 {
			return (uint64(sa[i]) + n - 1) % n
		}

		idx := mustBuild(t, text)
		require.Equal(t, bwtRef, idx.GetBwt(false), "text %q", text)

		run := uint64(0)
		for i := uint64(0); i < n; i++ {
			opens := i == 0 || bwtRef[i] != bwtRef[i-1]
			if opens {
				if i > 0 {
					run++
				}
				assert.Equal(t, val(i), idx.samplesFirst.Get(run), "first sample of run %d, text %q", run, text)
			}
			closes := i == n-1 || bwtRef[i+1] != bwtRef[i]
			if closes {
				assert.Equal(t, val(i), idx.samplesLast.Get(run), "last sample of run %d, text %q", run, text)
			}
		}
		assert.Equal(t, run+1, idx.NumberOfRuns(false))
	}
}

func TestTerminatorPosition(t *testing.T) {
	idx := mustBuild(t, "banana")
	assert.Equal(t, byte(1), idx.BwtAt(idx.TerminatorPosition(false), false))
	assert.Equal(t, byte(1), idx.BwtAt(idx.TerminatorPosition(true), true))
	assert.Equal(t, uint64(6), idx.TextSize())
	assert.Equal(t, uint64(7), idx.BwtSize())
	assert.Equal(t, []byte("abn"), idx.Alphabet())

	// row access and the materialized BWT agree on every row, sentinel
	// included
	for _, reversed := range []bool{false, true} {
		bwt := idx.GetBwt(reversed)
		for i, c := range bwt {
			assert.Equal(t, c, idx.BwtAt(uint64(i), reversed), "row %d reversed=%v", i, reversed)
		}
	}
}

func checkSameResults(t *testing.T, a, b *Index, text string, patterns []string) {
	t.Helper()
	for _, p := range patterns {
		sa, sb := a.NewPattern(), b.NewPattern()
		ra, rb := leftExtend(sa, p), leftExtend(sb, p)
		require.Equal(t, ra, rb, "range for %q", p)
		if ra.Empty() {
			continue
		}
		want := naiveOccurrences(text, p)
		assert.Equal(t, want, sortedCopy(sa.Locate()), "pattern %q", p)
		assert.Equal(t, want, sortedCopy(sb.Locate()), "pattern %q", p)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	text := "mississippi"
	idx := mustBuild(t, text)

	prefix := filepath.Join(t.TempDir(), "miss")
	require.NoError(t, idx.Save(prefix))

	loaded, err := Load(prefix+".brin", false)
	require.NoError(t, err)

	assert.Equal(t, idx.GetBwt(false), loaded.GetBwt(false))
	assert.Equal(t, idx.GetBwt(true), loaded.GetBwt(true))
	checkSameResults(t, idx, loaded, text, []string{"issi", "ssi", "i", "mississippi", "p", "sip"})

	// identical bytes when written again
	var first, second bytes.Buffer
	_, err = idx.WriteTo(&first)
	require.NoError(t, err)
	_, err = loaded.WriteTo(&second)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestLoadTruncated(t *testing.T) {
	idx := mustBuild(t, "banana")
	var buf bytes.Buffer
	_, err := idx.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadIndex(bytes.NewReader(buf.Bytes()[:buf.Len()/2]), false)
	assert.Error(t, err)
}

func TestLoadCorruptLengths(t *testing.T) {
	idx := mustBuild(t, "banana")
	var buf bytes.Buffer
	_, err := idx.WriteTo(&buf)
	require.NoError(t, err)

	// header scalars: sigma, remap, remapInv, termPos, termPosR,
	// lastSAVal, f[:256]; then the forward BWT section opens with n and
	// its run count
	header := 8 + 256 + 256 + 8 + 8 + 8 + 256*8

	// an absurd run count must come back as a corruption error, not an
	// allocation sized to it
	data := append([]byte{}, buf.Bytes()...)
	binary.LittleEndian.PutUint64(data[header+8:], 1<<62)
	_, err = ReadIndex(bytes.NewReader(data), false)
	assert.Error(t, err)

	// same for a bitvector claiming more set bits than its universe: the
	// run-boundary vector follows n, the run count and the run heads
	data = append([]byte{}, buf.Bytes()...)
	runs := int(idx.NumberOfRuns(false))
	binary.LittleEndian.PutUint64(data[header+16+runs+8:], 1<<62)
	_, err = ReadIndex(bytes.NewReader(data), false)
	assert.Error(t, err)
}

func TestNoPLCPVariant(t *testing.T) {
	for _, text := range []string{"mississippi", "banana", "aaaaaa", "abracadabra"} {
		full := mustBuild(t, text)
		small, err := NewBuilder([]byte(text)).SkipPLCP().Build()
		require.NoError(t, err)
		require.False(t, small.HasPLCP())

		checkSameResults(t, full, small, text, []string{"a", "an", "ana", "issi", "ab", text})

		// right extensions drive the rank re-anchoring path
		sf, ss := full.NewPattern(), small.NewPattern()
		for i := 0; i < len(text) && i < 3; i++ {
			rf, rs := sf.RightExtension(text[i]), ss.RightExtension(text[i])
			require.Equal(t, rf, rs)
			assert.Equal(t, sortedCopy(sf.Locate()), sortedCopy(ss.Locate()), "prefix %q", text[:i+1])
		}

		prefix := filepath.Join(t.TempDir(), "np")
		require.NoError(t, small.Save(prefix))
		loaded, err := Load(prefix+".brin", true)
		require.NoError(t, err)
		checkSameResults(t, small, loaded, text, []string{"ana", "issi", "aa"})
	}
}

func TestBackendsAgree(t *testing.T) {
	text := "abracadabra banana mississippi abracadabra"
	text = strings.ReplaceAll(text, " ", ".")
	fast, err := NewBuilder([]byte(text)).Build()
	require.NoError(t, err)
	slow, err := NewBuilder([]byte(text)).SAIS(false).Build()
	require.NoError(t, err)

	assert.Equal(t, fast.GetBwt(false), slow.GetBwt(false))
	checkSameResults(t, fast, slow, text, []string{"abra", "an", ".", "miss", "a"})
}

func TestRangesStayCoupled(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	alpha := "ab"
	for trial := 0; trial < 30; trial++ {
		n := 2 + rng.Intn(60)
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteByte(alpha[rng.Intn(len(alpha))])
		}
		text := sb.String()
		idx := mustBuild(t, text)

		st := idx.NewPattern()
		pattern := ""
		for step := 0; step < 8; step++ {
			c := alpha[rng.Intn(len(alpha))]
			var ext string
			if rng.Intn(2) == 0 {
				ext = string(c) + pattern
				if st.LeftExtension(c).Empty() {
					break
				}
			} else {
				ext = pattern + string(c)
				if st.RightExtension(c).Empty() {
					break
				}
			}
			pattern = ext

			require.Equal(t, st.CurrentRange(false).Size(), st.CurrentRange(true).Size())
			want := naiveOccurrences(text, pattern)
			require.Equal(t, uint64(len(want)), st.Count(), "text %q pattern %q", text, pattern)
			require.Equal(t, want, sortedCopy(st.Locate()), "text %q pattern %q", text, pattern)
		}
	}
}

func FuzzExtensions(f *testing.F) {
	f.Add([]byte("mississippi"), []byte("issi"))
	f.Add([]byte("banana"), []byte("ana"))
	f.Add([]byte("aaaaaa"), []byte("aa"))

	f.Fuzz(func(t *testing.T, data []byte, pat []byte) {
		if len(data) == 0 || len(data) > 300 || len(pat) == 0 || len(pat) > 20 {
			return
		}
		for _, c := range data {
			if c <= 1 {
				return
			}
		}
		for _, c := range pat {
			if c <= 1 {
				return
			}
		}
		idx, err := NewBuilder(data).Build()
		if err != nil {
			return
		}

		st := idx.NewPattern()
		text := string(data)
		for i := len(pat) - 1; i >= 0; i-- {
			suffix := string(pat[i:])
			want := naiveOccurrences(text, suffix)
			if st.LeftExtension(pat[i]).Empty() {
				if len(want) != 0 {
					t.Fatalf("lost pattern %q with %d occurrences", suffix, len(want))
				}
				return
			}
			if st.Count() != uint64(len(want)) {
				t.Fatalf("pattern %q: count %d, want %d", suffix, st.Count(), len(want))
			}
			got := sortedCopy(st.Locate())
			for k, o := range want {
				if got[k] != o {
					t.Fatalf("pattern %q: locate %v, want %v", suffix, got, want)
				}
			}
		}
	})
}
