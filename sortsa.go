package brindex

import (
	"bytes"
	"sort"
)

// buildSuffixArraySorted is the comparison-sort fallback backend. O(n^2 log n)
// worst case, fine for small or low-repetition inputs; the induced-sorting
// backend in sais.go is the default.
func buildSuffixArraySorted(text []byte) []int64 {
	sa := make([]int64, len(text))
	for i := range sa {
		sa[i] = int64(i)
	}
	sort.Slice(sa, func(a, b int) bool {
		return bytes.Compare(text[sa[a]:], text[sa[b]:]) < 0
	})
	return sa
}
