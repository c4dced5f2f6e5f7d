package brindex

// buildInverseSA inverts a suffix array: isa[sa[i]] = i.
func buildInverseSA(sa []int64) []int64 {
	isa := make([]int64, len(sa))
	for i := range sa {
		isa[sa[i]] = int64(i)
	}
	return isa
}

// buildPLCP runs Kasai's algorithm in O(n) time. Walking the text left to
// right yields the LCP values permuted into text order, which is exactly the
// shape the index stores, so they are never rearranged into SA order.
// plcp[p] is the LCP of the suffix at p with its lexicographic predecessor.
func buildPLCP(text []byte, sa, isa []int64) []uint64 {
	n := len(text)
	plcp := make([]uint64, n)
	l := 0
	for i := 0; i < n; i++ {
		if isa[i] == 0 {
			l = 0
			continue
		}
		j := int(sa[isa[i]-1])
		for i+l < n && j+l < n && text[i+l] == text[j+l] {
			l++
		}
		plcp[i] = uint64(l)
		if l > 0 {
			l--
		}
	}
	return plcp
}
