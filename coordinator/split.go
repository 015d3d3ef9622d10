package coordinator

// Range is a half-open slice [Lo, Hi) of the reconstructed edge array.
type Range struct {
	Lo, Hi int
}

// Len returns Hi-Lo.
func (r Range) Len() int { return r.Hi - r.Lo }

// SplitRange returns searching worker id's slice when total edges are shared
// by n searchers: the first takes percent% of all edges, each later one half
// of what remains, and the last one everything left.
//
//go:nosplit
func SplitRange(total, n, percent, id int) Range {
	lo, rem := 0, total
	share := int(int64(total) * int64(percent) / 100)
	for i := 0; ; i++ {
		if i == n-1 {
			share = rem
		}
		if i == id {
			return Range{Lo: lo, Hi: lo + share}
		}
		lo += share
		rem -= share
		share = rem / 2
	}
}

// Split returns every searcher's slice, in order.
func Split(total, n, percent int) []Range {
	out := make([]Range, n)
	for i := range out {
		out[i] = SplitRange(total, n, percent, i)
	}
	return out
}
