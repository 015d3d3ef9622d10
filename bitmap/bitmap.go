// ════════════════════════════════════════════════════════════════════════════════════════════════
// EDGE BITMAP
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Surviving-Edge Bit Array
//
// Description:
//   One bit per possible edge index; bit set means the edge survived trimming. Words are
//   64-bit little-endian so a trimmer's packed byte buffer can be viewed in place.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package bitmap

import (
	"math/bits"
	"unsafe"

	"cuckminer/constants"
)

// Bitmap is a fixed-size packed bit array.
type Bitmap struct {
	words []uint64
	n     uint64 // bit count
}

// New allocates a zeroed bitmap of n bits, rounded up to whole words.
func New(n uint64) Bitmap {
	return Bitmap{
		words: make([]uint64, (n+constants.WordBits-1)>>constants.WordShift),
		n:     n,
	}
}

// View reinterprets a trimmer's packed buffer as a bitmap without copying.
// A buffer that is not a whole number of words yields an empty bitmap. The
// buffer must stay alive and unchanged while the view is in use. Assumes a
// little-endian host, as the buffer does.
//
//go:nocheckptr
func View(buf []byte) Bitmap {
	if len(buf) < 8 || len(buf)&7 != 0 {
		return Bitmap{}
	}
	nw := len(buf) >> 3
	return Bitmap{
		words: unsafe.Slice((*uint64)(unsafe.Pointer(&buf[0])), nw),
		n:     uint64(nw) << constants.WordShift,
	}
}

// Bytes exposes the packed little-endian byte form of the bitmap.
func (b Bitmap) Bytes() []byte {
	if len(b.words) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.words[0])), len(b.words)<<3)
}

// Len returns the number of addressable bits.
//
//go:nosplit
//go:inline
func (b Bitmap) Len() uint64 { return b.n }

// Words returns the number of 64-bit words.
//
//go:nosplit
//go:inline
func (b Bitmap) Words() int { return len(b.words) }

// Word returns the i-th 64-bit word; bit j of word i is edge 64i+j.
//
//go:nosplit
//go:inline
func (b Bitmap) Word(i int) uint64 { return b.words[i] }

//go:nosplit
//go:inline
func (b Bitmap) Set(i uint64) { b.words[i>>constants.WordShift] |= 1 << (i & 63) }

//go:nosplit
//go:inline
func (b Bitmap) Clear(i uint64) { b.words[i>>constants.WordShift] &^= 1 << (i & 63) }

//go:nosplit
//go:inline
func (b Bitmap) Test(i uint64) bool { return b.words[i>>constants.WordShift]&(1<<(i&63)) != 0 }

// Reset zeroes every word.
func (b Bitmap) Reset() {
	clear(b.words)
}

// Count returns the total number of set bits.
func (b Bitmap) Count() uint64 {
	return b.CountRange(0, len(b.words))
}

// CountRange returns the number of set bits in words [lo, hi).
//
//go:nosplit
func (b Bitmap) CountRange(lo, hi int) uint64 {
	var c int
	for _, w := range b.words[lo:hi] {
		c += bits.OnesCount64(w)
	}
	return uint64(c)
}

// ForEachRange calls fn with every set bit index in words [lo, hi), ascending.
// Stops early and returns false when fn returns false.
func (b Bitmap) ForEachRange(lo, hi int, fn func(idx uint64) bool) bool {
	for wi := lo; wi < hi; wi++ {
		w := b.words[wi]
		base := uint64(wi) << constants.WordShift
		for w != 0 {
			if !fn(base + uint64(bits.TrailingZeros64(w))) {
				return false
			}
			w &= w - 1
		}
	}
	return true
}
