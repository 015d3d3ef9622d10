// ════════════════════════════════════════════════════════════════════════════════════════════════
// EDGE ENDPOINT HASHING
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: SipHash-2-4 over a raw 4×64-bit state
//
// Description:
//   Every edge index i has endpoints U = H(2i) and V = H(2i+1), masked to the edge width.
//   H is SipHash-2-4 whose initial state is the attempt's keying vector itself, with the
//   single-word message absorbed as a block and no length padding.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package siphash

import (
	"math/bits"

	"golang.org/x/crypto/blake2b"

	"cuckminer/constants"
	"cuckminer/utils"
)

// Keys is the 4×64-bit keying vector of one attempt.
type Keys [constants.KeyWords]uint64

// Hash24 returns SipHash-2-4 of the single word nonce under k.
//
//go:nosplit
//go:inline
func (k *Keys) Hash24(nonce uint64) uint64 {
	v0, v1, v2, v3 := k[0], k[1], k[2], k[3]^nonce
	v0, v1, v2, v3 = round(v0, v1, v2, v3)
	v0, v1, v2, v3 = round(v0, v1, v2, v3)
	v0 ^= nonce
	v2 ^= 0xff
	v0, v1, v2, v3 = round(v0, v1, v2, v3)
	v0, v1, v2, v3 = round(v0, v1, v2, v3)
	v0, v1, v2, v3 = round(v0, v1, v2, v3)
	v0, v1, v2, v3 = round(v0, v1, v2, v3)
	return (v0 ^ v1) ^ (v2 ^ v3)
}

//go:nosplit
//go:inline
func round(v0, v1, v2, v3 uint64) (uint64, uint64, uint64, uint64) {
	v0 += v1
	v2 += v3
	v1 = bits.RotateLeft64(v1, 13)
	v3 = bits.RotateLeft64(v3, 16)
	v1 ^= v0
	v3 ^= v2
	v0 = bits.RotateLeft64(v0, 32)
	v2 += v1
	v0 += v3
	v1 = bits.RotateLeft64(v1, 17)
	v3 = bits.RotateLeft64(v3, 21)
	v1 ^= v2
	v3 ^= v0
	v2 = bits.RotateLeft64(v2, 32)
	return v0, v1, v2, v3
}

// Node returns endpoint side (0 = U, 1 = V) of edge index, masked by mask.
//
//go:nosplit
//go:inline
func (k *Keys) Node(index uint32, side uint32, mask uint32) uint32 {
	return uint32(k.Hash24(2*uint64(index)+uint64(side))) & mask
}

// Endpoints returns both endpoints of edge index.
//
//go:nosplit
//go:inline
func (k *Keys) Endpoints(index uint32, mask uint32) (u, v uint32) {
	return k.Node(index, 0, mask), k.Node(index, 1, mask)
}

// NodeMask returns the endpoint mask for a graph of 2^edgeBits edges.
func NodeMask(edgeBits uint) uint32 {
	if edgeBits >= 32 {
		return ^uint32(0)
	}
	return uint32(1)<<edgeBits - 1
}

// KeysFromHeader derives the keying vector from a block header and nonce:
// the nonce is written little-endian over the header's last 4 bytes (or
// appended when the header is shorter), the result is hashed with
// BLAKE2b-256, and the digest is read as four little-endian words.
func KeysFromHeader(header []byte, nonce uint32) Keys {
	buf := make([]byte, len(header), len(header)+4)
	copy(buf, header)
	if len(buf) >= 4 {
		utils.Store32(buf[len(buf)-4:], nonce)
	} else {
		buf = buf[:len(buf)+4]
		utils.Store32(buf[len(buf)-4:], nonce)
	}
	sum := blake2b.Sum256(buf)
	return Keys{
		utils.Load64(sum[0:]),
		utils.Load64(sum[8:]),
		utils.Load64(sum[16:]),
		utils.Load64(sum[24:]),
	}
}
