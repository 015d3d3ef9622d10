package cycle

import (
	"errors"

	"cuckminer/siphash"
)

// Verification failures.
var (
	ErrProofSize    = errors.New("cycle: wrong proof size")
	ErrTooBig       = errors.New("cycle: edge index too big")
	ErrNotAscending = errors.New("cycle: edge indices not ascending")
	ErrBranch       = errors.New("cycle: branch in cycle")
	ErrDeadEnd      = errors.New("cycle: cycle dead ends")
	ErrShortCycle   = errors.New("cycle: cycle too short")
)

// Verify checks that proof is a valid cycle of exactly length edges in the
// graph of 2^edgeBits edges keyed by keys.
func Verify(keys *siphash.Keys, proof []uint32, edgeBits uint, length int) error {
	if len(proof) != length || length < 2 {
		return ErrProofSize
	}
	mask := siphash.NodeMask(edgeBits)
	limit := uint64(1) << edgeBits

	// ends[2n] is edge n's U endpoint, ends[2n+1] its V endpoint.
	ends := make([]uint32, 2*length)
	for n, idx := range proof {
		if uint64(idx) >= limit {
			return ErrTooBig
		}
		if n > 0 && idx <= proof[n-1] {
			return ErrNotAscending
		}
		ends[2*n], ends[2*n+1] = keys.Endpoints(idx, mask)
	}
	return walkEnds(ends)
}

// walkEnds follows the cycle from edge 0, crossing each vertex from an
// endpoint to its partner, and requires it to return after visiting every
// edge exactly once.
func walkEnds(ends []uint32) error {
	total := len(ends)
	steps, i := 0, 0
	for {
		j := i
		// Same-parity positions hold same-partition endpoints.
		for k := (i + 2) % total; k != i; k = (k + 2) % total {
			if ends[k]>>1 == ends[i]>>1 {
				if j != i {
					return ErrBranch
				}
				j = k
			}
		}
		if j == i || ends[j] == ends[i] {
			return ErrDeadEnd
		}
		i = j ^ 1
		steps++
		if i == 0 {
			break
		}
		if steps > total/2 {
			// Looping without returning to edge 0 means some endpoint
			// is shared by more than two edges.
			return ErrBranch
		}
	}
	if steps != total/2 {
		return ErrShortCycle
	}
	return nil
}
