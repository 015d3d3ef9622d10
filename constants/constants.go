// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go - Global Miner Tunables
//
// Purpose:
//   - Defines the cycle length, edge space and capacity limits of the CPU search.
//   - Defines worker pool caps and the geometric work split of the search phase.
//
// Notes:
//   - Every capacity is a power of two so table and bitmap indexing stays a mask.
//   - Runtime overrides (tests, reduced graphs) live in package config.
//
// ⚠️ No runtime logic here - all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Puzzle Shape ──────────────────────────────

const (
	// CycleLength is the exact number of edges in a valid proof.
	CycleLength = 42

	// EdgeBits is the width of an edge index. The untrimmed graph has
	// 2^EdgeBits edges and every endpoint is masked to EdgeBits bits.
	EdgeBits = 32

	// KeyWords is the size of the SipHash keying vector (4×64-bit).
	KeyWords = 4
)

// ─────────────────────────── Trimmed Edge Capacity ─────────────────────────

const (
	// MaxEdges bounds the edges retained after trimming. Trimming a 2^32 graph
	// leaves a few hundred thousand edges; 2^21 keeps ample headroom.
	// Survivors beyond this are dropped with a diagnostic.
	MaxEdges = 1 << 21

	// EdgeRecordSize is the byte size of one (index, nodeU, nodeV) triple in
	// the pre-reconstructed edge array.
	EdgeRecordSize = 12

	// EdgeCountSize is the little-endian count header of the edge array.
	EdgeCountSize = 4
)

// ──────────────────────────── Worker Pool Caps ─────────────────────────────

const (
	// MaxThreads caps the persistent worker pool regardless of core count.
	MaxThreads = 64

	// SearchThreads caps how many workers run the cycle search itself.
	// Must also stay ≤ log2(MaxEdges) so the halving split never runs dry.
	SearchThreads = 4

	// FirstSplitPercent is the share of all edges taken by the first
	// searching worker. Later workers halve the remainder.
	FirstSplitPercent = 86
)

// ────────────────────────────── Word Geometry ─────────────────────────────

const (
	// WordBits is the width of one bitmap word.
	WordBits = 64

	// WordShift converts a bit index to a word index.
	WordShift = 6
)
