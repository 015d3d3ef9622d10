package utils

import (
	"os"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities
///////////////////////////////////////////////////////////////////////////////

// Itoa renders a non-negative or negative int into decimal without fmt.
//
//go:nosplit
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

///////////////////////////////////////////////////////////////////////////////
// Direct Writers - stderr/stdout without fmt
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr as-is. Cold paths only.
//
//go:nosplit
func PrintWarning(msg string) {
	_, _ = os.Stderr.Write(unsafe.Slice(unsafe.StringData(msg), len(msg)))
}

// PrintInfo writes msg to stdout as-is. Cold paths only.
//
//go:nosplit
func PrintInfo(msg string) {
	_, _ = os.Stdout.Write(unsafe.Slice(unsafe.StringData(msg), len(msg)))
}

///////////////////////////////////////////////////////////////////////////////
// Fast Loaders - Little-Endian Reads
///////////////////////////////////////////////////////////////////////////////

// Load32 reads a little-endian 32-bit word at b[0:4].
//
//go:nosplit
//go:inline
func Load32(b []byte) uint32 {
	_ = b[3] // bounds check hint
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Store32 writes v little-endian into b[0:4].
//
//go:nosplit
//go:inline
func Store32(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// Load64 reads a little-endian 64-bit word at b[0:8].
//
//go:nosplit
//go:inline
func Load64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

///////////////////////////////////////////////////////////////////////////////
// Sizing
///////////////////////////////////////////////////////////////////////////////

// NextPow2 returns the smallest power of two ≥ n (1 for n ≤ 1).
//
//go:nosplit
//go:inline
func NextPow2(n int) int {
	s := 1
	for s < n {
		s <<= 1
	}
	return s
}
