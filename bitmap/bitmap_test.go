package bitmap

import (
	"testing"
)

func TestSetTestClear(t *testing.T) {
	b := New(200)
	if b.Words() != 4 {
		t.Fatalf("Words = %d, want 4", b.Words())
	}
	for _, i := range []uint64{0, 63, 64, 199} {
		b.Set(i)
		if !b.Test(i) {
			t.Fatalf("bit %d not set", i)
		}
	}
	if b.Count() != 4 {
		t.Fatalf("Count = %d, want 4", b.Count())
	}
	b.Clear(63)
	if b.Test(63) || b.Count() != 3 {
		t.Fatal("Clear(63) had no effect")
	}
	b.Reset()
	if b.Count() != 0 {
		t.Fatal("Reset left bits set")
	}
}

func TestCountRange(t *testing.T) {
	b := New(256)
	for i := uint64(0); i < 256; i += 3 {
		b.Set(i)
	}
	var sum uint64
	for w := 0; w < b.Words(); w++ {
		sum += b.CountRange(w, w+1)
	}
	if sum != b.Count() {
		t.Fatalf("per-word sum %d != Count %d", sum, b.Count())
	}
}

func TestForEachRangeAscending(t *testing.T) {
	b := New(192)
	want := []uint64{1, 5, 64, 100, 127, 128, 191}
	for _, i := range want {
		b.Set(i)
	}
	var got []uint64
	b.ForEachRange(0, b.Words(), func(i uint64) bool {
		got = append(got, i)
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	// Early stop.
	n := 0
	if b.ForEachRange(0, b.Words(), func(uint64) bool { n++; return n < 2 }) {
		t.Fatal("ForEachRange reported completion after fn returned false")
	}
	if n != 2 {
		t.Fatalf("fn called %d times, want 2", n)
	}
}

func TestViewSharesMemory(t *testing.T) {
	buf := make([]byte, 16)
	buf[0] = 0x01 // bit 0
	buf[9] = 0x80 // bit 79
	v := View(buf)
	if v.Len() != 128 || v.Words() != 2 {
		t.Fatalf("View: Len %d Words %d", v.Len(), v.Words())
	}
	if !v.Test(0) || !v.Test(79) || v.Count() != 2 {
		t.Fatal("View does not read the packed little-endian layout")
	}
	v.Set(8)
	if buf[1] != 0x01 {
		t.Fatal("View does not alias the buffer")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	b := New(128)
	b.Set(70)
	v := View(b.Bytes())
	if !v.Test(70) || v.Count() != 1 {
		t.Fatal("View(Bytes()) lost bits")
	}
}

func TestViewShortBuffer(t *testing.T) {
	if v := View(make([]byte, 4)); v.Words() != 0 {
		t.Fatalf("View of 4 bytes has %d words", v.Words())
	}
}

func TestViewRejectsPartialWord(t *testing.T) {
	for _, n := range []int{9, 15, 17, 130} {
		if v := View(make([]byte, n)); v.Words() != 0 || v.Len() != 0 {
			t.Fatalf("View of %d bytes: Words %d Len %d, want empty", n, v.Words(), v.Len())
		}
	}
}
