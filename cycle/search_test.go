// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧪 CYCLE SEARCH TEST SUITE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: cycle
//
// Test Coverage:
//   - Hand-built cycles of length 2, 4 and 42, with and without dead-end branches
//   - Cycles of the wrong length never reported
//   - Replay followed by search, and searcher reuse after Reset
//   - Every cycle found over hashed graphs passes Verify
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package cycle

import (
	"slices"
	"testing"

	"cuckminer/adjacency"
	"cuckminer/siphash"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func mustSearcher(t testing.TB, maxEdges, length int) *Searcher {
	t.Helper()
	s, err := New(maxEdges, length)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", maxEdges, length, err)
	}
	return s
}

// plantCycle builds a cycle of length edges. U vertices start at xBase, V
// vertices at yBase; edge k gets index index(k). Only the last edge closes it.
func plantCycle(length int, xBase, yBase uint32, index func(k int) uint32) []adjacency.Edge {
	half := uint32(length / 2)
	edges := make([]adjacency.Edge, 0, length)
	for j := uint32(0); j < half; j++ {
		edges = append(edges,
			adjacency.Edge{Index: index(int(2 * j)), U: 2*(xBase+j) + 1, V: 2 * (yBase + j)},
			adjacency.Edge{Index: index(int(2*j + 1)), U: 2 * (xBase + (j+1)%half), V: 2*(yBase+j) + 1},
		)
	}
	return edges
}

// feed adds edges in order and returns the position of the edge that closed
// a cycle, or -1.
func feed(s *Searcher, edges []adjacency.Edge) int {
	for i, e := range edges {
		if s.AddEdge(e) {
			return i
		}
	}
	return -1
}

// ============================================================================
// CONSTRUCTION
// ============================================================================

func TestNewRejectsOddLength(t *testing.T) {
	for _, l := range []int{0, 1, 3, 41} {
		if _, err := New(16, l); err != ErrLength {
			t.Errorf("New(16, %d) err = %v, want ErrLength", l, err)
		}
	}
}

// ============================================================================
// HAND-BUILT GRAPHS
// ============================================================================

func TestFourCycle(t *testing.T) {
	s := mustSearcher(t, 16, 4)
	edges := []adjacency.Edge{
		{Index: 0, U: 2, V: 10},
		{Index: 1, U: 3, V: 20},
		{Index: 2, U: 30, V: 21},
		{Index: 3, U: 31, V: 11},
	}
	if at := feed(s, edges); at != 3 {
		t.Fatalf("cycle closed at edge %d, want 3", at)
	}
	if got := s.Solution(); !slices.Equal(got, []uint32{0, 1, 2, 3}) {
		t.Fatalf("Solution = %v, want [0 1 2 3]", got)
	}
	if !s.Found() {
		t.Fatal("Found() false after a closed cycle")
	}
	if st := s.Stats(); st.Edges != 4 || st.Searches != 1 {
		t.Fatalf("Stats = %+v, want 4 edges 1 search", st)
	}
}

func TestTwoCycle(t *testing.T) {
	s := mustSearcher(t, 4, 2)
	edges := []adjacency.Edge{
		{Index: 0, U: 3, V: 4},
		{Index: 1, U: 2, V: 5},
	}
	if feed(s, edges) != 1 {
		t.Fatal("2-cycle not found")
	}
	if got := s.Solution(); !slices.Equal(got, []uint32{0, 1}) {
		t.Fatalf("Solution = %v, want [0 1]", got)
	}
}

func TestWrongLengthNotReported(t *testing.T) {
	six := plantCycle(6, 10, 50, func(k int) uint32 { return uint32(k) })
	for _, l := range []int{2, 4, 8} {
		s := mustSearcher(t, 16, l)
		if at := feed(s, six); at != -1 {
			t.Errorf("length %d: 6-cycle reported at edge %d", l, at)
		}
		if s.Found() {
			t.Errorf("length %d: Found() true", l)
		}
	}
	s := mustSearcher(t, 16, 6)
	if feed(s, six) != 5 {
		t.Fatal("6-cycle not found with length 6")
	}
}

func TestOpenPathNoSolution(t *testing.T) {
	s := mustSearcher(t, 16, 4)
	// The 4-cycle with its last edge attached at one end only.
	edges := []adjacency.Edge{
		{Index: 0, U: 2, V: 10},
		{Index: 1, U: 3, V: 20},
		{Index: 2, U: 30, V: 21},
		{Index: 3, U: 31, V: 13},
	}
	if at := feed(s, edges); at != -1 {
		t.Fatalf("open path reported a cycle at edge %d", at)
	}
	if n := s.Stats().Searches; n != 0 {
		t.Fatalf("%d searches started without both partners present", n)
	}
}

func TestPlantedFortyTwoCycle(t *testing.T) {
	const length = 42
	index := func(k int) uint32 { return uint32(1000 + 3*k) }
	cyc := plantCycle(length, 100, 500, index)

	// Interleave noise: every cycle V endpoint gets a dead-end sibling at its
	// partner, and unrelated edges pad the arena.
	var edges []adjacency.Edge
	noise := uint32(0)
	for k, e := range cyc {
		if k%2 == 0 {
			edges = append(edges, adjacency.Edge{Index: 5000 + noise, U: 2 * (2000 + noise), V: e.V ^ 1})
			noise++
		}
		edges = append(edges, adjacency.Edge{Index: 5000 + noise, U: 2 * (2000 + noise), V: 2 * (3000 + noise)})
		noise++
		edges = append(edges, e)
	}

	s := mustSearcher(t, len(edges), length)
	if at := feed(s, edges); at != len(edges)-1 {
		t.Fatalf("cycle closed at position %d, want %d", at, len(edges)-1)
	}
	want := make([]uint32, length)
	for k := range want {
		want[k] = index(k)
	}
	if got := s.Solution(); !slices.Equal(got, want) {
		t.Fatalf("Solution = %v, want %v", got, want)
	}
	if s.Stats().Searches < 2 {
		t.Fatalf("expected dead-end searches before closing, got %d", s.Stats().Searches)
	}
}

func TestReplayThenSearch(t *testing.T) {
	cyc := plantCycle(8, 7, 70, func(k int) uint32 { return uint32(10 * k) })
	s := mustSearcher(t, 16, 8)
	for _, e := range cyc[:7] {
		s.Replay(e)
	}
	if st := s.Stats(); st.Searches != 0 || st.Edges != 7 {
		t.Fatalf("Replay searched or miscounted: %+v", st)
	}
	if !s.AddEdge(cyc[7]) {
		t.Fatal("cycle not found after replay")
	}
}

func TestResetReuse(t *testing.T) {
	cyc := plantCycle(4, 1, 9, func(k int) uint32 { return uint32(k) })
	s := mustSearcher(t, 8, 4)
	if feed(s, cyc) != 3 {
		t.Fatal("first pass: cycle not found")
	}
	s.Reset()
	if s.Found() || s.Graph().Len() != 0 {
		t.Fatal("Reset kept state")
	}
	if feed(s, cyc[:3]) != -1 {
		t.Fatal("cycle found without its closing edge after Reset")
	}
	if !s.AddEdge(cyc[3]) {
		t.Fatal("second pass: cycle not found")
	}
}

// ============================================================================
// HASHED GRAPHS
// ============================================================================

func TestFoundCyclesVerify(t *testing.T) {
	const edgeBits = 12
	mask := siphash.NodeMask(edgeBits)
	n := 1 << edgeBits

	for _, length := range []int{2, 4} {
		s := mustSearcher(t, n, length)
		for nonce := uint32(0); nonce < 32; nonce++ {
			keys := siphash.KeysFromHeader(make([]byte, 32), nonce)
			s.Reset()
			for i := 0; i < n; i++ {
				u, v := keys.Endpoints(uint32(i), mask)
				if s.AddEdge(adjacency.Edge{Index: uint32(i), U: u, V: v}) {
					break
				}
			}
			if !s.Found() {
				continue
			}
			if err := Verify(&keys, s.Solution(), edgeBits, length); err != nil {
				t.Fatalf("length %d nonce %d: proof %v rejected: %v", length, nonce, s.Solution(), err)
			}
		}
	}
}

// ============================================================================
// BENCHMARKS
// ============================================================================

func BenchmarkAddEdgeHashed(b *testing.B) {
	const edgeBits = 16
	mask := siphash.NodeMask(edgeBits)
	keys := siphash.Keys{1, 2, 3, 4}
	edges := make([]adjacency.Edge, 1<<edgeBits)
	for i := range edges {
		u, v := keys.Endpoints(uint32(i), mask)
		edges[i] = adjacency.Edge{Index: uint32(i), U: u, V: v}
	}
	s := mustSearcher(b, len(edges), 42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Reset()
		feed(s, edges)
	}
}
