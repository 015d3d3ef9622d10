// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧪 ADJACENCY ARENA TEST SUITE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: adjacency
//
// Test Coverage:
//   - Link layout: slot numbering, sibling and side of a link
//   - Chains newest first, partition membership
//   - Seeded random edge lists checked chain by chain against a map-built reference
//   - Reset and reuse
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package adjacency

import (
	"math/rand/v2"
	"slices"
	"testing"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func mustGraph(t *testing.T, n int) *Graph {
	t.Helper()
	g, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	return g
}

// chain walks every link of (side, node), newest first.
func chain(g *Graph, side int, node uint32) []uint32 {
	var edges []uint32
	for l := g.Head(side, node); l != 0; l = g.Prev(l) {
		edges = append(edges, g.Edge(l))
	}
	return edges
}

// ============================================================================
// UNIT TESTS
// ============================================================================

func TestLinkLayout(t *testing.T) {
	g := mustGraph(t, 4)
	u0, v0 := g.Add(Edge{Index: 7, U: 2, V: 10})
	u1, v1 := g.Add(Edge{Index: 9, U: 4, V: 12})
	if u0 != 2 || v0 != 3 || u1 != 4 || v1 != 5 {
		t.Fatalf("links = %d,%d %d,%d; want 2,3 4,5", u0, v0, u1, v1)
	}
	if Other(u1) != v1 || Other(v1) != u1 {
		t.Fatal("Other is not the sibling link")
	}
	if Side(u1) != U || Side(v1) != V {
		t.Fatal("Side does not follow link parity")
	}
	if g.Node(v0) != 10 || g.Edge(v0) != 7 {
		t.Fatalf("link %d: node %d edge %d", v0, g.Node(v0), g.Edge(v0))
	}
	if g.Len() != 2 || g.Cap() != 4 {
		t.Fatalf("Len %d Cap %d", g.Len(), g.Cap())
	}
}

func TestChainsNewestFirst(t *testing.T) {
	g := mustGraph(t, 16)
	// Three edges share U endpoint 6, two share V endpoint 11.
	g.Add(Edge{Index: 0, U: 6, V: 11})
	g.Add(Edge{Index: 1, U: 8, V: 13})
	g.Add(Edge{Index: 2, U: 6, V: 15})
	g.Add(Edge{Index: 3, U: 6, V: 11})

	got := chain(g, U, 6)
	want := []uint32{3, 2, 0}
	if len(got) != len(want) {
		t.Fatalf("U chain of 6 = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("U chain of 6 = %v, want %v", got, want)
		}
	}
	if v := chain(g, V, 11); len(v) != 2 || v[0] != 3 || v[1] != 0 {
		t.Fatalf("V chain of 11 = %v, want [3 0]", v)
	}
	if !g.Has(U, 8) || g.Has(U, 9) || g.Has(V, 6) {
		t.Fatal("Has reports wrong partition membership")
	}
}

func TestReset(t *testing.T) {
	g := mustGraph(t, 4)
	g.Add(Edge{Index: 1, U: 2, V: 3})
	g.Reset()
	if g.Len() != 0 || g.Has(U, 2) || g.Head(V, 3) != 0 {
		t.Fatal("Reset left edges behind")
	}
	if u, _ := g.Add(Edge{Index: 5, U: 2, V: 3}); u != 2 || g.Prev(u) != 0 {
		t.Fatal("first link after Reset must be slot 2 with no predecessor")
	}
}

// ============================================================================
// RANDOM EDGE LISTS
// ============================================================================

func TestRandomChainsMatchReference(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*0x9e3779b97f4a7c15))
		n := 1 + rng.IntN(600)
		// A narrow node range forces long chains and shared endpoints.
		span := uint32(1 + rng.IntN(64))

		g := mustGraph(t, n)
		var ref [2]map[uint32][]uint32
		ref[U], ref[V] = map[uint32][]uint32{}, map[uint32][]uint32{}
		for i := 0; i < n; i++ {
			e := Edge{Index: rng.Uint32(), U: rng.Uint32N(span), V: rng.Uint32N(span)}
			if i%17 == 0 {
				e.U = ^uint32(0) - rng.Uint32N(2)
			}
			u, v := g.Add(e)
			if u != uint32(2*i+2) || v != u+1 || g.Node(u) != e.U || g.Node(v) != e.V {
				t.Fatalf("seed %d edge %d: links %d,%d hold nodes %d,%d", seed, i, u, v, g.Node(u), g.Node(v))
			}
			ref[U][e.U] = append([]uint32{e.Index}, ref[U][e.U]...)
			ref[V][e.V] = append([]uint32{e.Index}, ref[V][e.V]...)
		}
		if g.Len() != n {
			t.Fatalf("seed %d: Len %d, want %d", seed, g.Len(), n)
		}

		for side := U; side <= V; side++ {
			for node, want := range ref[side] {
				if got := chain(g, side, node); !slices.Equal(got, want) {
					t.Fatalf("seed %d side %d node %d: chain %v, want %v", seed, side, node, got, want)
				}
				for l := g.Head(side, node); l != 0; l = g.Prev(l) {
					if Side(l) != side || g.Node(l) != node || g.Edge(Other(l)) != g.Edge(l) {
						t.Fatalf("seed %d: link %d inconsistent with its chain", seed, l)
					}
				}
			}
			// Nodes never used on this side have no chain.
			for node := uint32(0); node < span+2; node++ {
				if _, ok := ref[side][node]; !ok && (g.Has(side, node) || g.Head(side, node) != 0) {
					t.Fatalf("seed %d side %d: phantom chain at %d", seed, side, node)
				}
			}
		}
	}
}
