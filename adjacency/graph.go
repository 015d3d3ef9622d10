// ════════════════════════════════════════════════════════════════════════════════════════════════
// ADJACENCY ARENA
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Incidence lists for the trimmed bipartite graph
//
// Description:
//   A preallocated arena of link records, two per edge, threaded into reverse-chronological
//   chains per vertex. One table per partition maps an endpoint to its newest link; older
//   links hang off `prev`. Nothing is allocated after New.
//
// Link references:
//   Slots 0 and 1 are reserved so reference 0 means "no link". Edge k owns slots 2k+2 (U) and
//   2k+3 (V), therefore a link's side is ref&1 and ref^1 is the other endpoint's link.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package adjacency

import (
	"cuckminer/hashtable"
)

// Partition sides.
const (
	U = 0
	V = 1
)

// Edge is one surviving edge: its index in the untrimmed edge space and its
// two endpoints.
type Edge struct {
	Index uint32
	U     uint32
	V     uint32
}

// Graph is the per-worker adjacency structure for one attempt.
type Graph struct {
	prev  []uint32 // older link for the same endpoint, 0 = none
	node  []uint32 // endpoint value of this link
	edge  []uint32 // edge index owning this link
	sides [2]*hashtable.Table
	next  uint32 // next free U slot
}

// New preallocates room for maxEdges edges.
func New(maxEdges int) (*Graph, error) {
	u, err := hashtable.New(maxEdges)
	if err != nil {
		return nil, err
	}
	v, err := hashtable.New(maxEdges)
	if err != nil {
		return nil, err
	}
	slots := 2*maxEdges + 2
	return &Graph{
		prev:  make([]uint32, slots),
		node:  make([]uint32, slots),
		edge:  make([]uint32, slots),
		sides: [2]*hashtable.Table{u, v},
		next:  2,
	}, nil
}

// Reset forgets every edge. O(table capacity).
func (g *Graph) Reset() {
	g.sides[U].Clear()
	g.sides[V].Clear()
	g.next = 2
}

// Len returns the number of edges added since the last Reset.
//
//go:nosplit
//go:inline
func (g *Graph) Len() int { return int(g.next-2) >> 1 }

// Cap returns the maximum number of edges.
func (g *Graph) Cap() int { return (len(g.prev) - 2) >> 1 }

// Add appends e and links both endpoints at the head of their chains.
// Returns the U and V link references.
//
//go:norace
//go:nocheckptr
//go:inline
func (g *Graph) Add(e Edge) (uLink, vLink uint32) {
	uLink = g.next
	vLink = uLink + 1
	g.next += 2

	g.node[uLink], g.edge[uLink] = e.U, e.Index
	g.node[vLink], g.edge[vLink] = e.V, e.Index
	g.prev[uLink] = g.sides[U].Replace(e.U, uLink)
	g.prev[vLink] = g.sides[V].Replace(e.V, vLink)
	return uLink, vLink
}

// Head returns the newest link whose side endpoint equals node, or 0.
//
//go:nosplit
//go:inline
func (g *Graph) Head(side int, node uint32) uint32 {
	ref, _ := g.sides[side].Get(node)
	return ref
}

// Has reports whether any edge has node as its side endpoint.
//
//go:nosplit
//go:inline
func (g *Graph) Has(side int, node uint32) bool {
	return g.sides[side].Contains(node)
}

//go:nosplit
//go:inline
func (g *Graph) Prev(ref uint32) uint32 { return g.prev[ref] }

//go:nosplit
//go:inline
func (g *Graph) Node(ref uint32) uint32 { return g.node[ref] }

//go:nosplit
//go:inline
func (g *Graph) Edge(ref uint32) uint32 { return g.edge[ref] }

// Other returns the link of the opposite endpoint of ref's edge.
//
//go:nosplit
//go:inline
func Other(ref uint32) uint32 { return ref ^ 1 }

// Side returns the partition of the endpoint ref links.
//
//go:nosplit
//go:inline
func Side(ref uint32) int { return int(ref & 1) }
