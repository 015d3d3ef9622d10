// ════════════════════════════════════════════════════════════════════════════════════════════════
// CYCLE SEARCH
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Alternating bipartite path search toward a fixed root
//
// Description:
//   Edges are inserted one at a time. When both endpoints of the new edge have partners
//   already present, the searcher looks for a path of length-1 older edges that leaves the
//   new edge's U endpoint and returns to the partner of its V endpoint, alternating
//   partitions at every step. Closing that path through the new edge yields the cycle.
//
// Memory:
//   All state (adjacency arena, two visited-pair tables, the undo trail and the proof
//   buffer) is allocated once per worker. A search attempt allocates nothing.
//
// Backtracking:
//   Every visited-pair insert is undone by the frame that made it, newest first, so the
//   tables only ever see LIFO insert/undo pairs.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package cycle

import (
	"errors"
	"slices"

	"cuckminer/adjacency"
	"cuckminer/hashtable"
)

// ErrLength reports a cycle length that cannot close in a bipartite graph.
var ErrLength = errors.New("cycle: length must be even and at least 2")

// verdict of one candidate edge.
const (
	blocked = iota // revisits a vertex or overshoots the length
	extend         // path may continue through the far endpoint
	closed         // candidate completes the cycle
)

// Stats counts work done since the last Reset.
type Stats struct {
	Edges    uint64 // edges inserted (searched or replayed)
	Searches uint64 // root searches started
}

// Searcher holds one worker's search state. Not safe for concurrent use.
type Searcher struct {
	graph   *adjacency.Graph
	visited [2]*hashtable.Table // keyed by endpoint>>1, value = link that reached it

	slots []uint32 // visited slot inserted at each depth
	sides []uint8  // partition of that slot
	refs  []uint32 // CollectValues scratch
	proof []uint32

	length int
	root   uint32 // V endpoint of the edge being searched
	found  bool
	stats  Stats
}

// New allocates a searcher for up to maxEdges edges and cycles of exactly
// length edges.
func New(maxEdges, length int) (*Searcher, error) {
	if length < 2 || length&1 != 0 {
		return nil, ErrLength
	}
	g, err := adjacency.New(maxEdges)
	if err != nil {
		return nil, err
	}
	vu, err := hashtable.New(length)
	if err != nil {
		return nil, err
	}
	vv, err := hashtable.New(length)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		graph:   g,
		visited: [2]*hashtable.Table{vu, vv},
		slots:   make([]uint32, length+1),
		sides:   make([]uint8, length+1),
		refs:    make([]uint32, length),
		proof:   make([]uint32, length),
		length:  length,
	}, nil
}

// Reset prepares for a new attempt.
func (s *Searcher) Reset() {
	s.graph.Reset()
	s.visited[adjacency.U].Clear()
	s.visited[adjacency.V].Clear()
	s.found = false
	s.stats = Stats{}
}

// Length returns the target cycle length.
func (s *Searcher) Length() int { return s.length }

// Graph exposes the adjacency structure (read-only use).
func (s *Searcher) Graph() *adjacency.Graph { return s.graph }

// Stats returns counters accumulated since the last Reset.
func (s *Searcher) Stats() Stats { return s.stats }

// Found reports whether a cycle was closed since the last Reset.
func (s *Searcher) Found() bool { return s.found }

// Solution returns the sorted edge indices of the last closed cycle. The
// slice is owned by the searcher and overwritten by the next success.
func (s *Searcher) Solution() []uint32 { return s.proof }

// Replay inserts e without searching. Used to rebuild incidence lists for
// edges owned by an earlier slice.
//
//go:inline
func (s *Searcher) Replay(e adjacency.Edge) {
	s.graph.Add(e)
	s.stats.Edges++
}

// AddEdge inserts e and searches for a cycle through it. Returns true when
// a cycle closed; Solution then holds it.
func (s *Searcher) AddEdge(e adjacency.Edge) bool {
	uLink, _ := s.graph.Add(e)
	s.stats.Edges++

	// Both ends need a partner to leave from and return to.
	if !s.graph.Has(adjacency.U, e.U^1) || !s.graph.Has(adjacency.V, e.V^1) {
		return false
	}

	s.stats.Searches++
	s.visited[adjacency.U].Clear()
	s.visited[adjacency.V].Clear()
	s.root = e.V
	if s.walk(e.U, uLink, adjacency.U, 1) {
		s.found = true
		return true
	}
	return false
}

// walk continues the path from node, reached in partition side through link
// via as the depth-th edge. Straight runs of single-link chains advance in
// this frame; every branch point recurses.
func (s *Searcher) walk(node, via uint32, side, depth int) bool {
	base := depth

advance:
	for {
		s.slots[depth] = s.visited[side].InsertUnique(node>>1, via)
		s.sides[depth] = uint8(side)

		head := s.graph.Head(side, node^1)
		if head == 0 {
			break
		}

		if s.graph.Prev(head) == 0 {
			next := s.graph.Node(adjacency.Other(head))
			switch s.probe(head, next, 1-side, depth+1) {
			case closed:
				return true
			case extend:
				node, via, side, depth = next, head, 1-side, depth+1
				continue advance
			}
			break advance
		}

		for l := head; l != 0; l = s.graph.Prev(l) {
			next := s.graph.Node(adjacency.Other(l))
			switch s.probe(l, next, 1-side, depth+1) {
			case closed:
				return true
			case extend:
				if s.walk(next, l, 1-side, depth+1) {
					return true
				}
			}
		}
		break
	}

	for d := depth; d >= base; d-- {
		s.visited[s.sides[d]].UndoInsertAt(s.slots[d])
	}
	return false
}

// probe classifies link, whose far endpoint next lies in nextSide and
// would become the depth-th edge of the path.
//
//go:inline
func (s *Searcher) probe(link, next uint32, nextSide, depth int) int {
	if depth == s.length {
		if next^1 == s.root {
			s.collect(link)
			return closed
		}
		return blocked
	}
	if s.visited[nextSide].Contains(next >> 1) {
		return blocked
	}
	if nextSide == adjacency.V && next>>1 == s.root>>1 {
		return blocked
	}
	return extend
}

// collect copies the path held in both visited tables plus the closing link
// into the proof buffer, sorted ascending.
func (s *Searcher) collect(closing uint32) {
	n := s.visited[adjacency.U].CollectValues(s.refs)
	n += s.visited[adjacency.V].CollectValues(s.refs[n:])
	for i := 0; i < n; i++ {
		s.proof[i] = s.graph.Edge(s.refs[i])
	}
	s.proof[n] = s.graph.Edge(closing)
	slices.Sort(s.proof[:n+1])
}
