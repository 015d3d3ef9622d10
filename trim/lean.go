// ════════════════════════════════════════════════════════════════════════════════════════════════
// LEAN REFERENCE TRIMMER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: CPU stand-in for the GPU trimming stage
//
// Description:
//   Starts from every edge alive and repeats, per partition, a count pass that marks each
//   endpoint of a live edge and a kill pass that drops edges whose endpoint's partner was
//   not marked. An edge whose partner endpoint has no edge can never sit on a cycle.
//
// Queue model:
//   Requests are served one at a time by a single goroutine, like a device queue. Output
//   buffers alternate between two slots, so the result of attempt N stays intact while
//   attempt N+1 is being trimmed. A caller may have at most two results outstanding.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package trim

import (
	"context"
	"errors"

	"cuckminer/adjacency"
	"cuckminer/bitmap"
	"cuckminer/constants"
	"cuckminer/report"
	"cuckminer/siphash"
	"cuckminer/utils"
)

// ErrClosed reports a request made after Close.
var ErrClosed = errors.New("trim: closed")

// Output forms.
const (
	ModeBitmap = iota // packed survivor bitmap, one bit per edge index
	ModeEdges         // u32 count then (index, U, V) u32 triples
)

// Request is one attempt to trim.
type Request struct {
	Job  report.Job
	Keys siphash.Keys
}

// Output is one finished trim. Exactly one of Bitmap and Edges is set.
// Both alias trimmer-owned memory that is recycled two results later.
type Output struct {
	Job       report.Job
	Keys      siphash.Keys
	Bitmap    []byte
	Edges     []byte
	Survivors int
	Err       error
}

type job struct {
	ctx context.Context
	req Request
	out chan Output
}

// Lean is the CPU reference trimmer.
type Lean struct {
	edgeBits uint
	rounds   int
	mode     int
	mask     uint32

	alive bitmap.Bitmap // live edges, reused every trim
	nodes bitmap.Bitmap // endpoint marks, reused every pass
	slots [2][]byte     // alternating output buffers
	next  int

	queue chan job
	quit  chan struct{}
	done  chan struct{}
}

// NewLean starts a trimmer for graphs of 2^edgeBits edges.
func NewLean(edgeBits uint, rounds, mode int) *Lean {
	n := uint64(1) << edgeBits
	l := &Lean{
		edgeBits: edgeBits,
		rounds:   rounds,
		mode:     mode,
		mask:     siphash.NodeMask(edgeBits),
		alive:    bitmap.New(n),
		nodes:    bitmap.New(n),
		queue:    make(chan job, 2),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.serve()
	return l
}

// Trim enqueues req. The returned channel yields exactly one Output.
func (l *Lean) Trim(ctx context.Context, req Request) <-chan Output {
	out := make(chan Output, 1)
	select {
	case <-l.quit:
		out <- Output{Job: req.Job, Keys: req.Keys, Err: ErrClosed}
		return out
	default:
	}
	select {
	case l.queue <- job{ctx: ctx, req: req, out: out}:
	case <-l.quit:
		out <- Output{Job: req.Job, Keys: req.Keys, Err: ErrClosed}
	}
	return out
}

// Close lets queued trims finish and stops the trimmer. Trim must not race
// with Close.
func (l *Lean) Close() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
	<-l.done
}

func (l *Lean) serve() {
	defer close(l.done)
	for {
		select {
		case j := <-l.queue:
			j.out <- l.run(j.ctx, j.req)
		case <-l.quit:
			for {
				select {
				case j := <-l.queue:
					j.out <- l.run(j.ctx, j.req)
				default:
					return
				}
			}
		}
	}
}

func (l *Lean) run(ctx context.Context, req Request) Output {
	out := Output{Job: req.Job, Keys: req.Keys}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	l.trim(&req.Keys)

	slot := l.next
	l.next ^= 1
	out.Survivors = int(l.alive.Count())
	if l.mode == ModeBitmap {
		buf := l.reserve(slot, len(l.alive.Bytes()))
		copy(buf, l.alive.Bytes())
		out.Bitmap = buf
		return out
	}
	out.Edges = l.encodeEdges(slot, &req.Keys, out.Survivors)
	return out
}

// trim runs the count/kill rounds over l.alive.
func (l *Lean) trim(keys *siphash.Keys) {
	words := l.alive.Words()
	fillOnes(l.alive)

	for round := 0; round < l.rounds; round++ {
		for side := uint32(adjacency.U); side <= adjacency.V; side++ {
			l.nodes.Reset()
			l.alive.ForEachRange(0, words, func(idx uint64) bool {
				l.nodes.Set(uint64(keys.Node(uint32(idx), side, l.mask)))
				return true
			})
			l.alive.ForEachRange(0, words, func(idx uint64) bool {
				if !l.nodes.Test(uint64(keys.Node(uint32(idx), side, l.mask) ^ 1)) {
					l.alive.Clear(idx)
				}
				return true
			})
		}
	}
}

// encodeEdges writes the survivors as a count-prefixed triple array.
func (l *Lean) encodeEdges(slot int, keys *siphash.Keys, n int) []byte {
	buf := l.reserve(slot, constants.EdgeCountSize+n*constants.EdgeRecordSize)
	utils.Store32(buf, uint32(n))
	pos := constants.EdgeCountSize
	l.alive.ForEachRange(0, l.alive.Words(), func(idx uint64) bool {
		u, v := keys.Endpoints(uint32(idx), l.mask)
		utils.Store32(buf[pos:], uint32(idx))
		utils.Store32(buf[pos+4:], u)
		utils.Store32(buf[pos+8:], v)
		pos += constants.EdgeRecordSize
		return true
	})
	return buf
}

// reserve returns slot's buffer resized to n bytes, growing it if needed.
func (l *Lean) reserve(slot, n int) []byte {
	if cap(l.slots[slot]) < n {
		l.slots[slot] = make([]byte, n)
	}
	l.slots[slot] = l.slots[slot][:n]
	return l.slots[slot]
}

func fillOnes(b bitmap.Bitmap) {
	raw := b.Bytes()
	for i := range raw {
		raw[i] = 0xff
	}
}
