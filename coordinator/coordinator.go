// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ SEARCH COORDINATOR
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Persistent worker pool for the CPU side of an attempt
//
// Description:
//   A fixed pool of OS-thread-locked workers is created once and parked between attempts.
//   Each attempt walks four phases on every worker:
//
//     Idle        → wait for the epoch counter to move past the last one seen
//     Count       → popcount of a contiguous word slice of the survivor bitmap, barrier
//     Reconstruct → exclusive prefix sum, write (index, U, V) at that offset, barrier
//     Search      → searching workers replay earlier slices, then search their own
//     Done        → finished counter; the last worker wakes the caller and resets it
//
// Ownership:
//   Each worker owns its searcher exclusively. The shared edge array is written only in
//   Reconstruct (disjoint ranges) and read only in Search. The solution slot is the one
//   piece of state shared during Search and sits behind a mutex; last writer wins.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package coordinator

import (
	"errors"
	"math/bits"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"cuckminer/adjacency"
	"cuckminer/bitmap"
	"cuckminer/config"
	"cuckminer/constants"
	"cuckminer/cycle"
	"cuckminer/debug"
	"cuckminer/metrics"
	"cuckminer/report"
	"cuckminer/siphash"
	"cuckminer/utils"
)

var (
	// ErrClosed reports a search requested after Close.
	ErrClosed = errors.New("coordinator: closed")
	// ErrBitmapSize reports a survivor bitmap not matching the edge space.
	ErrBitmapSize = errors.New("coordinator: bitmap size does not match edge space")
	// ErrEdgeBuffer reports an edge array shorter than its count header.
	ErrEdgeBuffer = errors.New("coordinator: truncated edge array")
)

// Input forms accepted from the trimmer.
const (
	fromBitmap = iota
	fromEdges
)

// task is the attempt handed to the pool at each epoch.
type task struct {
	kind  int
	bits  bitmap.Bitmap
	buf   []byte // edge array records, header stripped
	count int    // records in buf
	keys  siphash.Keys
}

// counter is padded to its own cache line; one per worker.
type counter struct {
	n uint64
	_ [56]byte
}

type worker struct {
	id       int
	searcher *cycle.Searcher // nil unless id < searchers
}

// Coordinator runs attempts on the persistent pool. SearchBitmap and
// SearchEdges may be called from one goroutine at a time.
type Coordinator struct {
	cfg       config.Config
	threads   int
	searchers int
	mask      uint32
	words     int // bitmap words of the full edge space

	workers []worker
	edges   []adjacency.Edge
	counts  []counter

	// Idle rendezvous: epoch moves once per attempt.
	mu     sync.Mutex
	wake   *sync.Cond
	epoch  uint64
	task   task
	closed bool

	counted *barrier
	built   *barrier

	finished int32
	done     chan struct{}
	exited   sync.WaitGroup

	total    int // survivors this attempt, before clamping
	searches uint64

	solMu    sync.Mutex
	solution []uint32
	solved   bool

	call sync.Mutex

	// One log line per failure kind, whichever worker hits it first.
	affinityOnce sync.Once
	priorityOnce sync.Once
	affinityFail uint32
	priorityFail uint32
}

// New starts the worker pool. Workers stay parked until the first attempt.
func New(cfg config.Config) (*Coordinator, error) {
	return newPool(cfg, cfg.Threads())
}

// newPool starts a pool of exactly threads workers.
func newPool(cfg config.Config, threads int) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if threads < 1 {
		threads = 1
	}
	c := &Coordinator{
		cfg:       cfg,
		threads:   threads,
		searchers: cfg.Searchers(threads),
		mask:      siphash.NodeMask(cfg.EdgeBits),
		words:     int((uint64(1) << cfg.EdgeBits) >> constants.WordShift),
		workers:   make([]worker, threads),
		edges:     make([]adjacency.Edge, cfg.MaxEdges),
		counts:    make([]counter, threads),
		counted:   newBarrier(threads),
		built:     newBarrier(threads),
		done:      make(chan struct{}, 1),
		solution:  make([]uint32, cfg.CycleLength),
	}
	c.wake = sync.NewCond(&c.mu)

	var g errgroup.Group
	for i := range c.workers {
		c.workers[i].id = i
		if i >= c.searchers {
			continue
		}
		w := &c.workers[i]
		g.Go(func() error {
			s, err := cycle.New(cfg.MaxEdges, cfg.CycleLength)
			if err != nil {
				return err
			}
			w.searcher = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.exited.Add(threads)
	for i := range c.workers {
		go c.run(&c.workers[i])
	}
	debug.DropMessage("POOL", utils.Itoa(threads)+" workers, "+utils.Itoa(c.searchers)+" searching")
	return c, nil
}

// Threads returns the pool size.
func (c *Coordinator) Threads() int { return c.threads }

// Searchers returns how many workers run the cycle search.
func (c *Coordinator) Searchers() int { return c.searchers }

// Close parks no more attempts and waits for every worker to exit.
func (c *Coordinator) Close() {
	c.call.Lock()
	defer c.call.Unlock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.wake.Broadcast()
	c.mu.Unlock()
	c.exited.Wait()
}

// SearchBitmap runs one attempt over a survivor bitmap covering the full
// edge space, reconstructing endpoints with keys.
func (c *Coordinator) SearchBitmap(job report.Job, keys siphash.Keys, bits bitmap.Bitmap) (report.Result, error) {
	if bits.Words() != c.words {
		return report.Result{Job: job}, ErrBitmapSize
	}
	return c.dispatch(job, task{kind: fromBitmap, bits: bits, keys: keys})
}

// SearchEdges runs one attempt over a pre-reconstructed edge array: a
// little-endian u32 count followed by that many (index, U, V) u32 triples.
func (c *Coordinator) SearchEdges(job report.Job, buf []byte) (report.Result, error) {
	if len(buf) < constants.EdgeCountSize {
		return report.Result{Job: job}, ErrEdgeBuffer
	}
	n := int(utils.Load32(buf))
	body := buf[constants.EdgeCountSize:]
	if len(body)/constants.EdgeRecordSize < n {
		return report.Result{Job: job}, ErrEdgeBuffer
	}
	return c.dispatch(job, task{kind: fromEdges, buf: body, count: n})
}

// dispatch publishes t to the pool, waits for Done and collects the result.
func (c *Coordinator) dispatch(job report.Job, t task) (report.Result, error) {
	c.call.Lock()
	defer c.call.Unlock()

	c.solMu.Lock()
	c.solved = false
	c.solMu.Unlock()
	atomic.StoreUint64(&c.searches, 0)

	start := time.Now()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return report.Result{Job: job}, ErrClosed
	}
	c.task = t
	c.epoch++
	c.wake.Broadcast()
	c.mu.Unlock()

	<-c.done
	elapsed := time.Since(start)

	kept := c.total
	if kept > c.cfg.MaxEdges {
		dropped := kept - c.cfg.MaxEdges
		kept = c.cfg.MaxEdges
		metrics.DroppedEdges.Add(float64(dropped))
		debug.DropMessage("CAPACITY", utils.Itoa(c.total)+" edges survived, "+utils.Itoa(dropped)+
			" dropped; raise max_edges or trim harder")
	}
	metrics.Searches.Add(float64(atomic.LoadUint64(&c.searches)))

	res := report.Result{Job: job}
	c.solMu.Lock()
	if c.solved {
		res.Proof = append([]uint32(nil), c.solution...)
	}
	c.solMu.Unlock()

	metrics.ObserveAttempt(res.Solved(), kept, elapsed)
	return res, nil
}

// run is one worker's lifetime.
func (c *Coordinator) run(w *worker) {
	runtime.LockOSThread()
	defer func() {
		runtime.UnlockOSThread()
		c.exited.Done()
	}()
	if c.cfg.Pin {
		affinity, priority := pinThread(w.id % runtime.NumCPU())
		c.pinned(w.id, affinity, priority)
	}

	var seen uint64
	for {
		c.mu.Lock()
		for c.epoch == seen && !c.closed {
			c.wake.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			return
		}
		seen = c.epoch
		t := c.task
		c.mu.Unlock()

		var n int
		if t.kind == fromBitmap {
			n = c.reconstruct(w, &t)
		} else {
			n = c.copyEdges(w, &t)
		}
		if w.searcher != nil {
			c.search(w, n)
		}

		if atomic.AddInt32(&c.finished, 1) == int32(c.threads) {
			atomic.StoreInt32(&c.finished, 0)
			c.done <- struct{}{}
		}
	}
}

// pinned records worker id's pinning outcome. Affinity and priority fail
// for different reasons, so each kind is counted and logged once.
func (c *Coordinator) pinned(id int, affinity, priority error) {
	if affinity != nil {
		atomic.AddUint32(&c.affinityFail, 1)
		c.affinityOnce.Do(func() {
			debug.DropError("AFFINITY worker "+utils.Itoa(id), affinity)
		})
	}
	if priority != nil {
		atomic.AddUint32(&c.priorityFail, 1)
		c.priorityOnce.Do(func() {
			debug.DropError("PRIORITY worker "+utils.Itoa(id), priority)
		})
	}
}

// wordSlice returns worker id's contiguous share of the bitmap words.
//
//go:nosplit
//go:inline
func (c *Coordinator) wordSlice(id int) (lo, hi int) {
	return id * c.words / c.threads, (id + 1) * c.words / c.threads
}

// reconstruct runs Count and Reconstruct and returns the number of edges
// present in the shared array.
func (c *Coordinator) reconstruct(w *worker, t *task) int {
	lo, hi := c.wordSlice(w.id)
	c.counts[w.id].n = t.bits.CountRange(lo, hi)
	c.counted.Wait()

	var offset, total int
	for i := range c.counts {
		if i == w.id {
			offset = total
		}
		total += int(c.counts[i].n)
	}
	if w.id == 0 {
		c.total = total
	}

	limit := c.cfg.MaxEdges
	pos := offset
	for wi := lo; wi < hi && pos < limit; wi++ {
		word := t.bits.Word(wi)
		base := uint32(wi) << constants.WordShift
		for word != 0 && pos < limit {
			idx := base + uint32(bits.TrailingZeros64(word))
			u, v := t.keys.Endpoints(idx, c.mask)
			c.edges[pos] = adjacency.Edge{Index: idx, U: u, V: v}
			pos++
			word &= word - 1
		}
	}
	c.built.Wait()

	if total > limit {
		return limit
	}
	return total
}

// copyEdges fills the shared array from a pre-reconstructed buffer; each
// worker copies a contiguous share of the records.
func (c *Coordinator) copyEdges(w *worker, t *task) int {
	n := t.count
	if w.id == 0 {
		c.total = n
	}
	if n > c.cfg.MaxEdges {
		n = c.cfg.MaxEdges
	}
	lo, hi := w.id*n/c.threads, (w.id+1)*n/c.threads
	for i := lo; i < hi; i++ {
		rec := t.buf[i*constants.EdgeRecordSize:]
		c.edges[i] = adjacency.Edge{
			Index: utils.Load32(rec),
			U:     utils.Load32(rec[4:]),
			V:     utils.Load32(rec[8:]),
		}
	}
	c.built.Wait()
	return n
}

// search replays every edge before the worker's slice, then searches the
// slice itself. Stops at the first cycle.
func (c *Coordinator) search(w *worker, n int) {
	r := SplitRange(n, c.searchers, c.cfg.FirstSplitPercent, w.id)
	s := w.searcher
	s.Reset()
	for i := 0; i < r.Lo; i++ {
		s.Replay(c.edges[i])
	}
	for i := r.Lo; i < r.Hi; i++ {
		if s.AddEdge(c.edges[i]) {
			c.offer(s.Solution())
			break
		}
	}
	atomic.AddUint64(&c.searches, s.Stats().Searches)
}

// offer stores proof in the solution slot.
func (c *Coordinator) offer(proof []uint32) {
	c.solMu.Lock()
	copy(c.solution, proof)
	c.solved = true
	c.solMu.Unlock()
}
