// ════════════════════════════════════════════════════════════════════════════════════════════════
// ATTEMPT PIPELINE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Double-buffered trimming/search loop
//
// Description:
//   Trimming of attempt N+1 is queued before the CPU search of attempt N starts, so the two
//   stages overlap. The search always runs to completion; the closing flag is polled between
//   attempts and at stage boundaries, and once seen no further attempt is queued.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package pipeline

import (
	"context"
	"time"

	"cuckminer/bitmap"
	"cuckminer/control"
	"cuckminer/cycle"
	"cuckminer/debug"
	"cuckminer/metrics"
	"cuckminer/report"
	"cuckminer/siphash"
	"cuckminer/trim"
	"cuckminer/utils"
)

// Source yields attempts until it runs dry.
type Source interface {
	Next() (trim.Request, bool)
}

// Trimmer queues one trim per request; the channel yields exactly one Output.
type Trimmer interface {
	Trim(ctx context.Context, req trim.Request) <-chan trim.Output
}

// Searcher runs the CPU side of one attempt.
type Searcher interface {
	SearchBitmap(job report.Job, keys siphash.Keys, bits bitmap.Bitmap) (report.Result, error)
	SearchEdges(job report.Job, buf []byte) (report.Result, error)
}

// Summary counts what one Run did.
type Summary struct {
	Attempts int
	Solved   int
	Rejected int
}

// Pipeline wires a source, a trimmer, the search and the result sink.
type Pipeline struct {
	Source  Source
	Trimmer Trimmer
	Search  Searcher
	Sink    report.Reporter

	// Verify re-derives every proof from the attempt keys before it is
	// reported. Needs EdgeBits and CycleLength.
	Verify      bool
	EdgeBits    uint
	CycleLength int
}

// Run processes attempts until the source is exhausted, ctx is done or the
// closing flag is set. Errors from the trimmer, the search or the sink end
// the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	req, ok := p.next(ctx)
	if !ok {
		return sum, nil
	}
	pending := p.Trimmer.Trim(ctx, req)

	for {
		waitStart := time.Now()
		out := <-pending
		metrics.TrimWait.Observe(time.Since(waitStart).Seconds())
		if out.Err != nil {
			return sum, out.Err
		}
		if control.Closing() {
			debug.DropMessage("PIPELINE", "closing, attempt "+utils.Itoa(int(out.Job.Nonce))+" not searched")
			return sum, nil
		}

		// Queue N+1 before searching N.
		var next <-chan trim.Output
		if req, ok := p.next(ctx); ok {
			next = p.Trimmer.Trim(ctx, req)
		}

		res, err := p.search(out)
		if err != nil {
			if next != nil {
				<-next
			}
			return sum, err
		}
		sum.Attempts++
		if res.Solved() {
			if p.Verify {
				if err := cycle.Verify(&out.Keys, res.Proof, p.EdgeBits, p.CycleLength); err != nil {
					debug.DropError("REJECT nonce "+utils.Itoa(int(res.Nonce)), err)
					sum.Rejected++
					res.Proof = nil
				}
			}
			if res.Solved() {
				sum.Solved++
			}
		}
		if err := p.Sink.Report(res); err != nil {
			if next != nil {
				<-next
			}
			return sum, err
		}

		if next == nil {
			return sum, nil
		}
		pending = next
	}
}

// next pulls the following attempt unless the run is winding down.
func (p *Pipeline) next(ctx context.Context) (trim.Request, bool) {
	if control.Closing() || ctx.Err() != nil {
		return trim.Request{}, false
	}
	return p.Source.Next()
}

func (p *Pipeline) search(out trim.Output) (report.Result, error) {
	if out.Bitmap != nil {
		return p.Search.SearchBitmap(out.Job, out.Keys, bitmap.View(out.Bitmap))
	}
	return p.Search.SearchEdges(out.Job, out.Edges)
}

// NonceSource walks nonces Start, Start+1, ... over a fixed header,
// deriving each attempt's keys from header and nonce.
type NonceSource struct {
	Header []byte
	Height uint64
	JobID  uint64
	Start  uint64
	Count  int // 0 = unbounded

	issued int
}

func (s *NonceSource) Next() (trim.Request, bool) {
	if s.Count > 0 && s.issued >= s.Count {
		return trim.Request{}, false
	}
	nonce := s.Start + uint64(s.issued)
	s.issued++
	return trim.Request{
		Job:  report.Job{Height: s.Height, JobID: s.JobID, Nonce: nonce},
		Keys: siphash.KeysFromHeader(s.Header, uint32(nonce)),
	}, true
}
