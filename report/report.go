// ════════════════════════════════════════════════════════════════════════════════════════════════
// SOLUTION REPORTING
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Attempt result and job-submission payload
//
// Description:
//   One Result per attempt: the (height, jobId, nonce) triple passed through from the job,
//   and either no solution or the sorted edge indices of one cycle. Results are encoded as
//   a single JSON object per line for the job-submission collaborator.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package report

import (
	"errors"
	"io"
	"sync"

	"github.com/sugawarayuuta/sonnet"

	"cuckminer/constants"
)

// ErrBadResult reports a payload that cannot be a valid result.
var ErrBadResult = errors.New("report: malformed result")

// Job identifies one attempt. Only passed through to reporting.
type Job struct {
	Height uint64 `json:"height"`
	JobID  uint64 `json:"job_id"`
	Nonce  uint64 `json:"nonce"`
}

// Result is the outcome of one attempt. Proof is nil when no cycle closed.
type Result struct {
	Job
	Proof []uint32 `json:"pow,omitempty"`
}

// Solved reports whether the attempt found a cycle.
func (r Result) Solved() bool { return len(r.Proof) != 0 }

// Reporter receives every finished attempt.
type Reporter interface {
	Report(Result) error
}

// Func adapts a function to Reporter.
type Func func(Result) error

func (f Func) Report(r Result) error { return f(r) }

// Multi fans a result out to every reporter, returning the first error.
type Multi []Reporter

func (m Multi) Report(r Result) error {
	var first error
	for _, rep := range m {
		if err := rep.Report(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Encode renders r as JSON.
func Encode(r Result) ([]byte, error) {
	return sonnet.Marshal(r)
}

// Decode parses a JSON result and checks the proof shape: either absent or
// exactly constants.CycleLength strictly ascending indices.
func Decode(data []byte) (Result, error) {
	var r Result
	if err := sonnet.Unmarshal(data, &r); err != nil {
		return Result{}, err
	}
	if err := Check(r, constants.CycleLength); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Check validates the proof shape of r against length.
func Check(r Result, length int) error {
	if len(r.Proof) == 0 {
		return nil
	}
	if len(r.Proof) != length {
		return ErrBadResult
	}
	for i := 1; i < len(r.Proof); i++ {
		if r.Proof[i] <= r.Proof[i-1] {
			return ErrBadResult
		}
	}
	return nil
}

// Writer emits solved results as JSON lines. Unsolved attempts are skipped
// unless All is set.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	All bool
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Report(r Result) error {
	if !r.Solved() && !w.All {
		return nil
	}
	b, err := Encode(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(b)
	return err
}
