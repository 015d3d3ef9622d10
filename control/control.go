// control.go - process-wide closing flag and shutdown coordination
// ============================================================================
// SYSTEM CONTROL ORCHESTRATION
// ============================================================================
//
// Control package provides the single global cancellation signal of the
// miner. An interrupt sets the closing flag; the attempt loop polls it
// between attempts and at stage boundaries. Searches already running are
// never abandoned, so the flag is only ever read, never waited on.
//
// Threading model:
//   • Signal goroutine calls Shutdown() once
//   • Attempt loop polls Closing() between stages
//   • Subsystems register through Track and release once drained

package control

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// ============================================================================
// GLOBAL STATE MANAGEMENT
// ============================================================================

var (
	closing uint32 // 1 = no new attempts may be issued

	// ShutdownWG tracks subsystems that must drain before exit.
	ShutdownWG sync.WaitGroup
)

// ============================================================================
// SYSTEM SHUTDOWN
// ============================================================================

// Shutdown sets the closing flag. Idempotent.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&closing, 1)
}

// Closing reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func Closing() bool {
	return atomic.LoadUint32(&closing) != 0
}

// Reset clears the closing flag. Used by tests and by embedders that
// restart the attempt loop in-process.
func Reset() {
	atomic.StoreUint32(&closing, 0)
}

// ============================================================================
// SIGNAL WIRING
// ============================================================================

// Track registers a subsystem on ShutdownWG. The returned release runs
// closeFn (if non-nil) and marks the subsystem drained; only the first call
// has any effect.
func Track(closeFn func()) (release func()) {
	ShutdownWG.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if closeFn != nil {
				closeFn()
			}
			ShutdownWG.Done()
		})
	}
}

// NotifyOnInterrupt sets the closing flag on SIGINT/SIGTERM and then calls
// onDrained (if non-nil) once every ShutdownWG participant has finished.
// The returned stop function detaches the handler.
func NotifyOnInterrupt(onDrained func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})

	go func() {
		select {
		case <-sigChan:
		case <-quit:
			return
		}
		Shutdown()
		ShutdownWG.Wait()
		if onDrained != nil {
			onDrained()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(quit)
		})
	}
}
