// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧪 TEST SUITE: CLOSING FLAG
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: control
//
// Test Coverage:
//   - Flag transitions and idempotence
//   - Concurrent readers observing a single Shutdown
//   - Signal wiring: SIGTERM sets the flag and runs the drain callback
//   - Tracked subsystems hold the drain callback until released
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package control

import (
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

// ============================================================================
// UNIT TESTS
// ============================================================================

func TestInitialAndShutdown(t *testing.T) {
	Reset()
	if Closing() {
		t.Fatal("Closing() true after Reset")
	}
	Shutdown()
	Shutdown()
	if !Closing() {
		t.Fatal("Closing() false after Shutdown")
	}
	Reset()
	if Closing() {
		t.Fatal("Reset did not clear the flag")
	}
}

func TestConcurrentReaders(t *testing.T) {
	Reset()
	defer Reset()

	const readers = 16
	var wg sync.WaitGroup
	var saw int32
	start := make(chan struct{})
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for !Closing() {
				runtime.Gosched()
			}
			atomic.AddInt32(&saw, 1)
		}()
	}
	close(start)
	Shutdown()
	wg.Wait()
	if saw != readers {
		t.Fatalf("%d of %d readers saw the flag", saw, readers)
	}
}

// ============================================================================
// SIGNAL WIRING
// ============================================================================

func TestNotifyOnInterrupt(t *testing.T) {
	Reset()
	defer Reset()

	drained := make(chan struct{})
	stop := NotifyOnInterrupt(func() { close(drained) })
	defer stop()

	ShutdownWG.Add(1)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !Closing() {
		if time.Now().After(deadline) {
			t.Fatal("SIGTERM did not set the closing flag")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case <-drained:
		t.Fatal("drain callback ran before subsystems finished")
	case <-time.After(20 * time.Millisecond):
	}
	ShutdownWG.Done()
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("drain callback never ran")
	}
}

func TestStopDetaches(t *testing.T) {
	Reset()
	stop := NotifyOnInterrupt(nil)
	stop()
	stop()
	if Closing() {
		t.Fatal("stop set the closing flag")
	}
}

func TestTrackHoldsDrain(t *testing.T) {
	Reset()
	defer Reset()

	var closed [2]int32
	first := Track(func() { atomic.AddInt32(&closed[0], 1) })
	second := Track(nil)

	drained := make(chan struct{})
	stop := NotifyOnInterrupt(func() { close(drained) })
	defer stop()
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}

	first()
	first()
	select {
	case <-drained:
		t.Fatal("drained with a subsystem still tracked")
	case <-time.After(20 * time.Millisecond):
	}
	second()
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("drain callback never ran after every release")
	}
	if closed[0] != 1 {
		t.Fatalf("close ran %d times, want 1", closed[0])
	}
}
