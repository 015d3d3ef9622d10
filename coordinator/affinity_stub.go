// affinity_stub.go - no-op pinning where sched_setaffinity(2) is unavailable

//go:build !linux

package coordinator

// pinThread is a no-op off Linux; workers run wherever the scheduler puts them.
func pinThread(cpu int) (affinity, priority error) {
	return nil, nil
}
