// affinity_linux.go - Linux worker pinning via sched_setaffinity(2) and setpriority(2)

//go:build linux

package coordinator

import (
	"golang.org/x/sys/unix"
)

// workerNice is the niceness requested for search workers. Lowering it
// needs CAP_SYS_NICE; without it the call fails and the worker keeps the
// inherited priority.
const workerNice = -10

// pinThread binds the calling OS thread to cpu and raises its priority.
// The two steps are independent: a priority failure leaves the affinity in
// place. Best effort either way.
func pinThread(cpu int) (affinity, priority error) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	affinity = unix.SchedSetaffinity(0, &set)
	priority = unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), workerNice)
	return affinity, priority
}
