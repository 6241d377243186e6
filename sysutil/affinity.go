// Package sysutil wraps the Linux syscalls the scheduler and port layers
// need: CPU-core pinning for worker threads and capability checks before a
// port acquires NIC queues. It replaces the teacher's namespace/capability
// setup code, adapted from container creation to per-worker affinity and
// per-port privilege checks.
package sysutil

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// SetAffinity binds the calling OS thread to a single CPU core. The caller
// must have already called runtime.LockOSThread so the goroutine scheduler
// cannot migrate it back off, and must hold that lock for the lifetime of
// the pin (releasing it, e.g. on worker shutdown, is the caller's
// responsibility).
func SetAffinity(cpu int) error {
	if cpu < 0 || cpu >= runtime.NumCPU() {
		return fmt.Errorf("sysutil: cpu %d out of range [0,%d)", cpu, runtime.NumCPU())
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sysutil: SchedSetaffinity(cpu=%d): %w", cpu, err)
	}
	return nil
}

// CurrentAffinity reports the set of CPUs the calling thread may currently
// run on, for diagnostics (worker status reporting).
func CurrentAffinity() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sysutil: SchedGetaffinity: %w", err)
	}
	var cpus []int
	for i := 0; i < runtime.NumCPU(); i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}
