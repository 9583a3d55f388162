//go:build linux

package process

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinThread
// restricts the calling OS thread to one CPU, cpu is taken modulo the CPU count.
// The goroutine must hold its thread with runtime.LockOSThread.
func PinThread(cpu int) error {
	if cpu < 0 {
		return os.NewSyscallError("sched_setaffinity", unix.EINVAL)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return os.NewSyscallError("sched_setaffinity", err)
	}
	return nil
}

// Affinity
// returns the CPUs the calling thread may run on.
func Affinity() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, os.NewSyscallError("sched_getaffinity", err)
	}
	cpus := make([]int, 0, set.Count())
	for cpu := 0; len(cpus) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
