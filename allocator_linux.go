//go:build linux

package lio

import (
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// MmapAllocator
// maps every region as anonymous, page aligned memory outside the Go heap.
// Suited to registered buffers, which stay pinned for the registry's lifetime.
type MmapAllocator struct {
	pagesize    int
	outstanding atomic.Int64
}

func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{pagesize: os.Getpagesize()}
}

func (a *MmapAllocator) Allocate(size int) ([]byte, error) {
	if size < 1 {
		return nil, ErrInvalidLength
	}
	length := (size + a.pagesize - 1) / a.pagesize * a.pagesize
	p, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, os.NewSyscallError("mmap", err)
	}
	a.outstanding.Add(1)
	return p[:size], nil
}

func (a *MmapAllocator) Free(p []byte) {
	if cap(p) == 0 {
		return
	}
	a.outstanding.Add(-1)
	_ = unix.Munmap(p[:cap(p)])
}

func (a *MmapAllocator) Outstanding() int64 {
	return a.outstanding.Load()
}

func (a *MmapAllocator) forget() {
	a.outstanding.Add(-1)
}
