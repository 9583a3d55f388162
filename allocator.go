package lio

import (
	"sync/atomic"

	"github.com/brickingsoft/lio/pkg/bytebuffers"
)

// HeapAllocator
// serves regions from size-class pools on the Go heap.
type HeapAllocator struct {
	pool        bytebuffers.Pool
	outstanding atomic.Int64
}

func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

func (a *HeapAllocator) Allocate(size int) ([]byte, error) {
	if size < 1 {
		return nil, ErrInvalidLength
	}
	p := a.pool.Get(size)
	a.outstanding.Add(1)
	return p, nil
}

func (a *HeapAllocator) Free(p []byte) {
	a.outstanding.Add(-1)
	a.pool.Put(p)
}

// Outstanding
// is the number of regions allocated and not yet freed.
func (a *HeapAllocator) Outstanding() int64 {
	return a.outstanding.Load()
}

func (a *HeapAllocator) forget() {
	a.outstanding.Add(-1)
}
