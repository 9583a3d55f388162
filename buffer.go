package lio

import (
	"sync/atomic"
)

// Allocator
// provides the byte regions attached to operations.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(p []byte)
}

// Buffer
// is a single-owner byte region. Ownership moves with the operation it is attached to:
// into a pending request on prepare, into the Result on completion, and ends with Release.
type Buffer struct {
	p         []byte
	allocator Allocator
	released  atomic.Bool
}

func newBuffer(allocator Allocator, size int) (*Buffer, error) {
	if size < 1 {
		return nil, ErrInvalidLength
	}
	p, err := allocator.Allocate(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{p: p, allocator: allocator}, nil
}

// Bytes
// returns the region, nil once released.
func (buf *Buffer) Bytes() []byte {
	if buf.released.Load() {
		return nil
	}
	return buf.p
}

func (buf *Buffer) Len() int {
	if buf.released.Load() {
		return 0
	}
	return len(buf.p)
}

func (buf *Buffer) Released() bool {
	return buf.released.Load()
}

// Release
// hands the region back to its allocator. A second call returns ErrBufferReleased.
func (buf *Buffer) Release() error {
	if !buf.released.CompareAndSwap(false, true) {
		return ErrBufferReleased
	}
	p := buf.p
	buf.p = nil
	buf.allocator.Free(p)
	return nil
}

// abandon
// gives up a region the kernel may still touch. It is never recycled.
func (buf *Buffer) abandon() {
	if !buf.released.CompareAndSwap(false, true) {
		return
	}
	buf.p = nil
	if a, ok := buf.allocator.(interface{ forget() }); ok {
		a.forget()
	}
}
