//go:build linux

package lio

import (
	"golang.org/x/sys/unix"
)

// Slot
// is one submission entry obtained from a Transport. Arming it does not submit it.
type Slot interface {
	ArmNop()
	ArmRead(fd int, p []byte, offset uint64)
	ArmReadFixed(fd int, p []byte, offset uint64, index int)
	ArmWrite(fd int, p []byte, offset uint64)
	ArmWriteFixed(fd int, p []byte, offset uint64, index int)
	// ArmOpen
	// path is NUL terminated.
	ArmOpen(dirfd int, path []byte, flags int, mode uint32)
	ArmClose(fd int)
	ArmSocket(domain int, typ int, proto int)
	ArmConnect(fd int, addr *unix.RawSockaddrAny, addrLen uint32)
	ArmSend(fd int, p []byte, flags int)
	ArmRecv(fd int, p []byte, flags int)
	ArmAccept(fd int, addr *unix.RawSockaddrAny, addrLen *uint32, flags int)
	SetToken(token uint64)
	SetFlags(flags uint8)
}

// Completion
// is one completion entry. It is valid until acknowledged.
type Completion interface {
	Token() uint64
	Res() int32
}

// Transport
// is the ring the engine drives. Submission calls are serialized by the engine,
// completion calls come from a single consumer.
type Transport interface {
	// GetSlot
	// returns false when the submission queue is full.
	GetSlot() (Slot, bool)
	// Flush
	// hands every armed slot to the kernel.
	Flush() (int, error)
	// WaitOne
	// blocks until a completion is available.
	WaitOne() (Completion, error)
	// PeekOne
	// never blocks, false means nothing is ready.
	PeekOne() (Completion, bool, error)
	// PeekBatch
	// never blocks and returns at most max completions in ring order.
	PeekBatch(max int) ([]Completion, error)
	// Acknowledge
	// releases the oldest peeked completion, once per completion and in order.
	Acknowledge(c Completion)
	RegisterBuffers(buffers [][]byte) error
	RegisterFiles(fds []int) error
	// UpdateRegisteredFiles
	// completes the ring contract. The engine never calls it, registrations are immutable.
	UpdateRegisteredFiles(offset int, fds []int) error
	Capacity() int
	Close() error
}
