//go:build linux

package lio

import (
	"math"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/lio/pkg/sys"
	"golang.org/x/sys/unix"
)

// Builder
// arms submission slots. Every Prepare call obtains a slot, arms it with a fresh token and
// registers the pending request before it returns, all under the lock Submit takes,
// so a flush never publishes a slot whose request is not yet registered.
type Builder struct {
	mu        sync.Mutex
	transport Transport
	table     *correlationTable
	tokens    tokenSource
	allocator Allocator
	closed    *atomic.Bool
	submitted func()
}

func (b *Builder) prepare(p *pending, flags []Flags, arm func(slot Slot)) (Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		p.discard()
		return 0, ErrClosed
	}
	slot, ok := b.transport.GetSlot()
	if !ok {
		p.discard()
		return 0, ErrSubmissionQueueFull
	}
	p.token = b.tokens.next()
	arm(slot)
	slot.SetToken(uint64(p.token))
	slot.SetFlags(uint8(combineFlags(flags)))
	if err := b.table.register(p); err != nil {
		// the slot is already taken, a zero token makes its completion void
		slot.ArmNop()
		slot.SetToken(0)
		slot.SetFlags(0)
		p.discard()
		return 0, err
	}
	return p.token, nil
}

// Submit
// flushes every prepared operation to the kernel and returns how many it accepted.
func (b *Builder) Submit() (int, error) {
	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		return 0, ErrClosed
	}
	n, err := b.transport.Flush()
	b.mu.Unlock()
	if err != nil {
		return n, errors.New(
			"submit failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSubmit),
			errors.WithWrap(err),
		)
	}
	if b.submitted != nil {
		b.submitted()
	}
	return n, nil
}

// Allocate
// returns a buffer from the engine's allocator.
func (b *Builder) Allocate(size int) (*Buffer, error) {
	return newBuffer(b.allocator, size)
}

func (b *Builder) PrepareNop(flags ...Flags) (Token, error) {
	p := &pending{kind: Nop, fd: -1}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmNop()
	})
}

// PrepareRead
// reads up to length bytes at offset into a new buffer, handed over with the Result.
func (b *Builder) PrepareRead(fd int, length int, offset uint64, flags ...Flags) (Token, error) {
	if length < 1 || uint64(length) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	buf, err := b.Allocate(length)
	if err != nil {
		return 0, err
	}
	p := &pending{kind: Read, fd: fd, buffer: buf, owned: true}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmRead(fd, buf.Bytes(), offset)
	})
}

// PrepareReadInto
// reads into buf, which moves into the request and comes back with the Result.
func (b *Builder) PrepareReadInto(fd int, buf *Buffer, offset uint64, flags ...Flags) (Token, error) {
	if buf == nil || buf.Len() < 1 || uint64(buf.Len()) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	p := &pending{kind: Read, fd: fd, buffer: buf}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmRead(fd, buf.Bytes(), offset)
	})
}

// PrepareReadFixed
// reads up to n bytes into the registered buffer fb.
func (b *Builder) PrepareReadFixed(fd int, fb *FixedBuffer, n int, offset uint64, flags ...Flags) (Token, error) {
	if fb == nil || n < 1 || n > fb.Len() {
		return 0, ErrInvalidLength
	}
	p := &pending{kind: ReadFixed, fd: fd, fixed: fb}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmReadFixed(fd, fb.Bytes()[:n], offset, fb.Index())
	})
}

// PrepareWrite
// writes buf at offset. buf moves into the request and is released on completion.
func (b *Builder) PrepareWrite(fd int, buf *Buffer, offset uint64, flags ...Flags) (Token, error) {
	if buf == nil || buf.Len() < 1 || uint64(buf.Len()) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	p := &pending{kind: Write, fd: fd, buffer: buf}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmWrite(fd, buf.Bytes(), offset)
	})
}

// PrepareWriteBytes
// copies data into a new buffer and writes it at offset.
func (b *Builder) PrepareWriteBytes(fd int, data []byte, offset uint64, flags ...Flags) (Token, error) {
	if len(data) < 1 || uint64(len(data)) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	buf, err := b.Allocate(len(data))
	if err != nil {
		return 0, err
	}
	copy(buf.Bytes(), data)
	p := &pending{kind: Write, fd: fd, buffer: buf, owned: true}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmWrite(fd, buf.Bytes(), offset)
	})
}

// PrepareWriteFixed
// writes the first n bytes of the registered buffer fb.
func (b *Builder) PrepareWriteFixed(fd int, fb *FixedBuffer, n int, offset uint64, flags ...Flags) (Token, error) {
	if fb == nil || n < 1 || n > fb.Len() {
		return 0, ErrInvalidLength
	}
	p := &pending{kind: WriteFixed, fd: fd, fixed: fb}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmWriteFixed(fd, fb.Bytes()[:n], offset, fb.Index())
	})
}

// PrepareOpen
// opens path relative to the working directory. Res is the new descriptor.
func (b *Builder) PrepareOpen(path string, flag int, mode uint32, flags ...Flags) (Token, error) {
	if len(path) == 0 {
		return 0, ErrInvalidLength
	}
	storage, err := b.Allocate(len(path) + 1)
	if err != nil {
		return 0, err
	}
	s := storage.Bytes()
	copy(s, path)
	s[len(path)] = 0
	p := &pending{kind: Open, fd: unix.AT_FDCWD, path: storage}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmOpen(unix.AT_FDCWD, s, flag|unix.O_CLOEXEC, mode)
	})
}

func (b *Builder) PrepareClose(fd int, flags ...Flags) (Token, error) {
	p := &pending{kind: Close, fd: fd}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmClose(fd)
	})
}

// PrepareSocket
// creates a socket. Res is the new descriptor.
func (b *Builder) PrepareSocket(domain int, typ int, proto int, flags ...Flags) (Token, error) {
	p := &pending{kind: Socket, fd: -1}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmSocket(domain, typ|unix.SOCK_CLOEXEC, proto)
	})
}

func (b *Builder) PrepareConnect(fd int, addr netip.AddrPort, flags ...Flags) (Token, error) {
	name, nameLen, err := sys.AddrPortToRawSockaddrAny(addr)
	if err != nil {
		return 0, errors.New(
			"invalid address",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpPrepare),
			errors.WithWrap(err),
		)
	}
	p := &pending{kind: Connect, fd: fd, addr: name}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmConnect(fd, name, nameLen)
	})
}

// PrepareSend
// sends buf, which moves into the request and is released on completion.
func (b *Builder) PrepareSend(fd int, buf *Buffer, msgFlags int, flags ...Flags) (Token, error) {
	if buf == nil || buf.Len() < 1 || uint64(buf.Len()) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	p := &pending{kind: Send, fd: fd, buffer: buf}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmSend(fd, buf.Bytes(), msgFlags)
	})
}

func (b *Builder) PrepareSendBytes(fd int, data []byte, msgFlags int, flags ...Flags) (Token, error) {
	if len(data) < 1 || uint64(len(data)) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	buf, err := b.Allocate(len(data))
	if err != nil {
		return 0, err
	}
	copy(buf.Bytes(), data)
	p := &pending{kind: Send, fd: fd, buffer: buf, owned: true}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmSend(fd, buf.Bytes(), msgFlags)
	})
}

// PrepareRecv
// receives up to length bytes into a new buffer, handed over with the Result.
func (b *Builder) PrepareRecv(fd int, length int, msgFlags int, flags ...Flags) (Token, error) {
	if length < 1 || uint64(length) > math.MaxUint32 {
		return 0, ErrInvalidLength
	}
	buf, err := b.Allocate(length)
	if err != nil {
		return 0, err
	}
	p := &pending{kind: Recv, fd: fd, buffer: buf, owned: true}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmRecv(fd, buf.Bytes(), msgFlags)
	})
}

// PrepareAccept
// accepts one connection on the listening socket fd. Res is the new descriptor
// and Result.Peer the remote address.
func (b *Builder) PrepareAccept(fd int, flags ...Flags) (Token, error) {
	addr := &unix.RawSockaddrAny{}
	addrLen := new(uint32)
	*addrLen = unix.SizeofSockaddrAny
	p := &pending{kind: Accept, fd: fd, addr: addr, addrLen: addrLen}
	return b.prepare(p, flags, func(slot Slot) {
		slot.ArmAccept(fd, addr, addrLen, unix.SOCK_CLOEXEC)
	})
}
