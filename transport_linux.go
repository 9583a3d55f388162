//go:build linux

package lio

import (
	"errors"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/lio/pkg/liburing"
	"golang.org/x/sys/unix"
)

type ringTransport struct {
	ring *liburing.Ring
	cqes []*liburing.CompletionQueueEvent
}

func newRingTransport(options ...liburing.Option) (*ringTransport, error) {
	ring, err := liburing.New(options...)
	if err != nil {
		return nil, err
	}
	return &ringTransport{ring: ring}, nil
}

func (t *ringTransport) Fd() int {
	return t.ring.Fd()
}

func (t *ringTransport) GetSlot() (Slot, bool) {
	sqe := t.ring.GetSQE()
	if sqe == nil {
		return nil, false
	}
	return (*submissionSlot)(sqe), true
}

func (t *ringTransport) Flush() (int, error) {
	for {
		n, err := t.ring.Submit()
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return int(n), err
	}
}

func (t *ringTransport) WaitOne() (Completion, error) {
	for {
		cqe, err := t.ring.WaitCQE()
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return nil, err
		}
		return completionEntry{cqe: cqe}, nil
	}
}

func (t *ringTransport) PeekOne() (Completion, bool, error) {
	cqe, err := t.ring.PeekCQE()
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return completionEntry{cqe: cqe}, true, nil
}

func (t *ringTransport) PeekBatch(max int) ([]Completion, error) {
	if max < 1 {
		return nil, nil
	}
	if cap(t.cqes) < max {
		t.cqes = make([]*liburing.CompletionQueueEvent, max)
	}
	cqes := t.cqes[:max]
	n := t.ring.PeekBatchCQE(cqes)
	if n == 0 {
		return nil, nil
	}
	completions := make([]Completion, n)
	for i := uint32(0); i < n; i++ {
		completions[i] = completionEntry{cqe: cqes[i]}
		cqes[i] = nil
	}
	return completions, nil
}

func (t *ringTransport) Acknowledge(_ Completion) {
	t.ring.CQAdvance(1)
}

func (t *ringTransport) RegisterBuffers(buffers [][]byte) error {
	_, err := t.ring.RegisterBuffers(buffers)
	return err
}

func (t *ringTransport) RegisterFiles(fds []int) error {
	_, err := t.ring.RegisterFiles(toInt32s(fds))
	return err
}

func (t *ringTransport) UpdateRegisteredFiles(offset int, fds []int) error {
	_, err := t.ring.RegisterFilesUpdate(uint32(offset), toInt32s(fds))
	return err
}

func (t *ringTransport) Capacity() int {
	return int(t.ring.SQEntries())
}

func (t *ringTransport) Close() error {
	return t.ring.Close()
}

func toInt32s(fds []int) []int32 {
	files := make([]int32, len(fds))
	for i, fd := range fds {
		files[i] = int32(fd)
	}
	return files
}

type submissionSlot liburing.SubmissionQueueEntry

func (slot *submissionSlot) entry() *liburing.SubmissionQueueEntry {
	return (*liburing.SubmissionQueueEntry)(slot)
}

func bytesAddr(p []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}

func (slot *submissionSlot) ArmNop() {
	slot.entry().PrepareNop()
}

func (slot *submissionSlot) ArmRead(fd int, p []byte, offset uint64) {
	slot.entry().PrepareRead(fd, bytesAddr(p), uint32(len(p)), offset)
}

func (slot *submissionSlot) ArmReadFixed(fd int, p []byte, offset uint64, index int) {
	slot.entry().PrepareReadFixed(fd, bytesAddr(p), uint32(len(p)), offset, index)
}

func (slot *submissionSlot) ArmWrite(fd int, p []byte, offset uint64) {
	slot.entry().PrepareWrite(fd, bytesAddr(p), uint32(len(p)), offset)
}

func (slot *submissionSlot) ArmWriteFixed(fd int, p []byte, offset uint64, index int) {
	slot.entry().PrepareWriteFixed(fd, bytesAddr(p), uint32(len(p)), offset, index)
}

func (slot *submissionSlot) ArmOpen(dirfd int, path []byte, flags int, mode uint32) {
	slot.entry().PrepareOpenat(dirfd, unsafe.SliceData(path), flags, mode)
}

func (slot *submissionSlot) ArmClose(fd int) {
	slot.entry().PrepareClose(fd)
}

func (slot *submissionSlot) ArmSocket(domain int, typ int, proto int) {
	slot.entry().PrepareSocket(domain, typ, proto, 0)
}

func (slot *submissionSlot) ArmConnect(fd int, addr *unix.RawSockaddrAny, addrLen uint32) {
	slot.entry().PrepareConnect(fd, addr, addrLen)
}

func (slot *submissionSlot) ArmSend(fd int, p []byte, flags int) {
	slot.entry().PrepareSend(fd, bytesAddr(p), uint32(len(p)), flags)
}

func (slot *submissionSlot) ArmRecv(fd int, p []byte, flags int) {
	slot.entry().PrepareRecv(fd, bytesAddr(p), uint32(len(p)), flags)
}

func (slot *submissionSlot) ArmAccept(fd int, addr *unix.RawSockaddrAny, addrLen *uint32, flags int) {
	slot.entry().PrepareAccept(fd, addr, addrLen, flags)
}

func (slot *submissionSlot) SetToken(token uint64) {
	slot.entry().SetData64(token)
}

func (slot *submissionSlot) SetFlags(flags uint8) {
	slot.entry().SetFlags(flags)
}

type completionEntry struct {
	cqe *liburing.CompletionQueueEvent
}

func (c completionEntry) Token() uint64 {
	return c.cqe.UserData
}

func (c completionEntry) Res() int32 {
	return c.cqe.Res
}
