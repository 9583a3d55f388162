//go:build linux

package lio_test

import (
	"errors"
	"sync"
	"syscall"

	"github.com/brickingsoft/lio"
	"golang.org/x/sys/unix"
)

type fakeOp uint8

const (
	fakeNop fakeOp = iota
	fakeRead
	fakeReadFixed
	fakeWrite
	fakeWriteFixed
	fakeOpen
	fakeClose
	fakeSocket
	fakeConnect
	fakeSend
	fakeRecv
	fakeAccept
)

// fakeSlot records what the builder armed. Flush executes it with plain syscalls.
type fakeSlot struct {
	op      fakeOp
	fd      int
	p       []byte
	offset  uint64
	index   int
	path    []byte
	flags   int
	mode    uint32
	domain  int
	typ     int
	proto   int
	token   uint64
	sqFlags uint8
}

func (s *fakeSlot) ArmNop() { *s = fakeSlot{op: fakeNop} }

func (s *fakeSlot) ArmRead(fd int, p []byte, offset uint64) {
	*s = fakeSlot{op: fakeRead, fd: fd, p: p, offset: offset}
}

func (s *fakeSlot) ArmReadFixed(fd int, p []byte, offset uint64, index int) {
	*s = fakeSlot{op: fakeReadFixed, fd: fd, p: p, offset: offset, index: index}
}

func (s *fakeSlot) ArmWrite(fd int, p []byte, offset uint64) {
	*s = fakeSlot{op: fakeWrite, fd: fd, p: p, offset: offset}
}

func (s *fakeSlot) ArmWriteFixed(fd int, p []byte, offset uint64, index int) {
	*s = fakeSlot{op: fakeWriteFixed, fd: fd, p: p, offset: offset, index: index}
}

func (s *fakeSlot) ArmOpen(dirfd int, path []byte, flags int, mode uint32) {
	*s = fakeSlot{op: fakeOpen, fd: dirfd, path: path, flags: flags, mode: mode}
}

func (s *fakeSlot) ArmClose(fd int) { *s = fakeSlot{op: fakeClose, fd: fd} }

func (s *fakeSlot) ArmSocket(domain int, typ int, proto int) {
	*s = fakeSlot{op: fakeSocket, domain: domain, typ: typ, proto: proto}
}

func (s *fakeSlot) ArmConnect(fd int, _ *unix.RawSockaddrAny, _ uint32) {
	*s = fakeSlot{op: fakeConnect, fd: fd}
}

func (s *fakeSlot) ArmSend(fd int, p []byte, flags int) {
	*s = fakeSlot{op: fakeSend, fd: fd, p: p, flags: flags}
}

func (s *fakeSlot) ArmRecv(fd int, p []byte, flags int) {
	*s = fakeSlot{op: fakeRecv, fd: fd, p: p, flags: flags}
}

func (s *fakeSlot) ArmAccept(fd int, _ *unix.RawSockaddrAny, _ *uint32, flags int) {
	*s = fakeSlot{op: fakeAccept, fd: fd, flags: flags}
}

func (s *fakeSlot) SetToken(token uint64) { s.token = token }

func (s *fakeSlot) SetFlags(flags uint8) { s.sqFlags = flags }

type fakeCompletion struct {
	token uint64
	res   int32
}

func (c fakeCompletion) Token() uint64 { return c.token }

func (c fakeCompletion) Res() int32 { return c.res }

// fakeTransport
// is an in-memory ring of the given depth. Completions are produced at Flush,
// in submission order or reversed.
type fakeTransport struct {
	mu                 sync.Mutex
	cond               *sync.Cond
	depth              int
	reverse            bool
	queued             []*fakeSlot
	ready              []fakeCompletion
	fixedFiles         []int
	fixedBuffers       [][]byte
	ops                map[fakeOp]int
	sqFlags            []uint8
	flushes            int
	closed             bool
	registerFilesErr   error
	registerBuffersErr error
}

func newFakeTransport(depth int) *fakeTransport {
	t := &fakeTransport{
		depth: depth,
		ops:   make(map[fakeOp]int),
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *fakeTransport) GetSlot() (lio.Slot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queued) >= t.depth {
		return nil, false
	}
	slot := &fakeSlot{}
	t.queued = append(t.queued, slot)
	return slot, true
}

func (t *fakeTransport) Flush() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, syscall.EBADF
	}
	t.flushes++
	batch := make([]fakeCompletion, 0, len(t.queued))
	for _, slot := range t.queued {
		t.ops[slot.op]++
		t.sqFlags = append(t.sqFlags, slot.sqFlags)
		res := t.execute(slot)
		if res >= 0 && slot.sqFlags&uint8(lio.SkipSuccess) != 0 {
			continue
		}
		batch = append(batch, fakeCompletion{token: slot.token, res: res})
	}
	n := len(t.queued)
	t.queued = t.queued[:0]
	if t.reverse {
		for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
			batch[i], batch[j] = batch[j], batch[i]
		}
	}
	t.ready = append(t.ready, batch...)
	t.cond.Broadcast()
	return n, nil
}

func (t *fakeTransport) fd(slot *fakeSlot) int {
	if slot.sqFlags&uint8(lio.FixedFile) != 0 {
		if slot.fd < 0 || slot.fd >= len(t.fixedFiles) {
			return -1
		}
		return t.fixedFiles[slot.fd]
	}
	return slot.fd
}

func (t *fakeTransport) execute(slot *fakeSlot) int32 {
	switch slot.op {
	case fakeNop:
		return 0
	case fakeRead, fakeReadFixed:
		n, err := unix.Pread(t.fd(slot), slot.p, int64(slot.offset))
		return resOf(n, err)
	case fakeWrite, fakeWriteFixed:
		n, err := unix.Pwrite(t.fd(slot), slot.p, int64(slot.offset))
		return resOf(n, err)
	case fakeOpen:
		path := string(slot.path[:len(slot.path)-1])
		fd, err := unix.Openat(slot.fd, path, slot.flags, slot.mode)
		return resOf(fd, err)
	case fakeClose:
		return resOf(0, unix.Close(slot.fd))
	case fakeSocket:
		fd, err := unix.Socket(slot.domain, slot.typ, slot.proto)
		return resOf(fd, err)
	case fakeSend:
		n, err := unix.SendmsgN(t.fd(slot), slot.p, nil, nil, slot.flags)
		return resOf(n, err)
	case fakeRecv:
		n, _, err := unix.Recvfrom(t.fd(slot), slot.p, slot.flags)
		return resOf(n, err)
	default:
		return -int32(unix.EOPNOTSUPP)
	}
}

func resOf(n int, err error) int32 {
	if err == nil {
		return int32(n)
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int32(errno)
	}
	return -int32(unix.EIO)
}

// inject
// appends a completion nobody prepared.
func (t *fakeTransport) inject(token uint64, res int32) {
	t.mu.Lock()
	t.ready = append(t.ready, fakeCompletion{token: token, res: res})
	t.cond.Broadcast()
	t.mu.Unlock()
}

func (t *fakeTransport) WaitOne() (lio.Completion, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.ready) == 0 && !t.closed {
		t.cond.Wait()
	}
	if len(t.ready) == 0 {
		return nil, syscall.EBADF
	}
	return t.ready[0], nil
}

func (t *fakeTransport) PeekOne() (lio.Completion, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.ready) == 0 {
		return nil, false, nil
	}
	return t.ready[0], true, nil
}

func (t *fakeTransport) PeekBatch(max int) ([]lio.Completion, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := min(max, len(t.ready))
	completions := make([]lio.Completion, n)
	for i := 0; i < n; i++ {
		completions[i] = t.ready[i]
	}
	return completions, nil
}

func (t *fakeTransport) Acknowledge(_ lio.Completion) {
	t.mu.Lock()
	t.ready = t.ready[1:]
	t.mu.Unlock()
}

func (t *fakeTransport) RegisterBuffers(buffers [][]byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.registerBuffersErr != nil {
		return t.registerBuffersErr
	}
	t.fixedBuffers = buffers
	return nil
}

func (t *fakeTransport) RegisterFiles(fds []int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.registerFilesErr != nil {
		return t.registerFilesErr
	}
	t.fixedFiles = append([]int(nil), fds...)
	return nil
}

func (t *fakeTransport) UpdateRegisteredFiles(offset int, fds []int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	copy(t.fixedFiles[offset:], fds)
	return nil
}

func (t *fakeTransport) Capacity() int {
	return t.depth
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.cond.Broadcast()
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) count(op fakeOp) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ops[op]
}

func (t *fakeTransport) flags() []uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]uint8(nil), t.sqFlags...)
}
