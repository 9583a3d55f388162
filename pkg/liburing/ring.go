//go:build linux

package liburing

import (
	"errors"
	"syscall"
	"unsafe"
)

var (
	errInvalidEntries = errors.New("invalid entries")
	errRingClosed     = errors.New("ring closed")
)

// New
// creates an io_uring instance with its rings mapped into the process.
func New(options ...Option) (ring *Ring, err error) {
	opts := Options{
		Entries: DefaultEntries,
	}
	for _, option := range options {
		if err = option(&opts); err != nil {
			return
		}
	}

	params := &Params{
		cqEntries:    opts.CQEntries,
		flags:        opts.Flags,
		sqThreadCPU:  opts.SQThreadCPU,
		sqThreadIdle: opts.SQThreadIdle,
		wqFd:         opts.WQFd,
	}
	if err = params.Validate(); err != nil {
		return
	}

	r := &Ring{
		sqRing: &SubmissionQueue{},
		cqRing: &CompletionQueue{},
		fd:     -1,
	}
	if err = r.setup(opts.Entries, params); err != nil {
		return
	}
	if len(opts.IOWQMaxWorkers) == 2 {
		if _, err = r.RegisterIOWQMaxWorkers(opts.IOWQMaxWorkers); err != nil {
			_ = r.Close()
			return
		}
	}
	ring = r
	return
}

type Ring struct {
	sqRing   *SubmissionQueue
	cqRing   *CompletionQueue
	flags    uint32
	features uint32
	fd       int
}

func (ring *Ring) Fd() int {
	return ring.fd
}

func (ring *Ring) Flags() uint32 {
	return ring.flags
}

func (ring *Ring) Features() uint32 {
	return ring.features
}

// SQEntries
// is the number of submission queue entries the kernel granted.
func (ring *Ring) SQEntries() uint32 {
	return *ring.sqRing.ringEntries
}

func (ring *Ring) CQEntries() uint32 {
	return *ring.cqRing.ringEntries
}

func (ring *Ring) Close() (err error) {
	if ring.fd == -1 {
		return errRingClosed
	}
	sq := ring.sqRing
	cq := ring.cqRing
	if sq.sqes != nil {
		_ = munmap(unsafe.Pointer(sq.sqes), uintptr(sq.sqesEntries)*unsafe.Sizeof(SubmissionQueueEntry{}))
		sq.sqes = nil
	}
	unmapRings(sq, cq)
	err = syscall.Close(ring.fd)
	ring.fd = -1
	return
}
