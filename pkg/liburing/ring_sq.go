//go:build linux

package liburing

import (
	"sync/atomic"
	"unsafe"
)

// SQ ring flags, written by the kernel.
const (
	IORING_SQ_NEED_WAKEUP uint32 = 1 << iota
	IORING_SQ_CQ_OVERFLOW
	IORING_SQ_TASKRUN
)

type SubmissionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    *uint32
	ringEntries *uint32
	flags       *uint32
	dropped     *uint32
	array       *uint32
	sqes        *SubmissionQueueEntry
	sqesEntries uint32
	ringSize    uint
	ringPtr     unsafe.Pointer
	sqeHead     uint32
	sqeTail     uint32
}

// GetSQE
// returns the next free submission entry, zeroed, or nil when the queue is full.
// The entry is not visible to the kernel until Submit.
func (ring *Ring) GetSQE() *SubmissionQueueEntry {
	sq := ring.sqRing
	head := atomic.LoadUint32(sq.head)
	next := sq.sqeTail + 1
	if next-head > *sq.ringEntries {
		return nil
	}
	sqe := (*SubmissionQueueEntry)(unsafe.Add(unsafe.Pointer(sq.sqes), uintptr(sq.sqeTail&*sq.ringMask)*unsafe.Sizeof(SubmissionQueueEntry{})))
	sq.sqeTail = next
	*sqe = SubmissionQueueEntry{}
	return sqe
}

// SQReady
// is the number of entries handed out by GetSQE and not yet consumed by the kernel.
func (ring *Ring) SQReady() uint32 {
	return ring.sqRing.sqeTail - atomic.LoadUint32(ring.sqRing.head)
}

func (ring *Ring) SQSpaceLeft() uint32 {
	return *ring.sqRing.ringEntries - ring.SQReady()
}

// Submit
// publishes every entry obtained since the last call and enters the kernel when needed.
// It returns the number of entries the kernel consumed.
func (ring *Ring) Submit() (uint, error) {
	return ring.submit(ring.flushSQ(), 0, false)
}

func (ring *Ring) SubmitAndWait(waitNr uint32) (uint, error) {
	return ring.submit(ring.flushSQ(), waitNr, false)
}

func (ring *Ring) flushSQ() uint32 {
	sq := ring.sqRing
	tail := sq.sqeTail
	if sq.sqeHead != tail {
		sq.sqeHead = tail
		atomic.StoreUint32(sq.tail, tail)
	}
	return tail - atomic.LoadUint32(sq.head)
}

func (ring *Ring) submit(submitted uint32, waitNr uint32, getEvents bool) (uint, error) {
	cqNeedsEnter := getEvents || waitNr != 0 || ring.cqRingNeedsEnter()

	flags := uint32(0)
	if ring.sqRingNeedsEnter(submitted, &flags) || cqNeedsEnter {
		if cqNeedsEnter {
			flags |= IORING_ENTER_GETEVENTS
		}
		return ring.Enter(submitted, waitNr, flags, nil)
	}
	return uint(submitted), nil
}

func (ring *Ring) sqRingNeedsEnter(submit uint32, flags *uint32) bool {
	if submit == 0 {
		return false
	}
	if ring.flags&IORING_SETUP_SQPOLL == 0 {
		return true
	}
	if atomic.LoadUint32(ring.sqRing.flags)&IORING_SQ_NEED_WAKEUP != 0 {
		*flags |= IORING_ENTER_SQ_WAKEUP
		return true
	}
	return false
}

func (ring *Ring) cqRingNeedsFlush() bool {
	return atomic.LoadUint32(ring.sqRing.flags)&(IORING_SQ_CQ_OVERFLOW|IORING_SQ_TASKRUN) != 0
}

func (ring *Ring) cqRingNeedsEnter() bool {
	return ring.flags&IORING_SETUP_IOPOLL != 0 || ring.cqRingNeedsFlush()
}
