//go:build linux

package liburing

import (
	"syscall"
	"sync/atomic"
	"unsafe"
)

type CompletionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    *uint32
	ringEntries *uint32
	flags       *uint32
	overflow    *uint32
	cqes        *CompletionQueueEvent
	ringSize    uint
	ringPtr     unsafe.Pointer
}

// CQReady
// is the number of completions posted and not yet advanced past.
func (ring *Ring) CQReady() uint32 {
	return atomic.LoadUint32(ring.cqRing.tail) - *ring.cqRing.head
}

// WaitCQE
// blocks until one completion is available. The entry stays in the ring until CQESeen.
func (ring *Ring) WaitCQE() (*CompletionQueueEvent, error) {
	if cqe, _ := ring.peekCQE(); cqe != nil {
		return cqe, nil
	}
	return ring.WaitCQENr(1)
}

// PeekCQE
// returns a completion when one is available, syscall.EAGAIN otherwise.
func (ring *Ring) PeekCQE() (*CompletionQueueEvent, error) {
	if cqe, _ := ring.peekCQE(); cqe != nil {
		return cqe, nil
	}
	return ring.WaitCQENr(0)
}

func (ring *Ring) WaitCQENr(waitNr uint32) (*CompletionQueueEvent, error) {
	return ring.getCQE(0, waitNr)
}

// PeekBatchCQE
// fills cqes with up to len(cqes) available completions without blocking.
func (ring *Ring) PeekBatchCQE(cqes []*CompletionQueueEvent) uint32 {
	ready := ring.CQReady()
	if ready == 0 && ring.cqRingNeedsFlush() {
		_, _ = ring.Enter(0, 0, IORING_ENTER_GETEVENTS, nil)
		ready = ring.CQReady()
	}
	if ready == 0 {
		return 0
	}
	count := uint32(len(cqes))
	if ready < count {
		count = ready
	}
	cq := ring.cqRing
	head := *cq.head
	mask := *cq.ringMask
	for i := uint32(0); i < count; i++ {
		cqes[i] = cq.at((head + i) & mask)
	}
	return count
}

// CQAdvance
// hands n completions back to the kernel.
func (ring *Ring) CQAdvance(n uint32) {
	if n > 0 {
		atomic.StoreUint32(ring.cqRing.head, *ring.cqRing.head+n)
	}
}

func (ring *Ring) CQESeen(cqe *CompletionQueueEvent) {
	if cqe != nil {
		ring.CQAdvance(1)
	}
}

func (cq *CompletionQueue) at(index uint32) *CompletionQueueEvent {
	return (*CompletionQueueEvent)(unsafe.Add(unsafe.Pointer(cq.cqes), uintptr(index)*unsafe.Sizeof(CompletionQueueEvent{})))
}

func (ring *Ring) peekCQE() (*CompletionQueueEvent, uint32) {
	cq := ring.cqRing
	tail := atomic.LoadUint32(cq.tail)
	head := *cq.head
	available := tail - head
	if available == 0 {
		return nil, 0
	}
	return cq.at(head & *cq.ringMask), available
}

func (ring *Ring) getCQE(submit uint32, waitNr uint32) (*CompletionQueueEvent, error) {
	looped := false
	for {
		needEnter := false
		flags := uint32(0)
		cqe, available := ring.peekCQE()
		if cqe == nil && waitNr == 0 && submit == 0 {
			if looped || !ring.cqRingNeedsEnter() {
				return nil, syscall.EAGAIN
			}
			needEnter = true
		}
		if waitNr > available || needEnter {
			flags = IORING_ENTER_GETEVENTS
			needEnter = true
		}
		if ring.sqRingNeedsEnter(submit, &flags) {
			needEnter = true
		}
		if !needEnter {
			return cqe, nil
		}
		consumed, err := ring.Enter(submit, waitNr, flags, nil)
		if err != nil {
			return nil, err
		}
		submit -= uint32(consumed)
		if cqe != nil {
			return cqe, nil
		}
		looped = true
	}
}
