//go:build linux

package liburing

import (
	"syscall"
	"unsafe"
)

func (ring *Ring) setup(entries uint32, params *Params) (err error) {
	sqEntries, cqEntries, sizeErr := getSqCqEntries(entries, params)
	if sizeErr != nil {
		return sizeErr
	}
	if params.flags&IORING_SETUP_CQSIZE != 0 {
		params.cqEntries = cqEntries
	}

	fd, setupErr := sysSetup(sqEntries, params)
	if setupErr != nil {
		return setupErr
	}

	if err = mmapRing(fd, params, ring.sqRing, ring.cqRing); err != nil {
		_ = syscall.Close(fd)
		return
	}

	sq := ring.sqRing
	for i := uint32(0); i < *sq.ringEntries; i++ {
		*(*uint32)(unsafe.Add(unsafe.Pointer(sq.array), uintptr(i)*4)) = i
	}

	syscall.CloseOnExec(fd)

	ring.fd = fd
	ring.flags = params.flags
	ring.features = params.features
	return
}

func mmapRing(fd int, p *Params, sq *SubmissionQueue, cq *CompletionQueue) (err error) {
	sq.ringSize = uint(p.sqOff.array) + uint(p.sqEntries)*4
	cq.ringSize = uint(p.cqOff.cqes) + uint(p.cqEntries)*uint(unsafe.Sizeof(CompletionQueueEvent{}))

	singleMmap := p.features&IORING_FEAT_SINGLE_MMAP != 0
	if singleMmap {
		if cq.ringSize > sq.ringSize {
			sq.ringSize = cq.ringSize
		}
		cq.ringSize = sq.ringSize
	}

	sq.ringPtr, err = mmap(uintptr(sq.ringSize), fd, offsqRing)
	if err != nil {
		sq.ringPtr = nil
		return
	}

	if singleMmap {
		cq.ringPtr = sq.ringPtr
	} else {
		cq.ringPtr, err = mmap(uintptr(cq.ringSize), fd, offcqRing)
		if err != nil {
			cq.ringPtr = nil
			unmapRings(sq, cq)
			return
		}
	}

	sqes, sqesErr := mmap(uintptr(p.sqEntries)*unsafe.Sizeof(SubmissionQueueEntry{}), fd, offSQEs)
	if sqesErr != nil {
		unmapRings(sq, cq)
		err = sqesErr
		return
	}
	sq.sqes = (*SubmissionQueueEntry)(sqes)
	sq.sqesEntries = p.sqEntries

	setupRingPointers(p, sq, cq)
	return
}

func setupRingPointers(p *Params, sq *SubmissionQueue, cq *CompletionQueue) {
	sq.head = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.head))
	sq.tail = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.tail))
	sq.ringMask = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.ringMask))
	sq.ringEntries = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.ringEntries))
	sq.flags = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.flags))
	sq.dropped = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.dropped))
	sq.array = (*uint32)(unsafe.Add(sq.ringPtr, p.sqOff.array))

	cq.head = (*uint32)(unsafe.Add(cq.ringPtr, p.cqOff.head))
	cq.tail = (*uint32)(unsafe.Add(cq.ringPtr, p.cqOff.tail))
	cq.ringMask = (*uint32)(unsafe.Add(cq.ringPtr, p.cqOff.ringMask))
	cq.ringEntries = (*uint32)(unsafe.Add(cq.ringPtr, p.cqOff.ringEntries))
	cq.overflow = (*uint32)(unsafe.Add(cq.ringPtr, p.cqOff.overflow))
	cq.cqes = (*CompletionQueueEvent)(unsafe.Add(cq.ringPtr, p.cqOff.cqes))
	if p.cqOff.flags != 0 {
		cq.flags = (*uint32)(unsafe.Add(cq.ringPtr, p.cqOff.flags))
	}
}

func unmapRings(sq *SubmissionQueue, cq *CompletionQueue) {
	if sq.ringPtr != nil && sq.ringSize > 0 {
		_ = munmap(sq.ringPtr, uintptr(sq.ringSize))
	}
	if cq.ringPtr != nil && cq.ringSize > 0 && cq.ringPtr != sq.ringPtr {
		_ = munmap(cq.ringPtr, uintptr(cq.ringSize))
	}
	sq.ringPtr = nil
	cq.ringPtr = nil
}
