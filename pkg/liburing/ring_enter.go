//go:build linux

package liburing

import (
	"unsafe"
)

const (
	IORING_ENTER_GETEVENTS uint32 = 1 << iota
	IORING_ENTER_SQ_WAKEUP
	IORING_ENTER_SQ_WAIT
	IORING_ENTER_EXT_ARG
	IORING_ENTER_REGISTERED_RING
)

const nSig = 65

// Enter
// see https://manpages.debian.org/unstable/liburing-dev/io_uring_enter.2.en.html
func (ring *Ring) Enter(submitted uint32, waitNr uint32, flags uint32, sig unsafe.Pointer) (uint, error) {
	return sysEnter(ring.fd, submitted, waitNr, flags, sig, nSig/8)
}
