//go:build linux

package liburing

import (
	"errors"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	IORING_REGISTER_BUFFERS uint32 = iota
	IORING_UNREGISTER_BUFFERS
	IORING_REGISTER_FILES
	IORING_UNREGISTER_FILES
	IORING_REGISTER_EVENTFD
	IORING_UNREGISTER_EVENTFD
	IORING_REGISTER_FILES_UPDATE
	IORING_REGISTER_EVENTFD_ASYNC
	IORING_REGISTER_PROBE
	IORING_REGISTER_PERSONALITY
	IORING_UNREGISTER_PERSONALITY
	IORING_REGISTER_RESTRICTIONS
	IORING_REGISTER_ENABLE_RINGS
	IORING_REGISTER_FILES2
	IORING_REGISTER_FILES_UPDATE2
	IORING_REGISTER_BUFFERS2
	IORING_REGISTER_BUFFERS_UPDATE
	IORING_REGISTER_IOWQ_AFF
	IORING_UNREGISTER_IOWQ_AFF
	IORING_REGISTER_IOWQ_MAX_WORKERS
)

type FilesUpdate struct {
	Offset uint32
	resv   uint32
	Fds    uint64
}

// RegisterBuffers
// pins buffers as fixed buffers, indexed in slice order.
// The memory of every buffer must stay valid until UnregisterBuffers or Close.
func (ring *Ring) RegisterBuffers(buffers [][]byte) (uint, error) {
	if len(buffers) == 0 {
		return 0, syscall.EINVAL
	}
	iovecs := make([]unix.Iovec, len(buffers))
	for i, b := range buffers {
		if len(b) == 0 {
			return 0, syscall.EINVAL
		}
		iovecs[i].Base = &b[0]
		iovecs[i].SetLen(len(b))
	}
	n, err := ring.doRegister(IORING_REGISTER_BUFFERS, unsafe.Pointer(&iovecs[0]), uint32(len(iovecs)))
	runtime.KeepAlive(iovecs)
	return n, err
}

func (ring *Ring) UnregisterBuffers() (uint, error) {
	return ring.doRegister(IORING_UNREGISTER_BUFFERS, nil, 0)
}

// RegisterFiles
// installs fds into the fixed file table, slot i holds files[i].
// On EMFILE the RLIMIT_NOFILE soft limit is raised once and the call retried.
func (ring *Ring) RegisterFiles(files []int32) (uint, error) {
	if len(files) == 0 {
		return 0, syscall.EINVAL
	}
	var (
		n   uint
		err error
	)
	didIncrease := false
	for {
		n, err = ring.doRegister(IORING_REGISTER_FILES, unsafe.Pointer(&files[0]), uint32(len(files)))
		if err == nil {
			break
		}
		if errors.Is(err, syscall.EMFILE) && !didIncrease {
			didIncrease = true
			if rlimitErr := increaseRlimitNoFile(uint64(len(files))); rlimitErr != nil {
				break
			}
			continue
		}
		break
	}
	runtime.KeepAlive(files)
	return n, err
}

// RegisterFilesUpdate
// replaces the fixed files starting at off, -1 clears a slot.
func (ring *Ring) RegisterFilesUpdate(off uint32, files []int32) (uint, error) {
	if len(files) == 0 {
		return 0, syscall.EINVAL
	}
	update := &FilesUpdate{
		Offset: off,
		Fds:    uint64(uintptr(unsafe.Pointer(&files[0]))),
	}
	n, err := ring.doRegister(IORING_REGISTER_FILES_UPDATE, unsafe.Pointer(update), uint32(len(files)))
	runtime.KeepAlive(files)
	runtime.KeepAlive(update)
	return n, err
}

func (ring *Ring) UnregisterFiles() (uint, error) {
	return ring.doRegister(IORING_UNREGISTER_FILES, nil, 0)
}

// RegisterIOWQMaxWorkers
// sets the bounded and unbounded io-wq worker limits, values[0] and values[1].
// The previous limits are written back into values.
func (ring *Ring) RegisterIOWQMaxWorkers(values []uint) (uint, error) {
	if len(values) != 2 {
		return 0, syscall.EINVAL
	}
	arg := [2]uint32{uint32(values[0]), uint32(values[1])}
	n, err := ring.doRegister(IORING_REGISTER_IOWQ_MAX_WORKERS, unsafe.Pointer(&arg[0]), 2)
	if err == nil {
		values[0] = uint(arg[0])
		values[1] = uint(arg[1])
	}
	return n, err
}

func (ring *Ring) doRegister(opcode uint32, arg unsafe.Pointer, nrArgs uint32) (uint, error) {
	n, err := sysRegister(ring.fd, opcode, arg, nrArgs)
	if err != nil {
		return 0, os.NewSyscallError("io_uring_register", err)
	}
	return n, nil
}
