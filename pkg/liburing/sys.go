//go:build linux

package liburing

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	offsqRing uint64 = 0
	offcqRing uint64 = 0x8000000
	offSQEs   uint64 = 0x10000000
)

func sysSetup(entries uint32, params *Params) (int, error) {
	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(params)), 0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

func sysEnter(fd int, submitted uint32, waitNr uint32, flags uint32, sig unsafe.Pointer, size int) (uint, error) {
	consumed, _, errno := unix.Syscall6(
		unix.SYS_IO_URING_ENTER,
		uintptr(fd),
		uintptr(submitted),
		uintptr(waitNr),
		uintptr(flags),
		uintptr(sig),
		uintptr(size),
	)
	if errno != 0 {
		return 0, errno
	}
	return uint(consumed), nil
}

func sysRegister(fd int, opcode uint32, arg unsafe.Pointer, nrArgs uint32) (uint, error) {
	ret, _, errno := unix.Syscall6(
		unix.SYS_IO_URING_REGISTER,
		uintptr(fd),
		uintptr(opcode),
		uintptr(arg),
		uintptr(nrArgs),
		0,
		0,
	)
	if errno != 0 {
		return 0, errno
	}
	return uint(ret), nil
}

func mmap(length uintptr, fd int, offset uint64) (unsafe.Pointer, error) {
	ptr, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		0,
		length,
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_POPULATE),
		uintptr(fd),
		uintptr(offset),
	)
	if errno != 0 {
		return nil, errno
	}
	return unsafe.Pointer(ptr), nil
}

func munmap(addr unsafe.Pointer, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(addr), length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func increaseRlimitNoFile(nr uint64) error {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return err
	}
	if limit.Cur < nr {
		limit.Cur += nr
		if limit.Cur > limit.Max {
			limit.Cur = limit.Max
		}
		return syscall.Setrlimit(syscall.RLIMIT_NOFILE, &limit)
	}
	return nil
}
