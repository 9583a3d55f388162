//go:build linux

package liburing

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	IORING_OP_NOP uint8 = iota
	IORING_OP_READV
	IORING_OP_WRITEV
	IORING_OP_FSYNC
	IORING_OP_READ_FIXED
	IORING_OP_WRITE_FIXED
	IORING_OP_POLL_ADD
	IORING_OP_POLL_REMOVE
	IORING_OP_SYNC_FILE_RANGE
	IORING_OP_SENDMSG
	IORING_OP_RECVMSG
	IORING_OP_TIMEOUT
	IORING_OP_TIMEOUT_REMOVE
	IORING_OP_ACCEPT
	IORING_OP_ASYNC_CANCEL
	IORING_OP_LINK_TIMEOUT
	IORING_OP_CONNECT
	IORING_OP_FALLOCATE
	IORING_OP_OPENAT
	IORING_OP_CLOSE
	IORING_OP_FILES_UPDATE
	IORING_OP_STATX
	IORING_OP_READ
	IORING_OP_WRITE
	IORING_OP_FADVISE
	IORING_OP_MADVISE
	IORING_OP_SEND
	IORING_OP_RECV
	IORING_OP_OPENAT2
	IORING_OP_EPOLL_CTL
	IORING_OP_SPLICE
	IORING_OP_PROVIDE_BUFFERS
	IORING_OP_REMOVE_BUFFERS
	IORING_OP_TEE
	IORING_OP_SHUTDOWN
	IORING_OP_RENAMEAT
	IORING_OP_UNLINKAT
	IORING_OP_MKDIRAT
	IORING_OP_SYMLINKAT
	IORING_OP_LINKAT
	IORING_OP_MSG_RING
	IORING_OP_FSETXATTR
	IORING_OP_SETXATTR
	IORING_OP_FGETXATTR
	IORING_OP_GETXATTR
	IORING_OP_SOCKET
)

// Submission entry flags.
const (
	// IOSQE_FIXED_FILE
	// fd is an index into the fixed file table.
	IOSQE_FIXED_FILE uint8 = 1 << iota
	// IOSQE_IO_DRAIN
	// start only after every previously submitted entry has completed.
	IOSQE_IO_DRAIN
	// IOSQE_IO_LINK
	// the next entry starts after this one completes, a failure cancels the rest of the chain.
	IOSQE_IO_LINK
	// IOSQE_IO_HARDLINK
	// like IOSQE_IO_LINK but the chain is not broken by a failure.
	IOSQE_IO_HARDLINK
	IOSQE_ASYNC
	IOSQE_BUFFER_SELECT
	// IOSQE_CQE_SKIP_SUCCESS
	// post no completion when the operation succeeds.
	IOSQE_CQE_SKIP_SUCCESS
)

type SubmissionQueueEntry struct {
	OpCode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpcodeFlags uint32
	UserData    uint64
	BufIG       uint16
	Personality uint16
	SpliceFdIn  int32
	Addr3       uint64
	_pad2       [1]uint64
}

func (entry *SubmissionQueueEntry) prepareRW(opcode uint8, fd int, addr uintptr, length uint32, offset uint64) {
	*entry = SubmissionQueueEntry{
		OpCode: opcode,
		Fd:     int32(fd),
		Off:    offset,
		Addr:   uint64(addr),
		Len:    length,
	}
}

func (entry *SubmissionQueueEntry) SetData64(data uint64) {
	entry.UserData = data
}

func (entry *SubmissionQueueEntry) SetFlags(flags uint8) {
	entry.Flags = flags
}

func (entry *SubmissionQueueEntry) PrepareNop() {
	entry.prepareRW(IORING_OP_NOP, -1, 0, 0, 0)
}

func (entry *SubmissionQueueEntry) PrepareRead(fd int, buf uintptr, nbytes uint32, offset uint64) {
	entry.prepareRW(IORING_OP_READ, fd, buf, nbytes, offset)
}

func (entry *SubmissionQueueEntry) PrepareReadFixed(fd int, buf uintptr, nbytes uint32, offset uint64, bufIndex int) {
	entry.prepareRW(IORING_OP_READ_FIXED, fd, buf, nbytes, offset)
	entry.BufIG = uint16(bufIndex)
}

func (entry *SubmissionQueueEntry) PrepareWrite(fd int, buf uintptr, nbytes uint32, offset uint64) {
	entry.prepareRW(IORING_OP_WRITE, fd, buf, nbytes, offset)
}

func (entry *SubmissionQueueEntry) PrepareWriteFixed(fd int, buf uintptr, nbytes uint32, offset uint64, bufIndex int) {
	entry.prepareRW(IORING_OP_WRITE_FIXED, fd, buf, nbytes, offset)
	entry.BufIG = uint16(bufIndex)
}

// PrepareOpenat
// path must be NUL terminated and stay alive until the completion is reaped.
func (entry *SubmissionQueueEntry) PrepareOpenat(dirfd int, path *byte, flags int, mode uint32) {
	entry.prepareRW(IORING_OP_OPENAT, dirfd, uintptr(unsafe.Pointer(path)), mode, 0)
	entry.OpcodeFlags = uint32(flags)
}

func (entry *SubmissionQueueEntry) PrepareClose(fd int) {
	entry.prepareRW(IORING_OP_CLOSE, fd, 0, 0, 0)
}

func (entry *SubmissionQueueEntry) PrepareSocket(domain int, typ int, protocol int, flags uint32) {
	entry.prepareRW(IORING_OP_SOCKET, domain, 0, uint32(protocol), uint64(typ))
	entry.OpcodeFlags = flags
}

func (entry *SubmissionQueueEntry) PrepareConnect(fd int, addr *unix.RawSockaddrAny, addrLen uint32) {
	entry.prepareRW(IORING_OP_CONNECT, fd, uintptr(unsafe.Pointer(addr)), 0, uint64(addrLen))
}

func (entry *SubmissionQueueEntry) PrepareSend(fd int, buf uintptr, length uint32, flags int) {
	entry.prepareRW(IORING_OP_SEND, fd, buf, length, 0)
	entry.OpcodeFlags = uint32(flags)
}

func (entry *SubmissionQueueEntry) PrepareRecv(fd int, buf uintptr, length uint32, flags int) {
	entry.prepareRW(IORING_OP_RECV, fd, buf, length, 0)
	entry.OpcodeFlags = uint32(flags)
}

// PrepareAccept
// addr and addrLen may be nil when the peer address is not wanted.
func (entry *SubmissionQueueEntry) PrepareAccept(fd int, addr *unix.RawSockaddrAny, addrLen *uint32, flags int) {
	entry.prepareRW(IORING_OP_ACCEPT, fd, uintptr(unsafe.Pointer(addr)), 0, uint64(uintptr(unsafe.Pointer(addrLen))))
	entry.OpcodeFlags = uint32(flags)
}
