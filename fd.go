//go:build linux

package lio

import (
	"os"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

// CloseSubmitter
// closes a descriptor through the ring. Uring and Blocking both implement it.
type CloseSubmitter interface {
	SubmitClose(fd int) error
}

// FileDescriptor
// wraps a raw descriptor whose close goes through the ring.
// Close is effective once, later calls are no-ops. A close the ring never took,
// because the queue stayed full or the engine is closed, leaves the descriptor open
// and Close may be called again.
type FileDescriptor struct {
	fd     int
	closed atomic.Bool
	closer CloseSubmitter
}

func NewFileDescriptor(fd int, closer CloseSubmitter) *FileDescriptor {
	return &FileDescriptor{fd: fd, closer: closer}
}

// OpenFileDescriptor
// opens path synchronously and returns its handle.
func OpenFileDescriptor(path string, flag int, perm uint32, closer CloseSubmitter) (*FileDescriptor, error) {
	fd, err := unix.Open(path, flag|unix.O_CLOEXEC, perm)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return NewFileDescriptor(fd, closer), nil
}

func (fd *FileDescriptor) Fd() int {
	return fd.fd
}

func (fd *FileDescriptor) Closed() bool {
	return fd.closed.Load()
}

func (fd *FileDescriptor) Close() error {
	if !fd.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := fd.closer.SubmitClose(fd.fd); err != nil {
		if IsSubmissionQueueFull(err) || IsClosed(err) {
			fd.closed.Store(false)
		}
		return errors.New(
			"close descriptor failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpClose),
			errors.WithWrap(err),
		)
	}
	return nil
}

// FileDescriptor
// wraps the descriptor produced by Open, Socket or Accept.
func (r Result) FileDescriptor(closer CloseSubmitter) (*FileDescriptor, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	fd := r.Fd()
	if fd < 0 {
		return nil, ErrNoDescriptor
	}
	return NewFileDescriptor(fd, closer), nil
}
