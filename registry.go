//go:build linux

package lio

import (
	"os"
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Registry
// holds the fixed files and fixed buffers of a ring. Each table is registered once
// and stays unchanged until Close.
type Registry struct {
	mu        sync.Mutex
	transport Transport
	allocator Allocator
	files     *FixedFiles
	buffers   []*FixedBuffer
	log       zerolog.Logger
}

// RegisterFiles
// opens every distinct path once with flag and registers the descriptors as fixed files,
// slot i being the i-th distinct path. Nothing is kept when any step fails.
func (reg *Registry) RegisterFiles(paths []string, flag int) (*FixedFiles, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.files != nil {
		return nil, ErrAlreadyRegistered
	}
	if len(paths) == 0 {
		return nil, ErrInvalidLength
	}

	files := &FixedFiles{
		slots: make(map[string]int, len(paths)),
		paths: make([]string, 0, len(paths)),
		fds:   make([]int, 0, len(paths)),
	}
	for _, path := range paths {
		if _, ok := files.slots[path]; ok {
			continue
		}
		fd, err := unix.Open(path, flag|unix.O_CLOEXEC, 0)
		if err != nil {
			closeAll(files.fds)
			return nil, errors.From(
				ErrRegister,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpRegisterFiles),
				errors.WithMeta("path", path),
				errors.WithWrap(&os.PathError{Op: "open", Path: path, Err: err}),
			)
		}
		files.slots[path] = len(files.fds)
		files.paths = append(files.paths, path)
		files.fds = append(files.fds, fd)
	}

	if err := reg.transport.RegisterFiles(files.fds); err != nil {
		closeAll(files.fds)
		return nil, errors.From(
			ErrRegister,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRegisterFiles),
			errors.WithWrap(err),
		)
	}
	reg.files = files
	reg.log.Debug().Int("files", files.Len()).Msg("fixed files registered")
	return files, nil
}

// RegisterBuffers
// allocates count buffers of size bytes and registers them, buffer i at index i.
func (reg *Registry) RegisterBuffers(size int, count int) ([]*FixedBuffer, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.buffers != nil {
		return nil, ErrAlreadyRegistered
	}
	if size < 1 || count < 1 {
		return nil, ErrInvalidLength
	}

	buffers := make([]*FixedBuffer, 0, count)
	regions := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		buf, err := newBuffer(reg.allocator, size)
		if err != nil {
			releaseFixed(buffers)
			return nil, errors.From(
				ErrRegister,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpRegisterBuffers),
				errors.WithWrap(err),
			)
		}
		buffers = append(buffers, &FixedBuffer{index: i, buf: buf})
		regions = append(regions, buf.Bytes())
	}

	if err := reg.transport.RegisterBuffers(regions); err != nil {
		releaseFixed(buffers)
		return nil, errors.From(
			ErrRegister,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRegisterBuffers),
			errors.WithWrap(err),
		)
	}
	reg.buffers = buffers
	reg.log.Debug().Int("buffers", count).Int("size", size).Msg("fixed buffers registered")
	return buffers, nil
}

// UpdateFiles
// always fails with ErrRegistryImmutable. Register a fresh engine to change the table.
func (reg *Registry) UpdateFiles(offset int, fds []int) error {
	return ErrRegistryImmutable
}

func (reg *Registry) FixedFiles() (*FixedFiles, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.files == nil {
		return nil, ErrNotRegistered
	}
	return reg.files, nil
}

func (reg *Registry) FixedBuffers() ([]*FixedBuffer, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.buffers == nil {
		return nil, ErrNotRegistered
	}
	return reg.buffers, nil
}

// close
// closes the registered descriptors and releases the buffers. The ring must be gone already.
func (reg *Registry) close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.files != nil {
		closeAll(reg.files.fds)
		reg.log.Debug().Int("files", reg.files.Len()).Msg("fixed files closed")
	}
	if reg.buffers != nil {
		releaseFixed(reg.buffers)
	}
}

func closeAll(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}

func releaseFixed(buffers []*FixedBuffer) {
	for _, fb := range buffers {
		_ = fb.buf.Release()
	}
}
