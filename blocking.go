//go:build linux

package lio

import (
	"context"
	"net/netip"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/lio/pkg/process"
	"github.com/brickingsoft/lio/pkg/semaphores"
	"github.com/rs/zerolog"
)

// Blocking
// runs one poller goroutine that owns the completion side of an engine and resolves
// a Handle per operation. Prepare calls return the handle at once, callers block on it
// only when they need the value.
//
// Operations still in flight at Close are not cancelled, their handles fail with ErrClosed.
// Operations prepared with SkipSuccess resolve only on failure or at Close.
type Blocking struct {
	uring     *Uring
	mu        sync.Mutex
	waiting   sync.Map
	stopping  atomic.Bool
	closed    atomic.Bool
	stopToken atomic.Uint64
	done      chan struct{}
	wake      *semaphores.Semaphores
	log       zerolog.Logger
}

// NewBlocking
// creates an engine over a new io_uring instance and starts its poller.
func NewBlocking(options ...Option) (*Blocking, error) {
	u, err := New(options...)
	if err != nil {
		return nil, err
	}
	return newBlocking(u)
}

// NewBlockingWithTransport
// is NewBlocking over t.
func NewBlockingWithTransport(t Transport, options ...Option) (*Blocking, error) {
	u, err := NewWithTransport(t, options...)
	if err != nil {
		return nil, err
	}
	return newBlocking(u)
}

func newBlocking(u *Uring) (*Blocking, error) {
	b := &Blocking{
		uring: u,
		done:  make(chan struct{}),
		log:   u.log,
	}
	if u.interval > 0 {
		wake, err := semaphores.New(u.interval)
		if err != nil {
			_ = u.Close()
			return nil, errors.From(
				ErrSetup,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpSetup),
				errors.WithWrap(err),
			)
		}
		b.wake = wake
		u.Builder.submitted = wake.Signal
	}
	go b.poll()
	return b, nil
}

// track
// prepares one operation and parks its handle. Both happen under the lock Submit takes,
// so no completion can reach the poller before its handle is stored.
func (b *Blocking) track(prepare func() (Token, error)) (*Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopping.Load() {
		return nil, ErrClosed
	}
	token, err := prepare()
	if err != nil {
		return nil, err
	}
	h := newHandle(token)
	b.waiting.Store(token, h)
	return h, nil
}

// Submit
// flushes every prepared operation to the kernel.
func (b *Blocking) Submit() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopping.Load() {
		return 0, ErrClosed
	}
	return b.uring.Submit()
}

func (b *Blocking) PrepareNop(flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareNop(flags...)
	})
}

func (b *Blocking) PrepareRead(fd int, length int, offset uint64, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareRead(fd, length, offset, flags...)
	})
}

func (b *Blocking) PrepareReadInto(fd int, buf *Buffer, offset uint64, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareReadInto(fd, buf, offset, flags...)
	})
}

func (b *Blocking) PrepareReadFixed(fd int, fb *FixedBuffer, n int, offset uint64, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareReadFixed(fd, fb, n, offset, flags...)
	})
}

func (b *Blocking) PrepareWrite(fd int, buf *Buffer, offset uint64, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareWrite(fd, buf, offset, flags...)
	})
}

func (b *Blocking) PrepareWriteBytes(fd int, data []byte, offset uint64, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareWriteBytes(fd, data, offset, flags...)
	})
}

func (b *Blocking) PrepareWriteFixed(fd int, fb *FixedBuffer, n int, offset uint64, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareWriteFixed(fd, fb, n, offset, flags...)
	})
}

func (b *Blocking) PrepareOpen(path string, flag int, mode uint32, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareOpen(path, flag, mode, flags...)
	})
}

func (b *Blocking) PrepareClose(fd int, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareClose(fd, flags...)
	})
}

func (b *Blocking) PrepareSocket(domain int, typ int, proto int, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareSocket(domain, typ, proto, flags...)
	})
}

func (b *Blocking) PrepareConnect(fd int, addr netip.AddrPort, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareConnect(fd, addr, flags...)
	})
}

func (b *Blocking) PrepareSend(fd int, buf *Buffer, msgFlags int, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareSend(fd, buf, msgFlags, flags...)
	})
}

func (b *Blocking) PrepareSendBytes(fd int, data []byte, msgFlags int, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareSendBytes(fd, data, msgFlags, flags...)
	})
}

func (b *Blocking) PrepareRecv(fd int, length int, msgFlags int, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareRecv(fd, length, msgFlags, flags...)
	})
}

func (b *Blocking) PrepareAccept(fd int, flags ...Flags) (*Handle, error) {
	return b.track(func() (Token, error) {
		return b.uring.PrepareAccept(fd, flags...)
	})
}

// SubmitClose
// closes fd through the ring and waits for the outcome.
// A full submission queue is flushed once before the close is prepared again.
func (b *Blocking) SubmitClose(fd int) error {
	h, err := b.PrepareClose(fd)
	if IsSubmissionQueueFull(err) {
		if _, err = b.Submit(); err != nil {
			return err
		}
		h, err = b.PrepareClose(fd)
	}
	if err != nil {
		return err
	}
	if _, err = b.Submit(); err != nil {
		return err
	}
	r, err := h.Wait()
	if err != nil {
		return err
	}
	return r.Err()
}

func (b *Blocking) Allocate(size int) (*Buffer, error) {
	return b.uring.Allocate(size)
}

func (b *Blocking) RegisterFiles(paths []string, flag int) (*FixedFiles, error) {
	return b.uring.RegisterFiles(paths, flag)
}

func (b *Blocking) RegisterBuffers(size int, count int) ([]*FixedBuffer, error) {
	return b.uring.RegisterBuffers(size, count)
}

// UpdateFiles
// always fails with ErrRegistryImmutable.
func (b *Blocking) UpdateFiles(offset int, fds []int) error {
	return b.uring.UpdateFiles(offset, fds)
}

func (b *Blocking) FixedFiles() (*FixedFiles, error) {
	return b.uring.FixedFiles()
}

func (b *Blocking) FixedBuffers() ([]*FixedBuffer, error) {
	return b.uring.FixedBuffers()
}

func (b *Blocking) Fd() int {
	return b.uring.Fd()
}

func (b *Blocking) InFlight() int {
	return b.uring.InFlight()
}

func (b *Blocking) poll() {
	defer close(b.done)
	runtime.LockOSThread()
	pinned := false
	if cpu := b.uring.cpu; cpu >= 0 {
		if err := process.PinThread(cpu); err != nil {
			b.log.Warn().Err(err).Int("cpu", cpu).Msg("poller not pinned")
		} else {
			pinned = true
		}
	}
	// a pinned thread exits with the goroutine instead of going back to the scheduler
	if !pinned {
		defer runtime.UnlockOSThread()
	}
	b.log.Debug().Dur("interval", b.uring.interval).Msg("poller started")
	defer b.log.Debug().Msg("poller stopped")

	for {
		r, ready, err := b.next()
		if err != nil {
			if errors.Is(err, ErrUnknownToken) {
				continue
			}
			b.log.Error().Err(err).Msg("poller failed")
			b.mu.Lock()
			b.stopping.Store(true)
			b.mu.Unlock()
			b.failAll(err)
			return
		}
		if !ready {
			if b.stopping.Load() {
				return
			}
			continue
		}
		if stop := b.stopToken.Load(); stop != 0 && uint64(r.Token) == stop {
			return
		}
		b.resolve(r)
	}
}

// next
// waits in the kernel, or with an interval peeks and sleeps until the interval
// elapses or a Submit signals.
func (b *Blocking) next() (Result, bool, error) {
	if b.wake == nil {
		r, err := b.uring.WaitOne()
		return r, err == nil, err
	}
	r, ready, err := b.uring.PeekOne()
	if err != nil || ready || b.stopping.Load() {
		return r, ready, err
	}
	_ = b.wake.Wait(context.Background())
	return b.uring.PeekOne()
}

func (b *Blocking) resolve(r Result) {
	v, ok := b.waiting.LoadAndDelete(r.Token)
	if !ok {
		if r.Kind != Nop {
			b.log.Error().Uint64("token", uint64(r.Token)).Str("kind", r.Kind.String()).Msg("result without handle")
		}
		_ = r.Release()
		return
	}
	v.(*Handle).set(r, nil)
}

func (b *Blocking) failAll(err error) (n int) {
	b.waiting.Range(func(key, value any) bool {
		b.waiting.Delete(key)
		if value.(*Handle).set(Result{Token: key.(Token)}, err) {
			n++
		}
		return true
	})
	return
}

// armStop
// queues the Nop whose completion ends a poller blocked in the kernel. Caller holds mu.
func (b *Blocking) armStop() error {
	token, err := b.uring.PrepareNop()
	if IsSubmissionQueueFull(err) {
		if _, err = b.uring.Submit(); err != nil {
			return err
		}
		token, err = b.uring.PrepareNop()
	}
	if err != nil {
		return err
	}
	b.stopToken.Store(uint64(token))
	_, err = b.uring.Submit()
	return err
}

// Close
// stops and joins the poller, fails the handles still waiting with ErrClosed
// and closes the engine.
func (b *Blocking) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	b.mu.Lock()
	var stopErr error
	if !b.stopping.Swap(true) && b.wake == nil {
		stopErr = b.armStop()
	}
	b.mu.Unlock()

	if stopErr != nil {
		// the poller stays parked in the kernel, the ring cannot be unmapped under it
		n := b.failAll(ErrClosed)
		b.log.Error().Err(stopErr).Int("handles", n).Msg("poller could not be stopped")
		return errors.New(
			"close failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpClose),
			errors.WithWrap(stopErr),
		)
	}
	if b.wake != nil {
		b.wake.Signal()
	}
	<-b.done

	if n := b.failAll(ErrClosed); n > 0 {
		b.log.Warn().Int("handles", n).Msg("handles abandoned at close")
	}
	err := b.uring.Close()
	if b.wake != nil {
		_ = b.wake.Close()
	}
	return err
}
