//go:build linux

package lio

import (
	"sync/atomic"
	"time"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/lio/pkg/liburing"
	"github.com/rs/zerolog"
)

// Uring
// is the asynchronous engine: prepare operations, Submit, then collect results
// through the Dispatcher methods from a single goroutine.
type Uring struct {
	*Builder
	*Dispatcher
	*Registry
	transport Transport
	table     *correlationTable
	interval  time.Duration
	cpu       int
	log       zerolog.Logger
}

// New
// creates an engine over a new io_uring instance.
func New(options ...Option) (*Uring, error) {
	opts, err := buildOptions(options)
	if err != nil {
		return nil, err
	}
	transport, setupErr := newRingTransport(opts.ringOptions()...)
	if setupErr != nil {
		return nil, errors.From(
			ErrSetup,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSetup),
			errors.WithWrap(setupErr),
		)
	}
	opts.Logger.Debug().
		Int("fd", transport.Fd()).
		Int("entries", transport.Capacity()).
		Uint32("flags", transport.ring.Flags()).
		Uint32("features", transport.ring.Features()).
		Msg("ring ready")
	return newUring(transport, opts), nil
}

// NewWithTransport
// creates an engine over t. Ring options in options are ignored.
func NewWithTransport(t Transport, options ...Option) (*Uring, error) {
	if t == nil {
		return nil, errors.From(ErrSetup, errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
	}
	opts, err := buildOptions(options)
	if err != nil {
		return nil, err
	}
	return newUring(t, opts), nil
}

func buildOptions(options []Option) (Options, error) {
	opts := defaultOptions()
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(&opts); err != nil {
			return opts, err
		}
	}
	if opts.Allocator == nil {
		opts.Allocator = NewHeapAllocator()
	}
	return opts, nil
}

func (options *Options) ringOptions() []liburing.Option {
	ringOptions := []liburing.Option{
		liburing.WithEntries(options.Entries),
		liburing.WithFlags(options.Flags),
	}
	if options.SQThreadIdle > 0 {
		ringOptions = append(ringOptions, liburing.WithSQThreadIdle(options.SQThreadIdle))
	}
	if options.SQThreadCPU >= 0 {
		ringOptions = append(ringOptions, liburing.WithSQThreadCPU(uint32(options.SQThreadCPU)))
	}
	if options.AttachWQFd > 0 {
		ringOptions = append(ringOptions, liburing.WithAttachWQFd(uint32(options.AttachWQFd)))
	}
	if workers := options.IOWQMaxWorkers; workers[0] > 0 || workers[1] > 0 {
		ringOptions = append(ringOptions, liburing.WithIOWQMaxWorkers(workers[0], workers[1]))
	}
	return ringOptions
}

func newUring(t Transport, opts Options) *Uring {
	table := &correlationTable{}
	closed := &atomic.Bool{}
	return &Uring{
		Builder: &Builder{
			transport: t,
			table:     table,
			allocator: opts.Allocator,
			closed:    closed,
		},
		Dispatcher: &Dispatcher{
			transport: t,
			table:     table,
			closed:    closed,
			log:       opts.Logger,
		},
		Registry: &Registry{
			transport: t,
			allocator: opts.Allocator,
			log:       opts.Logger,
		},
		transport: t,
		table:     table,
		interval:  opts.PollInterval,
		cpu:       opts.PollerCPU,
		log:       opts.Logger,
	}
}

// Fd
// returns the ring descriptor, usable with WithAttachWQ, or -1 when the transport has none.
func (u *Uring) Fd() int {
	if f, ok := u.transport.(interface{ Fd() int }); ok {
		return f.Fd()
	}
	return -1
}

// InFlight
// is the number of prepared operations whose completion has not been dispatched.
func (u *Uring) InFlight() int {
	return u.table.len()
}

// SubmitClose
// prepares and submits the close of fd. The completion is delivered like any other.
// A full submission queue is flushed once before the close is prepared again.
func (u *Uring) SubmitClose(fd int) error {
	_, err := u.PrepareClose(fd)
	if IsSubmissionQueueFull(err) {
		if _, err = u.Submit(); err != nil {
			return err
		}
		_, err = u.PrepareClose(fd)
	}
	if err != nil {
		return err
	}
	_, err = u.Submit()
	return err
}

// Close
// tears the ring down. Operations still in flight are abandoned, not cancelled.
// It must not run while another goroutine drains completions.
func (u *Uring) Close() error {
	u.Builder.mu.Lock()
	if !u.Builder.closed.CompareAndSwap(false, true) {
		u.Builder.mu.Unlock()
		return ErrClosed
	}
	u.Builder.mu.Unlock()
	err := u.transport.Close()
	if n := u.table.len(); n > 0 {
		u.log.Warn().Int("inflight", n).Msg("closing with operations in flight")
	}
	u.table.drain(func(p *pending) {
		p.abandon()
	})
	u.Registry.close()
	if err != nil {
		return errors.New(
			"close failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpClose),
			errors.WithWrap(err),
		)
	}
	return nil
}
