package lio

import (
	"time"

	"github.com/brickingsoft/errors"
	"github.com/rs/zerolog"
)

const (
	MaxEntries     = 32768
	DefaultEntries = 256
)

type Options struct {
	Entries        uint32
	Flags          uint32
	SQThreadIdle   uint32
	SQThreadCPU    int
	AttachWQFd     int
	IOWQMaxWorkers [2]uint
	Allocator      Allocator
	Logger         zerolog.Logger
	PollInterval   time.Duration
	PollerCPU      int
}

type Option func(options *Options) (err error)

func defaultOptions() Options {
	return Options{
		Entries:     DefaultEntries,
		SQThreadCPU: -1,
		AttachWQFd:  -1,
		Logger:      zerolog.Nop(),
		PollerCPU:   -1,
	}
}

// WithEntries
// sets the submission queue depth, rounded up to a power of two by the kernel side.
func WithEntries(entries int) Option {
	return func(options *Options) (err error) {
		if entries < 1 || entries > MaxEntries {
			err = errors.New("invalid entries", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
			return
		}
		options.Entries = uint32(entries)
		return
	}
}

// WithFlags
// ORs io_uring setup flags, see liburing.IORING_SETUP_*.
func WithFlags(flags uint32) Option {
	return func(options *Options) (err error) {
		options.Flags |= flags
		return
	}
}

// WithSQThreadIdle
// sets the idle time before the sq poll thread sleeps, only used with IORING_SETUP_SQPOLL.
func WithSQThreadIdle(idle time.Duration) Option {
	return func(options *Options) (err error) {
		if idle > 0 {
			options.SQThreadIdle = uint32(idle.Milliseconds())
		}
		return
	}
}

// WithSQThreadCPU
// binds the sq poll thread to cpu (IORING_SETUP_SQ_AFF), only used with IORING_SETUP_SQPOLL.
func WithSQThreadCPU(cpu int) Option {
	return func(options *Options) (err error) {
		if cpu < 0 {
			err = errors.New("invalid sq thread cpu", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
			return
		}
		options.SQThreadCPU = cpu
		return
	}
}

// WithAttachWQ
// shares the async worker pool of the ring owning fd.
func WithAttachWQ(fd int) Option {
	return func(options *Options) (err error) {
		if fd < 1 {
			err = errors.New("invalid attach wq fd", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
			return
		}
		options.AttachWQFd = fd
		return
	}
}

// WithIOWQMaxWorkers
// caps the bounded and unbounded async workers of the ring.
func WithIOWQMaxWorkers(bounded uint, unbounded uint) Option {
	return func(options *Options) (err error) {
		options.IOWQMaxWorkers = [2]uint{bounded, unbounded}
		return
	}
}

func WithAllocator(allocator Allocator) Option {
	return func(options *Options) (err error) {
		if allocator == nil {
			err = errors.New("nil allocator", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
			return
		}
		options.Allocator = allocator
		return
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(options *Options) (err error) {
		options.Logger = logger
		return
	}
}

// WithPollInterval
// switches the blocking poller to peek mode: when nothing is ready it sleeps up to d,
// or until the next Submit. Zero keeps the poller blocked in the kernel.
func WithPollInterval(d time.Duration) Option {
	return func(options *Options) (err error) {
		if d < 0 {
			err = errors.New("invalid poll interval", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
			return
		}
		options.PollInterval = d
		return
	}
}

// WithPollerCPU
// pins the blocking poller's thread to cpu.
func WithPollerCPU(cpu int) Option {
	return func(options *Options) (err error) {
		if cpu < 0 {
			err = errors.New("invalid poller cpu", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithMeta(errMetaOpKey, errMetaOpSetup))
			return
		}
		options.PollerCPU = cpu
		return
	}
}
