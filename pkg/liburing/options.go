//go:build linux

package liburing

import "errors"

const (
	MaxEntries     = 32768
	DefaultEntries = 256
)

type Options struct {
	Entries        uint32
	CQEntries      uint32
	Flags          uint32
	SQThreadCPU    uint32
	SQThreadIdle   uint32
	WQFd           uint32
	IOWQMaxWorkers []uint
}

type Option func(*Options) error

func WithEntries(entries uint32) Option {
	return func(o *Options) error {
		if entries > MaxEntries {
			return errors.New("entries too big")
		}
		if entries < 1 {
			entries = DefaultEntries
		}
		o.Entries = entries
		return nil
	}
}

// WithCQEntries
// sizes the completion queue explicitly, it must not be smaller than the submission queue.
func WithCQEntries(entries uint32) Option {
	return func(o *Options) error {
		if entries == 0 {
			return nil
		}
		o.CQEntries = entries
		o.Flags |= IORING_SETUP_CQSIZE
		return nil
	}
}

// WithFlags
// see https://manpages.debian.org/unstable/liburing-dev/io_uring_setup.2.en.html
func WithFlags(flags uint32) Option {
	return func(o *Options) error {
		o.Flags |= flags
		return nil
	}
}

func WithSQThreadIdle(n uint32) Option {
	return func(o *Options) error {
		o.SQThreadIdle = n
		return nil
	}
}

// WithSQThreadCPU
// pins the sq poll thread to cpuId. It sets IORING_SETUP_SQ_AFF, which setup keeps only with IORING_SETUP_SQPOLL.
func WithSQThreadCPU(cpuId uint32) Option {
	return func(o *Options) error {
		o.SQThreadCPU = cpuId
		o.Flags |= IORING_SETUP_SQ_AFF
		return nil
	}
}

// WithAttachWQFd
// shares the io-wq backend of the ring owning fd.
func WithAttachWQFd(fd uint32) Option {
	return func(o *Options) error {
		if fd == 0 {
			return errors.New("invalid wqfd")
		}
		o.WQFd = fd
		o.Flags |= IORING_SETUP_ATTACH_WQ
		return nil
	}
}

// WithIOWQMaxWorkers
// limits bounded and unbounded io-wq workers once the ring is up, zero keeps the kernel default.
func WithIOWQMaxWorkers(bounded uint, unbounded uint) Option {
	return func(o *Options) error {
		if bounded == 0 && unbounded == 0 {
			return nil
		}
		o.IOWQMaxWorkers = []uint{bounded, unbounded}
		return nil
	}
}
