package semaphores

import (
	"context"
	"errors"
	"sync"
	"time"
)

// New
// creates a coalescing wake-up signal for one waiter, each Wait lasts at most timeout.
func New(timeout time.Duration) (v *Semaphores, err error) {
	if timeout < 1 {
		err = errors.New("invalid timeout")
		return
	}
	timer := time.NewTimer(timeout)
	timer.Stop()
	v = &Semaphores{
		timeout: timeout,
		timer:   timer,
		ch:      make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	return
}

type Semaphores struct {
	timeout time.Duration
	timer   *time.Timer
	ch      chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Signal
// wakes the waiter. Signals sent while nobody waits collapse into one.
func (s *Semaphores) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait
// returns nil when signaled, context.DeadlineExceeded when the timeout elapsed
// and context.Canceled once closed.
func (s *Semaphores) Wait(ctx context.Context) (err error) {
	s.timer.Reset(s.timeout)
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-s.timer.C:
		err = context.DeadlineExceeded
	case <-s.ch:
	case <-s.done:
		err = context.Canceled
	}
	s.timer.Stop()
	return
}

func (s *Semaphores) Close() error {
	s.once.Do(func() {
		s.timer.Stop()
		close(s.done)
	})
	return nil
}
