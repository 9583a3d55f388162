package lio

import (
	"context"
	"sync"

	"github.com/brickingsoft/rxp/async"
)

// Handle
// is the single-assignment cell of one operation submitted through Blocking.
// Only the poller writes it, any number of goroutines may wait on it.
type Handle struct {
	token  Token
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

func newHandle(token Token) *Handle {
	return &Handle{
		token: token,
		done:  make(chan struct{}),
	}
}

func (h *Handle) Token() Token {
	return h.token
}

// Done
// is closed once the result is set.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait
// blocks until the operation completed. err is only set when the engine shut down
// or failed before the completion arrived, an OS failure is reported by Result.Err.
func (h *Handle) Wait() (Result, error) {
	<-h.done
	return h.result, h.err
}

// WaitContext
// is Wait bounded by ctx. Giving up does not cancel the operation,
// its buffer still arrives with a later Wait.
func (h *Handle) WaitContext(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// set
// resolves the handle. Only the first call has an effect.
func (h *Handle) set(r Result, err error) bool {
	ok := false
	h.once.Do(func() {
		h.result = r
		h.err = err
		close(h.done)
		ok = true
	})
	return ok
}

// Future
// bridges the handle into an rxp future. ctx must carry an rxp executor.
func (h *Handle) Future(ctx context.Context) async.Future[Result] {
	promise, promiseErr := async.Make[Result](ctx)
	if promiseErr != nil {
		return async.FailedImmediately[Result](ctx, promiseErr)
	}
	go func(h *Handle, promise async.Promise[Result]) {
		r, err := h.Wait()
		if err != nil {
			promise.Fail(err)
			return
		}
		promise.Succeed(r)
	}(h, promise)
	return promise.Future()
}
