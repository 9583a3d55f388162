//go:build linux

package lio

import (
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/rs/zerolog"
)

// Dispatcher
// drains completions, resolves them to their pending requests and builds results.
// Only one goroutine may drain at a time.
type Dispatcher struct {
	transport Transport
	table     *correlationTable
	closed    *atomic.Bool
	log       zerolog.Logger
}

// WaitOne
// blocks until one result is available.
func (d *Dispatcher) WaitOne() (Result, error) {
	if d.closed.Load() {
		return Result{}, ErrClosed
	}
	for {
		c, err := d.transport.WaitOne()
		if err != nil {
			return Result{}, errors.New(
				"wait completion failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpWait),
				errors.WithWrap(err),
			)
		}
		r, ok, dispatchErr := d.dispatch(c)
		if dispatchErr != nil {
			return Result{}, dispatchErr
		}
		if ok {
			return r, nil
		}
	}
}

// PeekOne
// returns a result when one is ready, false otherwise. It never blocks.
func (d *Dispatcher) PeekOne() (Result, bool, error) {
	if d.closed.Load() {
		return Result{}, false, ErrClosed
	}
	for {
		c, ready, err := d.transport.PeekOne()
		if err != nil {
			return Result{}, false, errors.New(
				"peek completion failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpPeek),
				errors.WithWrap(err),
			)
		}
		if !ready {
			return Result{}, false, nil
		}
		r, ok, dispatchErr := d.dispatch(c)
		if dispatchErr != nil {
			return Result{}, false, dispatchErr
		}
		if ok {
			return r, true, nil
		}
	}
}

// PeekBatch
// returns up to max ready results in completion order without blocking.
// When err is not nil the results dispatched before the failure are returned with it,
// their completions are already acknowledged and the caller owns their buffers.
func (d *Dispatcher) PeekBatch(max int) ([]Result, error) {
	if max < 1 {
		return nil, ErrInvalidLength
	}
	if d.closed.Load() {
		return nil, ErrClosed
	}
	results := make([]Result, 0, max)
	return d.drainReady(results, max)
}

// WaitBatch
// blocks for the first result, then adds up to max-1 more that are already ready.
// Results come back with a non-nil err the same way as with PeekBatch.
func (d *Dispatcher) WaitBatch(max int) ([]Result, error) {
	if max < 1 {
		return nil, ErrInvalidLength
	}
	first, err := d.WaitOne()
	if err != nil {
		return nil, err
	}
	results := make([]Result, 1, max)
	results[0] = first
	if max == 1 {
		return results, nil
	}
	return d.drainReady(results, max)
}

func (d *Dispatcher) drainReady(results []Result, max int) ([]Result, error) {
	for len(results) < max {
		completions, err := d.transport.PeekBatch(max - len(results))
		if err != nil {
			return results, errors.New(
				"peek completions failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpPeek),
				errors.WithWrap(err),
			)
		}
		if len(completions) == 0 {
			break
		}
		for _, c := range completions {
			r, ok, dispatchErr := d.dispatch(c)
			if dispatchErr != nil {
				return results, dispatchErr
			}
			if ok {
				results = append(results, r)
			}
		}
	}
	return results, nil
}

// dispatch
// resolves c and acknowledges it. Token and result are read before the acknowledgement.
// ok is false for void completions, which carry the zero token.
func (d *Dispatcher) dispatch(c Completion) (r Result, ok bool, err error) {
	token := Token(c.Token())
	res := c.Res()
	if token == 0 {
		d.transport.Acknowledge(c)
		return
	}
	p, found := d.table.resolve(token)
	if !found {
		d.transport.Acknowledge(c)
		d.log.Error().Uint64("token", uint64(token)).Int32("res", res).Msg("completion for unknown token")
		err = errors.From(ErrUnknownToken, errors.WithMeta("token", token.String()))
		return
	}
	r = p.complete(res)
	d.transport.Acknowledge(c)
	ok = true
	return
}
