//go:build linux

package lio

import (
	"sync"
	"sync/atomic"
)

// correlationTable
// maps in-flight tokens to their pending requests.
type correlationTable struct {
	entries sync.Map
	count   atomic.Int64
}

// register
// fails with ErrTokenInFlight when the token is already present.
func (table *correlationTable) register(p *pending) error {
	if _, loaded := table.entries.LoadOrStore(p.token, p); loaded {
		return ErrTokenInFlight
	}
	table.count.Add(1)
	return nil
}

// resolve
// removes and returns the pending request of token.
func (table *correlationTable) resolve(token Token) (*pending, bool) {
	v, ok := table.entries.LoadAndDelete(token)
	if !ok {
		return nil, false
	}
	table.count.Add(-1)
	return v.(*pending), true
}

func (table *correlationTable) len() int {
	return int(table.count.Load())
}

// drain
// removes every entry and hands it to fn.
func (table *correlationTable) drain(fn func(p *pending)) {
	table.entries.Range(func(key, _ any) bool {
		if p, ok := table.resolve(key.(Token)); ok {
			fn(p)
		}
		return true
	})
}
