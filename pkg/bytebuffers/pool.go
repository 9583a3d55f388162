package bytebuffers

import (
	"sync"
	"sync/atomic"
)

const (
	minBitSize = 6
	steps      = 20

	minSize = 1 << minBitSize
	maxSize = 1 << (minBitSize + steps - 1)
)

var defaultPool Pool

func Get(size int) []byte { return defaultPool.Get(size) }

func Put(p []byte) { defaultPool.Put(p) }

// Pool
// keeps byte slices in power-of-two size classes from 64B to 32MB.
// Larger requests are allocated directly and never pooled.
type Pool struct {
	classes [steps]sync.Pool
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// Get
// returns a zeroed slice with len size. Its capacity is the size class.
func (p *Pool) Get(size int) []byte {
	if size < 1 {
		return []byte{}
	}
	if size > maxSize {
		p.misses.Add(1)
		return make([]byte, size)
	}
	idx := index(size)
	if v := p.classes[idx].Get(); v != nil {
		p.hits.Add(1)
		b := *(v.(*[]byte))
		return b[:size]
	}
	p.misses.Add(1)
	return make([]byte, size, minSize<<idx)
}

// Put
// returns b to its size class. Slices whose capacity is not a class size are dropped.
func (p *Pool) Put(b []byte) {
	c := cap(b)
	if c < minSize || c > maxSize {
		return
	}
	idx := index(c)
	if minSize<<idx != c {
		return
	}
	b = b[:c]
	clear(b)
	p.classes[idx].Put(&b)
}

// Stats
// reports how many Get calls were served from the pool and how many allocated.
func (p *Pool) Stats() (hits uint64, misses uint64) {
	return p.hits.Load(), p.misses.Load()
}

func index(n int) int {
	n--
	n >>= minBitSize
	idx := 0
	for n > 0 {
		n >>= 1
		idx++
	}
	if idx >= steps {
		idx = steps - 1
	}
	return idx
}
