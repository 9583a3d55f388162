//go:build linux

package lio

import (
	"github.com/brickingsoft/lio/pkg/sys"
	"golang.org/x/sys/unix"
)

// pending
// is an armed operation waiting for its completion. It owns everything the kernel
// may read or write until then.
type pending struct {
	token   Token
	kind    Kind
	fd      int
	buffer  *Buffer
	owned   bool
	fixed   *FixedBuffer
	path    *Buffer
	addr    *unix.RawSockaddrAny
	addrLen *uint32
}

// complete
// builds the result and applies the release policy of the kind.
func (p *pending) complete(res int32) (r Result) {
	r = Result{
		Kind:  p.kind,
		Token: p.token,
		Res:   res,
	}
	switch p.kind {
	case Read, Recv:
		r.Buffer = p.buffer
	case ReadFixed, WriteFixed:
		r.Fixed = p.fixed
	case Write, Send:
		if p.buffer != nil {
			_ = p.buffer.Release()
		}
	case Open:
		_ = p.path.Release()
	case Accept:
		if res >= 0 && p.addrLen != nil && *p.addrLen > 0 {
			if peer, err := sys.RawSockaddrAnyToAddrPort(p.addr); err == nil {
				r.Peer = peer
			}
		}
	}
	p.buffer = nil
	p.fixed = nil
	p.path = nil
	p.addr = nil
	p.addrLen = nil
	return
}

// discard
// undoes a prepare that never reached the ring. Caller supplied buffers stay with the caller.
func (p *pending) discard() {
	if p.buffer != nil && p.owned {
		_ = p.buffer.Release()
	}
	if p.path != nil {
		_ = p.path.Release()
	}
	p.buffer = nil
	p.path = nil
}

// abandon
// drops a request whose completion will never be seen.
func (p *pending) abandon() {
	if p.buffer != nil {
		p.buffer.abandon()
	}
	if p.path != nil {
		p.path.abandon()
	}
	p.buffer = nil
	p.path = nil
}
