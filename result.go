package lio

import (
	"net/netip"
	"syscall"
)

// Result
// of one completed operation, tagged by Kind.
//
// Res is the kernel result: a byte count for transfers, a descriptor for Open, Socket and Accept,
// zero for the others, or a negated errno on failure.
// Buffer is set for Read and Recv, the caller owns it and must Release it, also on failure.
// Fixed is set for ReadFixed and WriteFixed and stays owned by the registry.
// Peer is set for a successful Accept.
type Result struct {
	Kind   Kind
	Token  Token
	Res    int32
	Buffer *Buffer
	Fixed  *FixedBuffer
	Peer   netip.AddrPort
}

func (r Result) Err() error {
	if r.Res < 0 {
		return syscall.Errno(-r.Res)
	}
	return nil
}

// N
// is the number of bytes transferred, zero on failure or for non-transfer kinds.
func (r Result) N() int {
	if r.Res < 0 || !r.Kind.transfersBytes() {
		return 0
	}
	return int(r.Res)
}

// Fd
// is the descriptor produced by Open, Socket or Accept, -1 otherwise.
func (r Result) Fd() int {
	if r.Res < 0 || !r.Kind.returnsFd() {
		return -1
	}
	return int(r.Res)
}

// Data
// returns the bytes read by Read, Recv or ReadFixed.
func (r Result) Data() []byte {
	n := r.N()
	switch r.Kind {
	case Read, Recv:
		if r.Buffer != nil {
			if b := r.Buffer.Bytes(); n <= len(b) {
				return b[:n]
			}
		}
	case ReadFixed:
		if r.Fixed != nil {
			if b := r.Fixed.Bytes(); n <= len(b) {
				return b[:n]
			}
		}
	}
	return nil
}

// Release
// releases the buffer carried by the result, if any.
func (r Result) Release() error {
	if r.Buffer == nil {
		return nil
	}
	return r.Buffer.Release()
}
