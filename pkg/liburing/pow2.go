//go:build linux

package liburing

import "math/bits"

const (
	kernMaxEntries   = 32768
	kernMaxCQEntries = 2 * kernMaxEntries
)

func roundupPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len32(n-1)
}

func getSqCqEntries(entries uint32, p *Params) (sq uint32, cq uint32, err error) {
	if entries == 0 {
		err = errInvalidEntries
		return
	}
	if entries > kernMaxEntries {
		if p.flags&IORING_SETUP_CLAMP == 0 {
			err = errInvalidEntries
			return
		}
		entries = kernMaxEntries
	}
	sq = roundupPow2(entries)
	if p.flags&IORING_SETUP_CQSIZE != 0 {
		cq = p.cqEntries
		if cq > kernMaxCQEntries {
			if p.flags&IORING_SETUP_CLAMP == 0 {
				err = errInvalidEntries
				return
			}
			cq = kernMaxCQEntries
		}
		cq = roundupPow2(cq)
		if cq < sq {
			err = errInvalidEntries
			return
		}
		return
	}
	cq = 2 * sq
	return
}
