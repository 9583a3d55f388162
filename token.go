package lio

import (
	"strconv"
	"sync/atomic"
)

// Token
// correlates a prepared operation with its completion. Zero is never issued.
type Token uint64

func (token Token) String() string {
	return strconv.FormatUint(uint64(token), 10)
}

type tokenSource struct {
	last atomic.Uint64
}

func (src *tokenSource) next() Token {
	return Token(src.last.Add(1))
}
