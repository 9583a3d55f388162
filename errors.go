package lio

import (
	"github.com/brickingsoft/errors"
)

var (
	ErrSubmissionQueueFull = errors.Define("submission queue full")
	ErrTokenInFlight       = errors.Define("token already in flight")
	ErrUnknownToken        = errors.Define("completion for unknown token")
	ErrBufferReleased      = errors.Define("buffer already released")
	ErrRegistryImmutable   = errors.Define("fixed resources cannot be updated after registration")
	ErrAlreadyRegistered   = errors.Define("fixed resources already registered")
	ErrNotRegistered       = errors.Define("fixed resources not registered")
	ErrClosed              = errors.Define("closed")
	ErrInvalidLength       = errors.Define("invalid length")
	ErrSetup               = errors.Define("ring setup failed")
	ErrRegister            = errors.Define("fixed resource registration failed")
	ErrNoDescriptor        = errors.Define("result carries no descriptor")
)

// IsSubmissionQueueFull
// reports backpressure. Flush with Submit, drain some completions, then prepare again.
func IsSubmissionQueueFull(err error) bool {
	return errors.Is(err, ErrSubmissionQueueFull)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "lio"
)

const (
	errMetaOpKey             = "op"
	errMetaOpSetup           = "setup"
	errMetaOpPrepare         = "prepare"
	errMetaOpSubmit          = "submit"
	errMetaOpWait            = "wait"
	errMetaOpPeek            = "peek"
	errMetaOpRegisterFiles   = "register_files"
	errMetaOpRegisterBuffers = "register_buffers"
	errMetaOpClose           = "close"
	errMetaOpConfig          = "config"
)
