//go:build linux

package lio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brickingsoft/lio"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const fixtureContent = "Hello, World!"

func writeFixture(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, writeFile(path, content))
	return path
}

func writeFile(path string, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func openFile(t *testing.T, path string, flag int) int {
	t.Helper()
	fd, err := unix.Open(path, flag|unix.O_CLOEXEC, 0644)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fd)
	})
	return fd
}

func newFakeUring(t *testing.T, depth int, options ...lio.Option) (*lio.Uring, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport(depth)
	u, err := lio.NewWithTransport(ft, options...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = u.Close()
	})
	return u, ft
}

func newFakeBlocking(t *testing.T, depth int, options ...lio.Option) (*lio.Blocking, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport(depth)
	b, err := lio.NewBlockingWithTransport(ft, options...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = b.Close()
	})
	return b, ft
}

// newRing
// skips when the kernel or the sandbox refuses io_uring.
func newRing(t *testing.T, options ...lio.Option) *lio.Uring {
	t.Helper()
	u, err := lio.New(options...)
	if err != nil {
		t.Skip("io_uring unavailable:", err)
	}
	t.Cleanup(func() {
		_ = u.Close()
	})
	return u
}

func newRingBlocking(t *testing.T, options ...lio.Option) *lio.Blocking {
	t.Helper()
	b, err := lio.NewBlocking(options...)
	if err != nil {
		t.Skip("io_uring unavailable:", err)
	}
	t.Cleanup(func() {
		_ = b.Close()
	})
	return b
}
