//go:build linux

package lio_test

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/lio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDispatcher_PeekOneEmpty(t *testing.T) {
	u, _ := newFakeUring(t, 8)
	_, ok, err := u.PeekOne()
	require.NoError(t, err)
	assert.False(t, ok)

	results, err := u.PeekBatch(4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDispatcher_PeekBatchBound(t *testing.T) {
	u, _ := newFakeUring(t, 16)

	const k = 10
	for i := 0; i < k; i++ {
		_, err := u.PrepareNop()
		require.NoError(t, err)
	}
	_, err := u.Submit()
	require.NoError(t, err)

	seen := make(map[lio.Token]int)
	for _, max := range []int{3, 3, 3, 3} {
		results, peekErr := u.PeekBatch(max)
		require.NoError(t, peekErr)
		assert.LessOrEqual(t, len(results), max)
		for _, r := range results {
			assert.Equal(t, lio.Nop, r.Kind)
			seen[r.Token]++
		}
	}
	assert.Len(t, seen, k)
	for token, n := range seen {
		assert.Equal(t, 1, n, "token %s", token)
	}

	_, err = u.PeekBatch(0)
	assert.True(t, errors.Is(err, lio.ErrInvalidLength))
	_, err = u.WaitBatch(0)
	assert.True(t, errors.Is(err, lio.ErrInvalidLength))
}

func TestDispatcher_NegativeResultKeepsBuffer(t *testing.T) {
	alloc := lio.NewHeapAllocator()
	u, _ := newFakeUring(t, 8, lio.WithAllocator(alloc))

	token, err := u.PrepareRead(-1, 32, 0)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)

	r, err := u.WaitOne()
	require.NoError(t, err)
	assert.Equal(t, token, r.Token)
	assert.Equal(t, syscall.EBADF, r.Err())
	assert.Equal(t, 0, r.N())
	assert.Nil(t, r.Data())
	require.NotNil(t, r.Buffer)
	assert.Equal(t, int64(1), alloc.Outstanding())

	require.NoError(t, r.Release())
	assert.True(t, errors.Is(r.Release(), lio.ErrBufferReleased))
	assert.Equal(t, int64(0), alloc.Outstanding())
}

func TestDispatcher_ReleasePolicy(t *testing.T) {
	alloc := lio.NewHeapAllocator()
	u, _ := newFakeUring(t, 8, lio.WithAllocator(alloc))
	path := filepath.Join(t.TempDir(), "policy.txt")

	_, err := u.PrepareOpen(path, unix.O_RDWR|unix.O_CREAT, 0644)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	r, err := u.WaitOne()
	require.NoError(t, err)
	assert.Equal(t, lio.Open, r.Kind)
	require.NoError(t, r.Err())
	fd := r.Fd()
	assert.GreaterOrEqual(t, fd, 0)
	assert.Equal(t, int64(0), alloc.Outstanding(), "path storage is released")

	buf, err := u.Allocate(5)
	require.NoError(t, err)
	copy(buf.Bytes(), "hello")
	_, err = u.PrepareWrite(fd, buf, 0)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	r, err = u.WaitOne()
	require.NoError(t, err)
	assert.Equal(t, 5, r.N())
	assert.True(t, buf.Released(), "write buffers are released on completion")
	assert.Equal(t, int64(0), alloc.Outstanding())

	into, err := u.Allocate(5)
	require.NoError(t, err)
	_, err = u.PrepareReadInto(fd, into, 0)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	r, err = u.WaitOne()
	require.NoError(t, err)
	assert.Same(t, into, r.Buffer)
	assert.Equal(t, "hello", string(r.Data()))
	require.NoError(t, r.Release())

	_, err = u.PrepareClose(fd)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	r, err = u.WaitOne()
	require.NoError(t, err)
	assert.Equal(t, lio.Close, r.Kind)
	assert.NoError(t, r.Err())
	assert.Equal(t, -1, r.Fd())
	assert.Equal(t, int64(0), alloc.Outstanding())
}

func TestDispatcher_SocketPair(t *testing.T) {
	alloc := lio.NewHeapAllocator()
	u, _ := newFakeUring(t, 8, lio.WithAllocator(alloc))
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	sendToken, err := u.PrepareSendBytes(fds[0], []byte("ping"), 0)
	require.NoError(t, err)
	recvToken, err := u.PrepareRecv(fds[1], 16, 0)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)

	results, err := u.WaitBatch(2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		switch r.Token {
		case sendToken:
			assert.Equal(t, lio.Send, r.Kind)
			assert.Equal(t, 4, r.N())
		case recvToken:
			assert.Equal(t, lio.Recv, r.Kind)
			assert.Equal(t, "ping", string(r.Data()))
			require.NoError(t, r.Release())
		default:
			t.Fatal("unexpected token", r.Token)
		}
	}
	assert.Equal(t, int64(0), alloc.Outstanding())

	_, err = u.PrepareSocket(unix.AF_INET, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	r, err := u.WaitOne()
	require.NoError(t, err)
	assert.Equal(t, lio.Socket, r.Kind)
	require.NoError(t, r.Err())
	assert.NoError(t, unix.Close(r.Fd()))
}

func TestDispatcher_VoidAndUnknownTokens(t *testing.T) {
	u, ft := newFakeUring(t, 8)

	ft.inject(0, 0)
	_, ok, err := u.PeekOne()
	require.NoError(t, err)
	assert.False(t, ok, "void completions are skipped")

	ft.inject(1<<40, 0)
	_, err = u.WaitOne()
	assert.True(t, errors.Is(err, lio.ErrUnknownToken))

	token, err := u.PrepareNop()
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	r, err := u.WaitOne()
	require.NoError(t, err)
	assert.Equal(t, token, r.Token)
}

func TestDispatcher_PeekBatchKeepsResultsOnError(t *testing.T) {
	alloc := lio.NewHeapAllocator()
	u, ft := newFakeUring(t, 8, lio.WithAllocator(alloc))
	fd := openFile(t, writeFixture(t, "hello.txt", fixtureContent), unix.O_RDONLY)

	token, err := u.PrepareRead(fd, 5, 0)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)
	ft.inject(1<<40, 0)

	results, err := u.PeekBatch(4)
	assert.True(t, errors.Is(err, lio.ErrUnknownToken))
	require.Len(t, results, 1)
	assert.Equal(t, token, results[0].Token)
	assert.Equal(t, "Hello", string(results[0].Data()))
	require.NoError(t, results[0].Release())
	assert.Equal(t, int64(0), alloc.Outstanding())
	assert.Equal(t, 0, u.InFlight())
}

func TestDispatcher_SkipSuccessAbandonedAtClose(t *testing.T) {
	alloc := lio.NewHeapAllocator()
	u, _ := newFakeUring(t, 8, lio.WithAllocator(alloc))
	fd := openFile(t, writeFixture(t, "hello.txt", fixtureContent), unix.O_RDONLY)

	_, err := u.PrepareRead(fd, 4, 0, lio.SkipSuccess)
	require.NoError(t, err)
	_, err = u.Submit()
	require.NoError(t, err)

	_, ok, err := u.PeekOne()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, u.InFlight())
	assert.Equal(t, int64(1), alloc.Outstanding())

	require.NoError(t, u.Close())
	assert.Equal(t, 0, u.InFlight())
	assert.Equal(t, int64(0), alloc.Outstanding())
}
