//go:build linux

package lio_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brickingsoft/lio"
	"github.com/brickingsoft/rxp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestBlocking_WriteThenRead(t *testing.T) {
	b, _ := newFakeBlocking(t, 8)
	fd := openFile(t, writeFixture(t, "empty.txt", ""), unix.O_RDWR)

	msg := []byte("Hello, from Java")
	h, err := b.PrepareWriteBytes(fd, msg, 0)
	require.NoError(t, err)
	_, err = b.Submit()
	require.NoError(t, err)
	r, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, h.Token(), r.Token)
	assert.Equal(t, 16, r.N())

	h, err = b.PrepareRead(fd, len(msg), 0)
	require.NoError(t, err)
	_, err = b.Submit()
	require.NoError(t, err)
	r, err = h.Wait()
	require.NoError(t, err)
	assert.Equal(t, msg, r.Data())
	require.NoError(t, r.Release())
}

func TestBlocking_ReadShort(t *testing.T) {
	b, _ := newFakeBlocking(t, 8)
	fd := openFile(t, writeFixture(t, "hello.txt", fixtureContent), unix.O_RDONLY)

	h, err := b.PrepareRead(fd, 14, 0)
	require.NoError(t, err)
	_, err = b.Submit()
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read did not complete")
	}
	r, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, 13, r.N())
	assert.Equal(t, fixtureContent, string(r.Data()))
	require.NoError(t, r.Release())
}

func TestBlocking_ConcurrentReads(t *testing.T) {
	b, ft := newFakeBlocking(t, 8)
	ft.reverse = true
	fd := openFile(t, writeFixture(t, "hello.txt", fixtureContent), unix.O_RDONLY)

	reads := []struct {
		offset uint64
		length int
		want   string
	}{
		{0, 14, "Hello, World!"},
		{0, 5, "Hello"},
		{7, 7, "World!"},
	}
	tokens := make([]lio.Token, len(reads))
	wg := new(sync.WaitGroup)
	for i, read := range reads {
		wg.Add(1)
		go func(i int, offset uint64, length int, want string) {
			defer wg.Done()
			h, err := b.PrepareRead(fd, length, offset)
			if !assert.NoError(t, err) {
				return
			}
			if _, err = b.Submit(); !assert.NoError(t, err) {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r, err := h.WaitContext(ctx)
			if !assert.NoError(t, err) {
				return
			}
			tokens[i] = r.Token
			assert.Equal(t, want, string(r.Data()))
			assert.NoError(t, r.Release())
		}(i, read.offset, read.length, read.want)
	}
	wg.Wait()

	seen := make(map[lio.Token]struct{})
	for _, token := range tokens {
		seen[token] = struct{}{}
	}
	assert.Len(t, seen, len(reads))
	assert.Equal(t, 0, b.InFlight())
}

func TestBlocking_PollInterval(t *testing.T) {
	b, _ := newFakeBlocking(t, 8, lio.WithPollInterval(10*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		h, err := b.PrepareNop()
		require.NoError(t, err)
		_, err = b.Submit()
		require.NoError(t, err)
		r, err := h.WaitContext(ctx)
		require.NoError(t, err, "submit must wake the idle poller")
		assert.Equal(t, lio.Nop, r.Kind)
	}
	require.NoError(t, b.Close())
}

func TestBlocking_PollerCPU(t *testing.T) {
	b, _ := newFakeBlocking(t, 8, lio.WithPollerCPU(0))

	h, err := b.PrepareNop()
	require.NoError(t, err)
	_, err = b.Submit()
	require.NoError(t, err)
	r, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, h.Token(), r.Token)

	_, err = lio.NewBlockingWithTransport(newFakeTransport(8), lio.WithPollerCPU(-1))
	assert.Error(t, err)
}

func TestBlocking_Close(t *testing.T) {
	b, _ := newFakeBlocking(t, 8)

	pending, err := b.PrepareNop(lio.SkipSuccess)
	require.NoError(t, err)
	_, err = b.Submit()
	require.NoError(t, err)

	require.NoError(t, b.Close())
	_, err = pending.Wait()
	assert.True(t, lio.IsClosed(err))

	_, err = b.PrepareNop()
	assert.True(t, lio.IsClosed(err))
	_, err = b.Submit()
	assert.True(t, lio.IsClosed(err))
	assert.True(t, lio.IsClosed(b.Close()))
}

func TestBlocking_CloseWithPollInterval(t *testing.T) {
	b, _ := newFakeBlocking(t, 8, lio.WithPollInterval(time.Hour))

	done := make(chan error, 1)
	go func() {
		done <- b.Close()
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not stop the poller")
	}
}

func TestBlocking_PollerFailure(t *testing.T) {
	b, ft := newFakeBlocking(t, 8)

	h, err := b.PrepareNop()
	require.NoError(t, err)
	require.NoError(t, ft.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = h.WaitContext(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, lio.IsClosed(err))

	_, err = b.PrepareNop()
	assert.True(t, lio.IsClosed(err))
	assert.NoError(t, b.Close())
}

func TestHandle_Future(t *testing.T) {
	ctx := context.Background()
	exec, err := rxp.New()
	require.NoError(t, err)
	defer exec.Close()
	ctx = rxp.With(ctx, exec)

	b, _ := newFakeBlocking(t, 8)
	h, err := b.PrepareNop()
	require.NoError(t, err)
	_, err = b.Submit()
	require.NoError(t, err)

	results := make(chan lio.Result, 1)
	h.Future(ctx).OnComplete(func(ctx context.Context, r lio.Result, err error) {
		if err != nil {
			t.Error(err)
			return
		}
		results <- r
	})
	select {
	case r := <-results:
		assert.Equal(t, h.Token(), r.Token)
		assert.Equal(t, lio.Nop, r.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("future did not complete")
	}
}
