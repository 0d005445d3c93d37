package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutesSubmittedTasks(t *testing.T) {
	pool := NewPool(2)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background()) //nolint:errcheck

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := pool.Submit(func() {
			count.Add(1)
			wg.Done()
		})
		require.True(t, ok)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not complete")
	}
	assert.EqualValues(t, 10, count.Load())
}

func TestPoolSubmitBeforeStart(t *testing.T) {
	pool := NewPool(1)
	assert.False(t, pool.Submit(func() {}))
}

func TestPoolDoubleStart(t *testing.T) {
	pool := NewPool(1)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background()) //nolint:errcheck

	assert.Error(t, pool.Start(context.Background()))
}

func TestPoolStopIdempotent(t *testing.T) {
	pool := NewPool(1)
	require.NoError(t, pool.Start(context.Background()))

	require.NoError(t, pool.Stop(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))
	assert.False(t, pool.Submit(func() {}))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background()) //nolint:errcheck

	var active, peak atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 6; i++ {
		wg.Add(1)
		ok := pool.Submit(func() {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
			wg.Done()
		})
		require.True(t, ok)
	}

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	close(release)
	wg.Wait()
}

func TestPoolStopHonoursDeadline(t *testing.T) {
	pool := NewPool(1)
	require.NoError(t, pool.Start(context.Background()))

	block := make(chan struct{})
	require.True(t, pool.Submit(func() { <-block }))
	time.Sleep(50 * time.Millisecond) // let the worker pick it up

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Stop(ctx), context.DeadlineExceeded)
	close(block)
}
