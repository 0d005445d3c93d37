package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/job"
)

func TestManagerCreateQueue(t *testing.T) {
	m := NewManager()

	q, err := m.CreateQueue("reports", 2)
	require.NoError(t, err)
	assert.Equal(t, "reports", q.Name())
	assert.Same(t, q, m.GetQueue("reports"))
}

func TestManagerCreateQueueValidation(t *testing.T) {
	m := NewManager()

	_, err := m.CreateQueue("", 2)
	assert.ErrorIs(t, err, job.ErrInvalidInput)

	_, err = m.CreateQueue("q", 0)
	assert.ErrorIs(t, err, job.ErrInvalidInput)

	_, err = m.CreateQueue("q", -1)
	assert.ErrorIs(t, err, job.ErrInvalidInput)
}

func TestManagerDuplicateQueue(t *testing.T) {
	m := NewManager()

	_, err := m.CreateQueue("dup", 1)
	require.NoError(t, err)

	_, err = m.CreateQueue("dup", 1)
	assert.ErrorIs(t, err, job.ErrQueueExists)
	assert.Equal(t, "QUEUE_ALREADY_EXISTS", job.ErrorCode(err))
}

func TestManagerGetQueueMissing(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.GetQueue("nope"))
}

func TestManagerDefaultQueue(t *testing.T) {
	m := NewManager()

	q := m.DefaultQueue()
	require.NotNil(t, q)
	assert.Equal(t, DefaultQueueName, q.Name())

	// Subsequent calls return the same instance.
	assert.Same(t, q, m.DefaultQueue())
}

func TestManagerOptionsPropagate(t *testing.T) {
	reg := job.NewRegistry()
	m := NewManager(WithRegistry(reg), WithTick(testTick))

	q, err := m.CreateQueue("wired", 1)
	require.NoError(t, err)
	assert.Same(t, reg, q.registry)
	assert.Equal(t, testTick, q.tick)
}

func TestManagerFindAndCancelAcrossQueues(t *testing.T) {
	reg := job.NewRegistry()
	reg.Register("ok", succeedWith(nil))
	m := NewManager(WithRegistry(reg), WithTick(testTick))

	_, err := m.CreateQueue("a", 1)
	require.NoError(t, err)
	b, err := m.CreateQueue("b", 1)
	require.NoError(t, err)

	// Not started, so the job stays pending and cancellable.
	id, err := b.AddJob("find-me", "ok", nil)
	require.NoError(t, err)

	j, queueName, err := m.FindJob(id)
	require.NoError(t, err)
	assert.Equal(t, "b", queueName)
	assert.Equal(t, id, j.ID)

	_, _, err = m.FindJob("missing")
	assert.ErrorIs(t, err, job.ErrNotFound)

	assert.True(t, m.CancelJob(id))
	assert.False(t, m.CancelJob("missing"))

	status, err := b.GetJobStatus(id)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCancelled, status)
}

func TestManagerStartAndShutdownAll(t *testing.T) {
	reg := job.NewRegistry()
	reg.Register("ok", succeedWith("x"))
	m := NewManager(WithRegistry(reg), WithTick(testTick))

	a, err := m.CreateQueue("a", 1)
	require.NoError(t, err)
	_, err = m.CreateQueue("b", 1)
	require.NoError(t, err)

	require.NoError(t, m.StartAll(context.Background()))

	id, err := a.AddJob("work", "ok", nil)
	require.NoError(t, err)
	waitStatus(t, a, id, job.StatusCompleted)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.ShutdownAll(ctx))

	// Double start on already-started queues fails.
	assert.Error(t, m.StartAll(context.Background()))
}

func TestManagerAllStats(t *testing.T) {
	reg := job.NewRegistry()
	reg.Register("ok", succeedWith(nil))
	m := NewManager(WithRegistry(reg), WithTick(testTick))

	a, err := m.CreateQueue("a", 1)
	require.NoError(t, err)
	_, err = m.CreateQueue("b", 2)
	require.NoError(t, err)

	_, err = a.AddJob("one", "ok", nil)
	require.NoError(t, err)

	stats := m.AllStats()
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["a"].TotalJobs)
	assert.Equal(t, 1, stats["a"].MaxWorkers)
	assert.Zero(t, stats["b"].TotalJobs)
	assert.Equal(t, 2, stats["b"].MaxWorkers)
}
