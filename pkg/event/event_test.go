package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusEmitDeliversToSubscriber(t *testing.T) {
	bus := New()
	received := make(chan Envelope, 1)

	bus.Subscribe(JobCompleted, func(ctx context.Context, env Envelope) {
		received <- env
	})

	bus.Emit(context.Background(), JobCompleted, map[string]any{"job_id": "abc"}, "queue.default")

	select {
	case env := <-received:
		assert.Equal(t, JobCompleted, env.Event)
		assert.Equal(t, "queue.default", env.Source)
		assert.False(t, env.Time.IsZero())
		payload, ok := env.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "abc", payload["job_id"])
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBusEmitFansOut(t *testing.T) {
	bus := New()

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		bus.Subscribe(JobFailed, func(ctx context.Context, env Envelope) {
			wg.Done()
		})
	}

	bus.Emit(context.Background(), JobFailed, nil, "queue.default")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all subscribers received the event")
	}
}

func TestBusEmitUnrelatedEvent(t *testing.T) {
	bus := New()
	received := make(chan struct{}, 1)

	bus.Subscribe(JobCreated, func(ctx context.Context, env Envelope) {
		received <- struct{}{}
	})

	bus.Emit(context.Background(), JobCancelled, nil, "queue.default")

	select {
	case <-received:
		t.Fatal("handler fired for an event it never subscribed to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusEmitWithoutSubscribers(t *testing.T) {
	bus := New()
	// Must not panic or block.
	bus.Emit(context.Background(), QueueStarted, nil, "queue")
}

func TestBusSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	bus := New()
	release := make(chan struct{})

	bus.Subscribe(JobStarted, func(ctx context.Context, env Envelope) {
		<-release
	})

	start := time.Now()
	bus.Emit(context.Background(), JobStarted, nil, "queue")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	close(release)
}
