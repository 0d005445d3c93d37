package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck/pkg/job"
)

// DefaultQueueName is the queue created lazily on first access.
const DefaultQueueName = "default"

// Manager owns a set of named queues and starts/stops them as a unit.
// Construct one per application and pass it by reference; there is no
// package-level singleton.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*Queue
	opts   []Option
}

// NewManager creates an empty queue manager. The given options are
// applied to every queue it creates, so the registry, event emitter,
// worker pool and tick settings are wired in one place.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		queues: make(map[string]*Queue),
		opts:   opts,
	}
}

// CreateQueue creates a named queue with the given worker ceiling.
// It fails when the name is taken or maxWorkers is not positive.
func (m *Manager) CreateQueue(name string, maxWorkers int, opts ...Option) (*Queue, error) {
	if name == "" {
		return nil, job.NewInvalidInputError(errors.New("queue name must not be empty"))
	}
	if maxWorkers <= 0 {
		return nil, job.NewInvalidInputError(fmt.Errorf("max workers must be positive, got %d", maxWorkers))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[name]; exists {
		return nil, job.NewQueueExistsError(name)
	}

	q := New(name, maxWorkers, append(append([]Option{}, m.opts...), opts...)...)
	m.queues[name] = q

	log.Info().
		Str("component", "manager").
		Str("queue", name).
		Int("max_workers", maxWorkers).
		Msg("queue created")

	return q, nil
}

// GetQueue returns the queue with the given name, or nil if it does not
// exist.
func (m *Manager) GetQueue(name string) *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queues[name]
}

// DefaultQueue returns the "default" queue, creating it on first access.
func (m *Manager) DefaultQueue() *Queue {
	m.mu.Lock()
	if q, ok := m.queues[DefaultQueueName]; ok {
		m.mu.Unlock()
		return q
	}
	m.mu.Unlock()

	q, err := m.CreateQueue(DefaultQueueName, DefaultMaxWorkers)
	if err != nil {
		// Lost a race with a concurrent DefaultQueue call.
		return m.GetQueue(DefaultQueueName)
	}
	return q
}

// FindJob looks the job id up across all queues. It returns the owning
// queue name alongside the snapshot.
func (m *Manager) FindJob(id string) (job.Job, string, error) {
	for _, q := range m.snapshot() {
		if j, err := q.GetJob(id); err == nil {
			return j, q.Name(), nil
		}
	}
	return job.Job{}, "", job.NewNotFoundError(id)
}

// CancelJob cancels the job id on whichever queue owns it.
func (m *Manager) CancelJob(id string) bool {
	for _, q := range m.snapshot() {
		if _, err := q.GetJob(id); err == nil {
			return q.CancelJob(id)
		}
	}
	return false
}

// StartAll launches every queue's coordinating loop.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, q := range m.snapshot() {
		if err := q.Start(ctx); err != nil {
			return fmt.Errorf("start queue %s: %w", q.Name(), err)
		}
	}
	return nil
}

// ShutdownAll shuts every queue down and waits for all of them,
// aggregating errors instead of failing fast on the first one.
func (m *Manager) ShutdownAll(ctx context.Context) error {
	var errs []error
	for _, q := range m.snapshot() {
		if err := q.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown queue %s: %w", q.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// AllStats returns a per-queue snapshot of counters. Each snapshot is
// consistent for its queue; no cross-queue atomicity is promised.
func (m *Manager) AllStats() map[string]Stats {
	stats := make(map[string]Stats)
	for _, q := range m.snapshot() {
		stats[q.Name()] = q.Stats()
	}
	return stats
}

func (m *Manager) snapshot() []*Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Queue, 0, len(m.queues))
	for _, q := range m.queues {
		out = append(out, q)
	}
	return out
}
