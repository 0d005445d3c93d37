// Package queue implements the scheduler core: priority-ordered job
// queues with bounded concurrency, retry policy, cancellation, timeouts
// and retention cleanup, plus the manager that owns them.
//
// State is memory-resident only. A process restart loses all queued and
// historical jobs; operators must treat the queue as non-durable.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/job"
)

const (
	// DefaultMaxWorkers bounds concurrent jobs when no ceiling is given.
	DefaultMaxWorkers = 4
	// DefaultTick is the coordinator scheduling granularity.
	DefaultTick = time.Second
	// DefaultRetention is how long terminal jobs remain queryable.
	DefaultRetention = 24 * time.Hour
)

// Queue owns a set of jobs, keeps a priority-ordered dispatch list, and
// runs one coordinating loop that respects the worker ceiling. All
// exported methods are safe for concurrent use.
type Queue struct {
	name       string
	maxWorkers int

	tick      time.Duration
	retention time.Duration

	registry *job.Registry
	pool     *Pool
	emitter  event.Emitter

	mu       sync.Mutex
	jobs     map[string]*job.Job
	dispatch []string // job ids, priority descending, FIFO within a priority
	running  map[string]context.CancelFunc

	total     int
	completed int
	failed    int
	cancelled int

	started  bool
	stopped  bool
	stopCh   chan struct{}
	loopDone chan struct{}
	jobsWG   sync.WaitGroup
}

// Stats is a point-in-time snapshot of a queue's counters.
type Stats struct {
	QueueName     string `json:"queue_name"`
	MaxWorkers    int    `json:"max_workers"`
	ActiveWorkers int    `json:"active_workers"`
	QueuedJobs    int    `json:"queued_jobs"`
	TotalJobs     int    `json:"total_jobs"`
	Completed     int    `json:"completed"`
	Failed        int    `json:"failed"`
	Cancelled     int    `json:"cancelled"`
}

// Option customizes a queue at construction time.
type Option func(*Queue)

// WithTick overrides the coordinator tick interval.
func WithTick(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.tick = d
		}
	}
}

// WithRetention overrides how long terminal jobs stay queryable before
// the sweep deletes them.
func WithRetention(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.retention = d
		}
	}
}

// WithEmitter wires a lifecycle event emitter.
func WithEmitter(e event.Emitter) Option {
	return func(q *Queue) { q.emitter = e }
}

// WithPool wires the worker pool used for blocking handlers. Without a
// pool, blocking handlers run on their own goroutines.
func WithPool(p *Pool) Option {
	return func(q *Queue) { q.pool = p }
}

// WithRegistry wires the handler registry used to resolve job handlers.
func WithRegistry(r *job.Registry) Option {
	return func(q *Queue) { q.registry = r }
}

// New creates a queue. A non-positive maxWorkers falls back to
// DefaultMaxWorkers; use Manager.CreateQueue for strict validation.
func New(name string, maxWorkers int, opts ...Option) *Queue {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	q := &Queue{
		name:       name,
		maxWorkers: maxWorkers,
		tick:       DefaultTick,
		retention:  DefaultRetention,
		jobs:       make(map[string]*job.Job),
		running:    make(map[string]context.CancelFunc),
		loopDone:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// AddJob validates the submission, assigns an id, and registers the job
// as pending. Handler code never runs synchronously inside this call.
// Jobs scheduled for the future wait for the periodic promotion pass.
func (q *Queue) AddJob(name, handler string, payload map[string]any, opts ...job.Option) (string, error) {
	j, err := job.Build(name, handler, payload, opts...)
	if err != nil {
		return "", err
	}
	if q.registry != nil {
		if _, ok := q.registry.Get(handler); !ok {
			return "", job.NewHandlerNotFoundError(handler)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return "", job.WithErrorCode(fmt.Errorf("%w: %s", job.ErrShuttingDown, q.name), "QUEUE_SHUTTING_DOWN")
	}

	q.jobs[j.ID] = j
	q.total++
	if j.Due(time.Now()) {
		q.enqueueLocked(j)
	}

	log.Info().
		Str("component", "queue").
		Str("queue", q.name).
		Str("job_id", j.ID).
		Str("job_name", j.Name).
		Str("priority", j.Priority.String()).
		Msg("job added")

	q.emitLocked(event.JobCreated, j)

	return j.ID, nil
}

// GetJob returns a snapshot of the job with the given id.
func (q *Queue) GetJob(id string) (job.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return job.Job{}, job.NewNotFoundError(id)
	}
	return j.Snapshot(), nil
}

// GetJobStatus returns the current status of the job with the given id.
func (q *Queue) GetJobStatus(id string) (job.Status, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return "", job.NewNotFoundError(id)
	}
	return j.Status, nil
}

// JobsByStatus returns snapshots of every job currently in the given
// status.
func (q *Queue) JobsByStatus(status job.Status) []job.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []job.Job
	for _, j := range q.jobs {
		if j.Status == status {
			out = append(out, j.Snapshot())
		}
	}
	return out
}

// Jobs returns snapshots of all jobs the queue currently holds.
func (q *Queue) Jobs() []job.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]job.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// CancelJob cancels the job with the given id. Pending jobs are removed
// from the dispatch list and never run. Running jobs get a best-effort
// cooperative cancellation: the job record goes terminal immediately,
// but a handler executing on the worker pool cannot be interrupted and
// its computation runs to completion. Returns false for unknown or
// already-terminal jobs.
func (q *Queue) CancelJob(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok || j.Status.Terminal() {
		return false
	}

	switch j.Status {
	case job.StatusPending, job.StatusRetrying:
		q.removeFromDispatchLocked(id)
		q.finalizeCancelLocked(j)
		return true
	case job.StatusRunning:
		cancel := q.running[id]
		q.finalizeCancelLocked(j)
		if cancel != nil {
			cancel()
		}
		return true
	default:
		return false
	}
}

// Stats returns a consistent point-in-time snapshot of the queue's
// counters. TotalJobs counts every job ever submitted, not just the jobs
// still retained.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		QueueName:     q.name,
		MaxWorkers:    q.maxWorkers,
		ActiveWorkers: len(q.running),
		QueuedJobs:    len(q.dispatch),
		TotalJobs:     q.total,
		Completed:     q.completed,
		Failed:        q.failed,
		Cancelled:     q.cancelled,
	}
}

// Start launches the coordinating loop. It returns an error if the queue
// is already running.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s already started", q.name)
	}
	q.started = true
	q.stopCh = make(chan struct{})
	q.mu.Unlock()

	log.Info().
		Str("component", "queue").
		Str("queue", q.name).
		Int("max_workers", q.maxWorkers).
		Msg("queue started")

	if q.emitter != nil {
		q.emitter.Emit(ctx, event.QueueStarted, map[string]any{"queue": q.name}, "queue")
	}

	go q.run(ctx)
	return nil
}

// Shutdown stops accepting new dispatch, requests cancellation of every
// running job, and waits for them to resolve within the context
// deadline. Handler errors during shutdown are recorded on the jobs,
// never propagated.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	started := q.started
	if started {
		close(q.stopCh)
	}
	for id, cancel := range q.running {
		if j, ok := q.jobs[id]; ok && !j.Status.Terminal() {
			q.finalizeCancelLocked(j)
		}
		cancel()
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.jobsWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().
			Str("component", "queue").
			Str("queue", q.name).
			Msg("shutdown timed out waiting for running jobs")
		return ctx.Err()
	}

	if started {
		<-q.loopDone
	}

	log.Info().
		Str("component", "queue").
		Str("queue", q.name).
		Msg("queue stopped")

	if q.emitter != nil {
		q.emitter.Emit(context.Background(), event.QueueStopped, map[string]any{"queue": q.name}, "queue")
	}
	return nil
}

// enqueueLocked inserts a job id into the dispatch list keeping it
// sorted by priority descending. Among equal priority, insertion order
// is preserved: a new id goes after every id of the same priority.
func (q *Queue) enqueueLocked(j *job.Job) {
	if q.inDispatchLocked(j.ID) {
		return
	}
	idx := len(q.dispatch)
	for i, id := range q.dispatch {
		if queued, ok := q.jobs[id]; ok && queued.Priority < j.Priority {
			idx = i
			break
		}
	}
	q.dispatch = append(q.dispatch, "")
	copy(q.dispatch[idx+1:], q.dispatch[idx:])
	q.dispatch[idx] = j.ID
}

func (q *Queue) inDispatchLocked(id string) bool {
	for _, queued := range q.dispatch {
		if queued == id {
			return true
		}
	}
	return false
}

func (q *Queue) removeFromDispatchLocked(id string) {
	for i, queued := range q.dispatch {
		if queued == id {
			q.dispatch = append(q.dispatch[:i], q.dispatch[i+1:]...)
			return
		}
	}
}

// finalizeCancelLocked moves a non-terminal job to Cancelled and bumps
// the counter. CompletedAt is only set once.
func (q *Queue) finalizeCancelLocked(j *job.Job) {
	now := time.Now()
	j.Status = job.StatusCancelled
	if j.CompletedAt == nil {
		j.CompletedAt = &now
	}
	q.cancelled++

	log.Info().
		Str("component", "queue").
		Str("queue", q.name).
		Str("job_id", j.ID).
		Str("job_name", j.Name).
		Msg("job cancelled")

	q.emitLocked(event.JobCancelled, j)
}

// emitLocked publishes a lifecycle event for j. The bus fans out on its
// own goroutines, so holding the queue mutex here is harmless.
func (q *Queue) emitLocked(name string, j *job.Job) {
	if q.emitter == nil {
		return
	}
	q.emitter.Emit(context.Background(), name, map[string]any{
		"job_id":   j.ID,
		"job_name": j.Name,
		"queue":    q.name,
		"status":   string(j.Status),
		"priority": j.Priority.String(),
	}, "queue."+q.name)
}
