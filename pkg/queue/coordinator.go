package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck/pkg/event"
	"github.com/taskdeck/taskdeck/pkg/job"
)

// run is the coordinating loop. Each tick promotes due scheduled jobs,
// dispatches up to the worker ceiling, and sweeps expired terminal jobs.
// Running jobs progress on their own goroutines; the loop never blocks
// on any individual job.
func (q *Queue) run(ctx context.Context) {
	defer close(q.loopDone)

	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.promoteDue()
			q.dispatchAvailable(ctx)
			q.sweepExpired()
		}
	}
}

// promoteDue moves scheduled jobs whose time has come into the dispatch
// list. Retrying jobs re-enter the pending state here once their retry
// delay elapses.
func (q *Queue) promoteDue() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, j := range q.jobs {
		switch j.Status {
		case job.StatusPending:
			if j.Due(now) && !q.inDispatchLocked(j.ID) {
				q.enqueueLocked(j)
			}
		case job.StatusRetrying:
			if j.Due(now) {
				j.Status = job.StatusPending
				q.enqueueLocked(j)
			}
		}
	}
}

// dispatchAvailable starts dispatch-list jobs while worker capacity
// remains. The number of running jobs never exceeds the worker ceiling.
func (q *Queue) dispatchAvailable(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.running) < q.maxWorkers && len(q.dispatch) > 0 && !q.stopped {
		id := q.dispatch[0]
		q.dispatch = q.dispatch[1:]

		j, ok := q.jobs[id]
		if !ok || j.Status != job.StatusPending {
			// Cancelled (or swept) while waiting for a slot.
			continue
		}

		now := time.Now()
		j.Status = job.StatusRunning
		if j.StartedAt == nil {
			j.StartedAt = &now
		}

		jobCtx, cancel := q.jobContext(ctx, j)
		q.running[id] = cancel
		q.jobsWG.Add(1)

		log.Info().
			Str("component", "queue").
			Str("queue", q.name).
			Str("job_id", j.ID).
			Str("job_name", j.Name).
			Msg("job started")

		q.emitLocked(event.JobStarted, j)

		go q.execute(jobCtx, j.ID, j.Handler, j.Payload)
	}
}

func (q *Queue) jobContext(parent context.Context, j *job.Job) (context.Context, context.CancelFunc) {
	if j.Timeout > 0 {
		return context.WithTimeout(parent, j.Timeout)
	}
	return context.WithCancel(parent)
}

type outcome struct {
	result any
	err    error
}

// execute runs one job attempt to its resolution. Cooperative handlers
// run on this goroutine's child; blocking handlers go through the worker
// pool. Either way the attempt races the job context, so a deadline or
// cancellation resolves the job even while the handler keeps running.
func (q *Queue) execute(ctx context.Context, id, handlerName string, payload map[string]any) {
	defer q.jobsWG.Done()

	var res outcome

	h, ok := q.resolve(handlerName)
	if !ok {
		res.err = job.NewHandlerNotFoundError(handlerName)
	} else {
		resCh := make(chan outcome, 1)
		attempt := func() {
			defer func() {
				if r := recover(); r != nil {
					resCh <- outcome{err: fmt.Errorf("handler panic: %v", r)}
				}
			}()
			result, err := h.Execute(ctx, payload)
			resCh <- outcome{result: result, err: err}
		}

		if job.IsBlocking(h) {
			if q.pool == nil || !q.pool.Submit(attempt) {
				go attempt()
			}
		} else {
			go attempt()
		}

		select {
		case res = <-resCh:
		case <-ctx.Done():
			res.err = ctx.Err()
		}
	}

	q.finish(id, res)

	// Release the context resources for this attempt.
	if cancel := q.takeCancel(id); cancel != nil {
		cancel()
	}
}

func (q *Queue) resolve(name string) (job.Handler, bool) {
	if q.registry == nil {
		return nil, false
	}
	return q.registry.Get(name)
}

func (q *Queue) takeCancel(id string) context.CancelFunc {
	q.mu.Lock()
	defer q.mu.Unlock()
	cancel := q.running[id]
	delete(q.running, id)
	return cancel
}

// finish applies the outcome of one attempt: success, retry scheduling,
// terminal failure, or nothing at all when the job was already cancelled.
func (q *Queue) finish(id string, res outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok {
		return
	}
	if j.Status != job.StatusRunning {
		// Cancelled while running; CancelJob or Shutdown already
		// finalized the record.
		return
	}

	now := time.Now()
	switch {
	case res.err == nil:
		j.Status = job.StatusCompleted
		j.Result = res.result
		j.CompletedAt = &now
		q.completed++
		log.Info().
			Str("component", "queue").
			Str("queue", q.name).
			Str("job_id", j.ID).
			Str("job_name", j.Name).
			Msg("job completed")
		q.emitLocked(event.JobCompleted, j)

	case errors.Is(res.err, context.Canceled):
		// Context cancelled without an explicit CancelJob, e.g. the
		// parent context of the whole queue went away.
		q.finalizeCancelLocked(j)

	default:
		kind := job.ErrorKindHandler
		errMsg := res.err.Error()
		if errors.Is(res.err, context.DeadlineExceeded) {
			kind = job.ErrorKindTimeout
			errMsg = fmt.Sprintf("%v after %s", job.ErrTimeout, j.Timeout)
		}

		j.RetryCount++
		j.LastError = errMsg
		j.ErrorKind = kind

		if j.RetryCount <= j.MaxRetries {
			j.Status = job.StatusRetrying
			retryAt := now.Add(j.RetryDelay)
			j.ScheduledAt = &retryAt
			log.Warn().
				Str("component", "queue").
				Str("queue", q.name).
				Str("job_id", j.ID).
				Str("job_name", j.Name).
				Int("retry_count", j.RetryCount).
				Dur("retry_delay", j.RetryDelay).
				Str("error", errMsg).
				Msg("job failed, retrying")
			q.emitLocked(event.JobRetrying, j)
		} else {
			j.Status = job.StatusFailed
			j.CompletedAt = &now
			q.failed++
			log.Error().
				Str("component", "queue").
				Str("queue", q.name).
				Str("job_id", j.ID).
				Str("job_name", j.Name).
				Int("retry_count", j.RetryCount).
				Str("error", errMsg).
				Msg("job failed permanently")
			q.emitLocked(event.JobFailed, j)
		}
	}
}

// sweepExpired hard-deletes terminal jobs older than the retention
// window. Aggregate counters are cumulative and survive the sweep.
func (q *Queue) sweepExpired() {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-q.retention)
	for id, j := range q.jobs {
		if j.Status.Terminal() && j.CompletedAt != nil && j.CompletedAt.Before(cutoff) {
			delete(q.jobs, id)
		}
	}
}
