// Package v1 implements the versioned REST handlers for the job API.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck/pkg/job"
	"github.com/taskdeck/taskdeck/pkg/queue"
	"github.com/taskdeck/taskdeck/pkg/server/api"
)

var priorities = map[string]job.Priority{
	"low":      job.PriorityLow,
	"normal":   job.PriorityNormal,
	"high":     job.PriorityHigh,
	"critical": job.PriorityCritical,
}

// ListJobsHandler handles GET /api/v1/jobs
//
// Supported query params: queue (name, defaults to all queues), status
// (lifecycle state filter), limit (1-500, default 50).
func ListJobsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := ParseListJobsQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var queues []*queue.Queue
		if query.Queue != "" {
			q := deps.Manager.GetQueue(query.Queue)
			if q == nil {
				writeError(w, http.StatusNotFound, "queue not found: "+query.Queue)
				return
			}
			queues = append(queues, q)
		} else {
			for name := range deps.Manager.AllStats() {
				if q := deps.Manager.GetQueue(name); q != nil {
					queues = append(queues, q)
				}
			}
		}

		jobs := make([]job.Job, 0)
		for _, q := range queues {
			var batch []job.Job
			if query.Status != "" {
				batch = q.JobsByStatus(job.Status(query.Status))
			} else {
				batch = q.Jobs()
			}
			jobs = append(jobs, batch...)
			if len(jobs) >= query.Limit {
				jobs = jobs[:query.Limit]
				break
			}
		}

		writeJSON(w, http.StatusOK, jobs)
	}
}

// GetJobHandler handles GET /api/v1/jobs/{id}
//
// Returns the job snapshot, searching every queue. 404 for unknown ids.
func GetJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		j, queueName, err := deps.Manager.FindJob(id)
		if err != nil {
			if errors.Is(err, job.ErrNotFound) {
				writeError(w, http.StatusNotFound, "job not found: "+id)
				return
			}
			log.Error().Str("component", "api").Err(err).Msg("failed to look up job")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"queue": queueName,
			"job":   j,
		})
	}
}

// SubmitJobHandler handles POST /api/v1/jobs
//
// Accepts a JSON job description and enqueues it. The handler never
// waits for execution; it answers 202 with the assigned job id.
func SubmitJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		opts, err := submitOptions(&req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		q := deps.Manager.DefaultQueue()
		if req.Queue != "" {
			q = deps.Manager.GetQueue(req.Queue)
			if q == nil {
				writeError(w, http.StatusNotFound, "queue not found: "+req.Queue)
				return
			}
		}

		id, err := q.AddJob(req.Name, req.Handler, req.Payload, opts...)
		if err != nil {
			switch {
			case errors.Is(err, job.ErrInvalidInput), errors.Is(err, job.ErrHandlerNotFound):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, job.ErrShuttingDown):
				writeError(w, http.StatusServiceUnavailable, err.Error())
			default:
				log.Error().Str("component", "api").Err(err).Msg("failed to submit job")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id": id,
			"queue":  q.Name(),
		})
	}
}

// CancelJobHandler handles POST /api/v1/jobs/{id}/cancel
//
// Cancellation of a running job is best effort: the job record goes
// terminal, but a blocking computation already in flight completes.
func CancelJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if !deps.Manager.CancelJob(id) {
			writeError(w, http.StatusNotFound, "job not cancellable: "+id)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"job_id": id, "cancelled": true})
	}
}

// StatsHandler handles GET /api/v1/stats
//
// Returns the per-queue counter snapshots.
func StatsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.AllStats())
	}
}

func submitOptions(req *SubmitJobRequest) ([]job.Option, error) {
	var opts []job.Option

	if req.Priority != "" {
		opts = append(opts, job.WithPriority(priorities[req.Priority]))
	}
	if req.MaxRetries != nil {
		opts = append(opts, job.WithMaxRetries(*req.MaxRetries))
	}
	if req.RetryDelay != "" {
		d, err := time.ParseDuration(req.RetryDelay)
		if err != nil {
			return nil, &ValidationError{Field: "retry_delay", Reason: "must be a duration like 30s"}
		}
		opts = append(opts, job.WithRetryDelay(d))
	}
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			return nil, &ValidationError{Field: "timeout", Reason: "must be a duration like 5m"}
		}
		opts = append(opts, job.WithTimeout(d))
	}
	if req.Metadata != nil {
		opts = append(opts, job.WithMetadata(req.Metadata))
	}

	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Str("component", "api").Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
