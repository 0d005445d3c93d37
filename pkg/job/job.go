// Package job defines the job model, the handler registry, and the error
// taxonomy shared by the scheduler core.
package job

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	// StatusPending means the job is waiting for a worker slot.
	StatusPending Status = "pending"
	// StatusRunning means the job is currently executing.
	StatusRunning Status = "running"
	// StatusCompleted means the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the job exhausted its retry budget.
	StatusFailed Status = "failed"
	// StatusCancelled means the job was explicitly cancelled.
	StatusCancelled Status = "cancelled"
	// StatusRetrying means the job failed and is waiting for its retry delay.
	StatusRetrying Status = "retrying"
)

// Terminal reports whether the status is a terminal state.
// Terminal jobs never transition again and are eventually purged
// by the retention sweep.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Priority orders jobs in the dispatch list. Higher values dispatch first.
type Priority int

const (
	// PriorityLow is for background housekeeping work.
	PriorityLow Priority = 1
	// PriorityNormal is the default priority.
	PriorityNormal Priority = 2
	// PriorityHigh is for user-visible work.
	PriorityHigh Priority = 3
	// PriorityCritical jumps ahead of everything else waiting.
	PriorityCritical Priority = 4
)

// String returns the string representation of the Priority value.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ErrorKind classifies the last recorded execution error of a job.
type ErrorKind string

const (
	// ErrorKindNone means no error has been recorded.
	ErrorKindNone ErrorKind = ""
	// ErrorKindHandler means the handler returned an error or panicked.
	ErrorKindHandler ErrorKind = "handler_error"
	// ErrorKindTimeout means the execution deadline was exceeded.
	ErrorKindTimeout ErrorKind = "timeout"
)

// Job is one unit of scheduled work. A Job is owned exclusively by the
// queue that holds it; callers only ever see copies.
type Job struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Handler     string         `json:"handler"`
	Payload     map[string]any `json:"payload,omitempty"`
	Status      Status         `json:"status"`
	Priority    Priority       `json:"priority"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      any            `json:"result,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	ErrorKind   ErrorKind      `json:"error_kind,omitempty"`
	RetryCount  int            `json:"retry_count"`
	MaxRetries  int            `json:"max_retries"`
	RetryDelay  time.Duration  `json:"retry_delay"`
	Timeout     time.Duration  `json:"timeout,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// New creates a pending job with a fresh UUID and creation timestamp.
func New(name, handler string, payload map[string]any) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Name:      name,
		Handler:   handler,
		Payload:   payload,
		Status:    StatusPending,
		Priority:  PriorityNormal,
		CreatedAt: time.Now(),
	}
}

// Snapshot returns a copy of the job safe to hand to external callers.
// The payload and metadata maps are shallow-copied; the scheduler never
// interprets or mutates their contents.
func (j *Job) Snapshot() Job {
	cp := *j
	if j.Payload != nil {
		cp.Payload = make(map[string]any, len(j.Payload))
		for k, v := range j.Payload {
			cp.Payload[k] = v
		}
	}
	if j.Metadata != nil {
		cp.Metadata = make(map[string]any, len(j.Metadata))
		for k, v := range j.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

// Due reports whether the job is eligible for dispatch at t. Unscheduled
// jobs are always due.
func (j *Job) Due(t time.Time) bool {
	return j.ScheduledAt == nil || !j.ScheduledAt.After(t)
}
