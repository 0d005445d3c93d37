package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ListJobsQuery represents supported query params for GET /api/v1/jobs
type ListJobsQuery struct {
	Queue  string
	Status string
	Limit  int
}

// ParseListJobsQuery parses and validates query params. Returns a
// validated query with sane defaults (Limit=50) when omitted.
func ParseListJobsQuery(r *http.Request) (*ListJobsQuery, error) {
	q := r.URL.Query()
	var res ListJobsQuery

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		if err := validate.Var(v, "oneof=pending running completed failed cancelled retrying"); err != nil {
			return nil, &ValidationError{Field: "status", Reason: "must be one of: pending,running,completed,failed,cancelled,retrying"}
		}
		res.Status = v
	}

	if v := strings.TrimSpace(q.Get("queue")); v != "" {
		res.Queue = v
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be an integer"}
		}
		if err := validate.Var(n, "min=1,max=500"); err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be between 1 and 500"}
		}
		res.Limit = n
	}

	if res.Limit == 0 {
		res.Limit = 50
	}

	return &res, nil
}

// SubmitJobRequest is the POST /api/v1/jobs body.
type SubmitJobRequest struct {
	Queue      string         `json:"queue"`
	Name       string         `json:"name" validate:"required"`
	Handler    string         `json:"handler" validate:"required"`
	Payload    map[string]any `json:"payload"`
	Priority   string         `json:"priority" validate:"omitempty,oneof=low normal high critical"`
	MaxRetries *int           `json:"max_retries" validate:"omitempty"`
	RetryDelay string         `json:"retry_delay"`
	Timeout    string         `json:"timeout"`
	Metadata   map[string]any `json:"metadata"`
}

// Validate checks the submission body.
func (r *SubmitJobRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		return &ValidationError{Field: "max_retries", Reason: "must not be negative"}
	}
	return nil
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Field + ": " + e.Reason
}
