package job

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// submission carries the validatable parameters of a new job.
type submission struct {
	Name       string        `validate:"required"`
	Handler    string        `validate:"required"`
	MaxRetries int           `validate:"gte=0"`
	RetryDelay time.Duration `validate:"gte=0"`
	Timeout    time.Duration `validate:"gte=0"`
}

// Option customizes a job at submission time.
type Option func(*Job)

// WithPriority sets the dispatch priority.
func WithPriority(p Priority) Option {
	return func(j *Job) { j.Priority = p }
}

// WithMaxRetries sets how many times a failed job is retried before it
// goes terminal.
func WithMaxRetries(n int) Option {
	return func(j *Job) { j.MaxRetries = n }
}

// WithRetryDelay sets the fixed delay between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(j *Job) { j.RetryDelay = d }
}

// WithTimeout sets the per-attempt execution deadline. Zero means no
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(j *Job) { j.Timeout = d }
}

// WithScheduleAt defers the first dispatch until t.
func WithScheduleAt(t time.Time) Option {
	return func(j *Job) { j.ScheduledAt = &t }
}

// WithMetadata attaches an opaque key/value bag to the job. The scheduler
// never interprets it.
func WithMetadata(m map[string]any) Option {
	return func(j *Job) { j.Metadata = m }
}

// Defaults applied when the corresponding option is not given.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 60 * time.Second
)

// Build assembles a job from its submission parameters, applies options
// and defaults, and validates the result.
func Build(name, handler string, payload map[string]any, opts ...Option) (*Job, error) {
	j := New(name, handler, payload)
	j.MaxRetries = DefaultMaxRetries
	j.RetryDelay = DefaultRetryDelay
	for _, opt := range opts {
		opt(j)
	}

	s := submission{
		Name:       j.Name,
		Handler:    j.Handler,
		MaxRetries: j.MaxRetries,
		RetryDelay: j.RetryDelay,
		Timeout:    j.Timeout,
	}
	if err := validate.Struct(s); err != nil {
		return nil, NewInvalidInputError(err)
	}
	return j, nil
}
