package job

import (
	"errors"
	"fmt"
)

const (
	errorCodeNotFound        = "JOB_NOT_FOUND"
	errorCodeInvalidInput    = "JOB_INVALID_INPUT"
	errorCodeQueueExists     = "QUEUE_ALREADY_EXISTS"
	errorCodeHandlerNotFound = "JOB_HANDLER_NOT_FOUND"
	errorCodeShuttingDown    = "QUEUE_SHUTTING_DOWN"
)

var (
	// ErrNotFound indicates an unknown job id was passed to a lookup or
	// cancel call.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidInput indicates bad arguments to AddJob or CreateQueue.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQueueExists indicates a queue name is already taken.
	ErrQueueExists = errors.New("queue already exists")

	// ErrHandlerNotFound indicates a job referenced an unregistered handler.
	ErrHandlerNotFound = errors.New("handler not registered")

	// ErrTimeout indicates a job exceeded its execution deadline.
	ErrTimeout = errors.New("job timed out")

	// ErrShuttingDown indicates the queue no longer accepts submissions.
	ErrShuttingDown = errors.New("queue shutting down")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a scheduler error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// ErrorCode extracts the scheduler error code from err, walking the
// unwrap chain. Returns an empty string for unannotated errors.
func ErrorCode(err error) string {
	var coder errorCoder
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return ""
}

// NewNotFoundError formats an unknown-job error with context.
func NewNotFoundError(id string) error {
	return WithErrorCode(fmt.Errorf("%w: %s", ErrNotFound, id), errorCodeNotFound)
}

// NewInvalidInputError annotates a submission validation failure.
func NewInvalidInputError(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("%w: %v", ErrInvalidInput, err), errorCodeInvalidInput)
}

// NewQueueExistsError formats a duplicate queue-name error.
func NewQueueExistsError(name string) error {
	return WithErrorCode(fmt.Errorf("%w: %s", ErrQueueExists, name), errorCodeQueueExists)
}

// NewHandlerNotFoundError formats an unregistered-handler error.
func NewHandlerNotFoundError(name string) error {
	return WithErrorCode(fmt.Errorf("%w: %s", ErrHandlerNotFound, name), errorCodeHandlerNotFound)
}
