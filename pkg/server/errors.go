// Package server composes the HTTP status surface and the scheduler
// runtime into one application lifecycle.
package server

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidConfig  = "SERVER_INVALID_CONFIG"
	errorCodeLockHeld       = "SERVER_LOCK_HELD"
	errorCodeRuntimeFailed  = "SERVER_RUNTIME_FAILED"
	errorCodeAppInitFailed  = "SERVER_INIT_FAILED"
	errorCodeConfigLoadFail = "SERVER_CONFIG_LOAD_FAILED"
)

var (
	// ErrLockHeld indicates another server instance holds the lockfile.
	ErrLockHeld = errors.New("another taskdeck instance is running")
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

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// ErrorCode extracts the server error code from err. Returns an empty
// string for unannotated errors.
func ErrorCode(err error) string {
	var coder errorCoder
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return ""
}

// WrapInvalidConfig annotates config validation errors.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), errorCodeInvalidConfig)
}

// WrapConfigLoad annotates config loading failures.
func WrapConfigLoad(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("load configuration: %w", err), errorCodeConfigLoadFail)
}

// NewLockHeldError formats a lockfile contention error.
func NewLockHeldError(path string) error {
	return WithErrorCode(fmt.Errorf("%w: lockfile %s", ErrLockHeld, path), errorCodeLockHeld)
}

// WrapInit annotates application initialization failures.
func WrapInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("initialize server: %w", err), errorCodeAppInitFailed)
}

// WrapRuntime annotates failures after startup.
func WrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("server runtime: %w", err), errorCodeRuntimeFailed)
}
